package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// Symbols stores bound symbols in a compact slice-based arena. Index 0 is
// reserved for NoSymbolID so that the zero value of SymbolID reads as "no
// symbol".
type Symbols struct {
	data []Symbol
}

// NewSymbols creates a symbol arena with optional capacity hint.
func NewSymbols(capacity uint32) *Symbols {
	if capacity == 0 {
		capacity = 64
	}
	return &Symbols{
		data: make([]Symbol, 1, capacity+1),
	}
}

// New allocates a symbol in the arena and returns its ID.
func (s *Symbols) New(sym *Symbol) SymbolID {
	if sym == nil {
		panic("symbols.New: nil symbol")
	}
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	id := SymbolID(value)
	s.data = append(s.data, *sym)
	return id
}

// Get returns a symbol pointer or nil for an invalid ID.
func (s *Symbols) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// SetNext installs the augmentation-chain link of id. The link is set at
// most once; resetting it means the namespace builder lost track of a slot,
// which is a binder invariant violation.
func (s *Symbols) SetNext(id, next SymbolID) {
	sym := s.Get(id)
	if sym == nil {
		panic(fmt.Sprintf("symbols.SetNext: invalid symbol %d", id))
	}
	if sym.Next.IsValid() {
		panic(fmt.Sprintf("symbols.SetNext: chain link of symbol %d set twice", id))
	}
	sym.Next = next
}

// Len reports number of stored symbols excluding the sentinel.
func (s *Symbols) Len() int { return len(s.data) - 1 }

// Data exposes the arena storage without the sentinel.
func (s *Symbols) Data() []Symbol {
	if len(s.data) <= 1 {
		return nil
	}
	return s.data[1:]
}
