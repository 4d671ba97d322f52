package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"loom/internal/source"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the symbol arena, the scope tree and the shared string
// interner for one compilation unit.
type Table struct {
	Symbols *Symbols
	Scopes  *Tree
	Strings *source.Interner
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Symbols: NewSymbols(symCap),
		Scopes:  NewTree(scopeCap),
		Strings: strings,
	}
}

// NameOf resolves a symbol's name to its string form, tolerating synthetic
// unnamed symbols.
func (t *Table) NameOf(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	name, _ := t.Strings.Lookup(sym.Name)
	return name
}
