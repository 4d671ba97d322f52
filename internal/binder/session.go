// Package binder turns parsed declaration fragments into bound symbols and
// namespaces. Binding is single-threaded and single-pass per compilation
// unit: fragments are bound strictly in declaration order, and diagnostic
// emission, augmentation chains and handle reuse all follow that order, so
// repeated runs over unchanged input are byte-identical.
package binder

import (
	"fmt"

	"github.com/google/uuid"

	"loom/internal/diag"
	"loom/internal/handles"
	"loom/internal/symbols"
)

// SessionOptions configures a compilation session.
type SessionOptions struct {
	Reporter diag.Reporter
	// Prior is the reference-handle index persisted by an earlier build of
	// the same artifact; nil on a from-scratch build.
	Prior *handles.Index
	// LateLowering enables splitting deferred-initialization fields into
	// synthetic slots.
	LateLowering bool
	Hints        symbols.Hints
}

// HandleBinding records one reused handle in assignment order.
type HandleBinding struct {
	Handle handles.HandleID
	Symbol symbols.SymbolID
}

// Session owns the state shared by every unit of one compilation: the
// symbol table and the handle table. The handle table is insert-only and is
// written by the single binder goroutine; it is never a process global.
type Session struct {
	ID       uuid.UUID
	Table    *symbols.Table
	Reporter diag.Reporter

	prior        *handles.Index
	lateLowering bool

	byHandle map[handles.HandleID]symbols.SymbolID
	bindings []HandleBinding
}

// NewSession creates a compilation session.
func NewSession(opts SessionOptions) *Session {
	return &Session{
		ID:           uuid.New(),
		Table:        symbols.NewTable(opts.Hints, nil),
		Reporter:     opts.Reporter,
		prior:        opts.Prior,
		lateLowering: opts.LateLowering,
		byHandle:     make(map[handles.HandleID]symbols.SymbolID),
	}
}

// reuseHandle consults the prior index for the canonical key and, on a hit,
// assigns the previously issued handle to the symbol and records the
// binding. Fresh symbols stay unhandled. A handle is assigned at most once
// per symbol; a second assignment is a binder invariant violation.
func (s *Session) reuseHandle(key string, id symbols.SymbolID) {
	if key == "" || s.prior == nil {
		return
	}
	handle, ok := s.prior.Lookup(key)
	if !ok {
		return
	}
	sym := s.Table.Symbols.Get(id)
	if sym == nil {
		panic(fmt.Sprintf("binder: handle reuse for missing symbol %d", id))
	}
	if sym.Handle.IsValid() {
		panic(fmt.Sprintf("binder: handle of symbol %d assigned twice", id))
	}
	sym.Handle = handle
	s.byHandle[handle] = id
	s.bindings = append(s.bindings, HandleBinding{Handle: handle, Symbol: id})
}

// reuseTearOff is the tear-off companion of reuseHandle: same lookup, same
// ordering guarantees, but the handle lands in the symbol's tear-off slot.
func (s *Session) reuseTearOff(key string, id symbols.SymbolID) {
	if key == "" || s.prior == nil {
		return
	}
	handle, ok := s.prior.Lookup(key)
	if !ok {
		return
	}
	sym := s.Table.Symbols.Get(id)
	if sym == nil {
		panic(fmt.Sprintf("binder: tear-off reuse for missing symbol %d", id))
	}
	if sym.TearOffHandle.IsValid() {
		panic(fmt.Sprintf("binder: tear-off handle of symbol %d assigned twice", id))
	}
	sym.TearOffHandle = handle
	s.byHandle[handle] = id
	s.bindings = append(s.bindings, HandleBinding{Handle: handle, Symbol: id})
}

// SymbolForHandle returns the symbol a reused handle was bound to.
func (s *Session) SymbolForHandle(h handles.HandleID) (symbols.SymbolID, bool) {
	id, ok := s.byHandle[h]
	return id, ok
}

// HandleBindings returns reused handles in assignment order.
func (s *Session) HandleBindings() []HandleBinding {
	return s.bindings
}

// ResolveTypes runs the deferred type-resolution pass over the whole scope
// tree. It must not start until every unit of the session finished binding;
// the tree seals itself on entry. Returns the number of references that
// found their declaration.
func (s *Session) ResolveTypes() int {
	return s.Table.Scopes.ResolveTypes()
}
