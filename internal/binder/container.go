package binder

import (
	"loom/internal/frag"
	"loom/internal/names"
	"loom/internal/source"
	"loom/internal/symbols"
)

// PendingInsertion queues one bound symbol for namespace construction. The
// queue order is the binding order; the namespace builder folds it in
// exactly that order.
type PendingInsertion struct {
	Name   source.StringID
	Symbol symbols.SymbolID
}

// Container is the binding context of one enclosing scope: the compilation
// unit itself or a type declaration inside it.
type Container struct {
	Kind   names.ContainerKind
	Name   string          // "" at unit level
	NameID source.StringID // NoStringID at unit level
	Symbol symbols.SymbolID
	Scope  symbols.ScopeID

	TypeParams *TypeParamNamespace

	// declaredParams keeps the syntactic type-parameter list so lowered
	// instance members can receive synthesized copies.
	declaredParams []frag.TypeParam

	pending []PendingInsertion

	// Augmentations collect later fragments of the same name per slot, in
	// binding order, for the merging phase that follows namespace
	// construction. Setter augmentations are kept apart because a name may
	// legitimately have both a getter and a setter chain.
	Augmentations       map[source.StringID][]symbols.SymbolID
	SetterAugmentations map[source.StringID][]symbols.SymbolID
}

func newContainer(kind names.ContainerKind, name string, nameID source.StringID, sym symbols.SymbolID, scope symbols.ScopeID) *Container {
	return &Container{
		Kind:                kind,
		Name:                name,
		NameID:              nameID,
		Symbol:              sym,
		Scope:               scope,
		TypeParams:          NewTypeParamNamespace(),
		Augmentations:       make(map[source.StringID][]symbols.SymbolID),
		SetterAugmentations: make(map[source.StringID][]symbols.SymbolID),
	}
}

// enqueue appends a pending insertion in binding order.
func (c *Container) enqueue(name source.StringID, sym symbols.SymbolID) {
	c.pending = append(c.pending, PendingInsertion{Name: name, Symbol: sym})
}

// Pending exposes the queued insertions, mainly for tests and debugging.
func (c *Container) Pending() []PendingInsertion {
	return c.pending
}
