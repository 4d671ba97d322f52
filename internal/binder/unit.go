package binder

import (
	"fmt"

	"loom/internal/frag"
	"loom/internal/names"
	"loom/internal/source"
	"loom/internal/symbols"
)

// Unit binds the ordered fragment sequence of one compilation unit. Each
// unit gets its own root in the session's scope tree; units never observe
// each other's names.
type Unit struct {
	session *Session
	Name    string
	Scope   symbols.ScopeID

	// Namespace is the finished unit namespace, set by Finish.
	Namespace *symbols.Namespace

	root              *Container
	unnamedExtensions int
	finished          bool
}

// NewUnit starts binding a compilation unit.
func (s *Session) NewUnit(name string) *Unit {
	scope := s.Table.Scopes.New(symbols.ScopeUnit, symbols.NoScopeID)
	return &Unit{
		session: s,
		Name:    name,
		Scope:   scope,
		root:    newContainer(names.ContainerUnit, "", source.NoStringID, symbols.NoSymbolID, scope),
	}
}

// Root exposes the unit-level container, mainly for tests and debugging.
func (u *Unit) Root() *Container { return u.root }

// Bind binds one unit-level fragment and returns its primary symbol. Member
// fragments of type declarations are bound recursively; callers hand in only
// the unit-level sequence, in declaration order.
func (u *Unit) Bind(f *frag.Fragment) symbols.SymbolID {
	if u.finished {
		panic("binder: Bind after Finish")
	}
	switch f.Kind {
	case frag.KindClass, frag.KindMixin, frag.KindNamedMixinApplication,
		frag.KindEnum, frag.KindExtension, frag.KindExtensionType, frag.KindTypedef:
		return u.bindTypeDeclaration(f)
	case frag.KindField, frag.KindMethod, frag.KindConstructor, frag.KindFactory:
		return u.bindMember(f, u.root)
	default:
		panic(fmt.Sprintf("binder: unhandled fragment kind %s", f.Kind))
	}
}

// Finish builds the unit namespace and publishes its getable names into the
// unit scope, so type references registered anywhere below it can resolve
// forward declarations. Must be called exactly once, after the last Bind.
func (u *Unit) Finish() *symbols.Namespace {
	if u.finished {
		panic("binder: Finish called twice")
	}
	u.finished = true

	ns := u.buildNamespace(u.root)
	tree := u.session.Table.Scopes
	for _, name := range ns.GetableNames() {
		if id, ok := ns.LookupGetable(name); ok {
			tree.Bind(u.Scope, name, id)
		}
	}
	u.Namespace = ns
	return ns
}
