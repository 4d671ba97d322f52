package symbols

import (
	"loom/internal/source"
)

// Namespace is the finished symbol table of one container: a getable map
// (names readable as values or types), a setable map (setter-kind members),
// a constructor map (declaration-scoped only) and the set of applicable
// extension declarations. Insertion order of names is preserved; it drives
// diagnostic ordering and deterministic output.
type Namespace struct {
	getable      map[source.StringID]SymbolID
	setable      map[source.StringID]SymbolID
	constructors map[source.StringID]SymbolID

	getableOrder     []source.StringID
	setableOrder     []source.StringID
	constructorOrder []source.StringID

	extensions []SymbolID
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		getable:      make(map[source.StringID]SymbolID),
		setable:      make(map[source.StringID]SymbolID),
		constructors: make(map[source.StringID]SymbolID),
	}
}

// LookupGetable returns the head of the getable slot for name.
func (ns *Namespace) LookupGetable(name source.StringID) (SymbolID, bool) {
	id, ok := ns.getable[name]
	return id, ok
}

// LookupSetable returns the head of the setable slot for name.
func (ns *Namespace) LookupSetable(name source.StringID) (SymbolID, bool) {
	id, ok := ns.setable[name]
	return id, ok
}

// LookupConstructor returns the constructor bound under name (NoStringID for
// the unnamed constructor).
func (ns *Namespace) LookupConstructor(name source.StringID) (SymbolID, bool) {
	id, ok := ns.constructors[name]
	return id, ok
}

// SetGetable installs or replaces the getable slot for name.
func (ns *Namespace) SetGetable(name source.StringID, id SymbolID) {
	if _, ok := ns.getable[name]; !ok {
		ns.getableOrder = append(ns.getableOrder, name)
	}
	ns.getable[name] = id
}

// SetSetable installs or replaces the setable slot for name.
func (ns *Namespace) SetSetable(name source.StringID, id SymbolID) {
	if _, ok := ns.setable[name]; !ok {
		ns.setableOrder = append(ns.setableOrder, name)
	}
	ns.setable[name] = id
}

// SetConstructor installs or replaces the constructor slot for name.
func (ns *Namespace) SetConstructor(name source.StringID, id SymbolID) {
	if _, ok := ns.constructors[name]; !ok {
		ns.constructorOrder = append(ns.constructorOrder, name)
	}
	ns.constructors[name] = id
}

// AddExtension records an applicable extension declaration. Extensions are
// keyed by identity, never by name, so duplicates of the same symbol are
// dropped while same-named distinct extensions coexist.
func (ns *Namespace) AddExtension(id SymbolID) {
	for _, existing := range ns.extensions {
		if existing == id {
			return
		}
	}
	ns.extensions = append(ns.extensions, id)
}

// GetableNames returns getable names in first-insertion order.
func (ns *Namespace) GetableNames() []source.StringID {
	return ns.getableOrder
}

// SetableNames returns setable names in first-insertion order.
func (ns *Namespace) SetableNames() []source.StringID {
	return ns.setableOrder
}

// ConstructorNames returns constructor names in first-insertion order.
func (ns *Namespace) ConstructorNames() []source.StringID {
	return ns.constructorOrder
}

// Extensions returns applicable extensions in registration order.
func (ns *Namespace) Extensions() []SymbolID {
	return ns.extensions
}
