package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"loom/internal/source"
)

// ScopeKind enumerates the lexical nesting levels of the scope tree.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeUnit
	ScopeDeclaration      // type parameters of a type declaration
	ScopeMember           // type parameters of a member
	ScopeFunction         // type parameters of a local function
	ScopeMixinApplication // anonymous mixin-application scope
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeUnit:
		return "unit"
	case ScopeDeclaration:
		return "declaration"
	case ScopeMember:
		return "member"
	case ScopeFunction:
		return "function"
	case ScopeMixinApplication:
		return "mixin application"
	default:
		return "invalid"
	}
}

// PendingRef is one deferred type reference. Target stays NoSymbolID until
// the resolution pass runs; forward references and mutual recursion between
// sibling declarations rely on that deferral.
type PendingRef struct {
	Name   source.StringID
	Span   source.Span
	Target SymbolID
}

// Resolved reports whether the reference found its declaration.
func (r *PendingRef) Resolved() bool { return r.Target.IsValid() }

// Scope is one node of the lookup tree. Names holds the node's own bindings;
// lookup walks the parent chain. Pending accumulates unresolved type
// references registered during binding.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Children []ScopeID
	Names    map[source.StringID]SymbolID
	Pending  []*PendingRef
}

// Tree stores all scopes of a compilation unit in a compact arena and owns
// the two-phase resolution protocol: phase 1 registers unresolved references
// per scope, phase 2 is a single parent-to-child depth-first walk. Once the
// walk begins the tree is sealed and further registration panics.
type Tree struct {
	data   []Scope
	sealed bool
}

// NewTree creates a scope arena with optional capacity hint.
func NewTree(capacity uint32) *Tree {
	if capacity == 0 {
		capacity = 16
	}
	return &Tree{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for NoScopeID
	}
}

// New allocates a scope and returns its ID.
func (t *Tree) New(kind ScopeKind, parent ScopeID) ScopeID {
	value, err := safecast.Conv[uint32](len(t.data))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	id := ScopeID(value)
	t.data = append(t.data, Scope{
		Kind:   kind,
		Parent: parent,
		Names:  make(map[source.StringID]SymbolID),
	})
	if parent.IsValid() {
		if parentScope := t.Get(parent); parentScope != nil {
			parentScope.Children = append(parentScope.Children, id)
		}
	}
	return id
}

// Get returns the scope pointer or nil if the ID is invalid.
func (t *Tree) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(t.data) {
		return nil
	}
	return &t.data[id]
}

// Len reports total number of scopes excluding the sentinel.
func (t *Tree) Len() int { return len(t.data) - 1 }

// Sealed reports whether the resolution pass has started.
func (t *Tree) Sealed() bool { return t.sealed }

// Bind installs a name into the scope's own bindings. Later bindings of the
// same name win; shadowing across scopes is expressed by the parent chain.
func (t *Tree) Bind(id ScopeID, name source.StringID, sym SymbolID) {
	scope := t.Get(id)
	if scope == nil {
		panic(fmt.Sprintf("scope tree: bind into invalid scope %d", id))
	}
	scope.Names[name] = sym
}

// Unbind removes a name from the scope's own bindings. Used when a type
// parameter is renamed during shadowing resolution.
func (t *Tree) Unbind(id ScopeID, name source.StringID) {
	if scope := t.Get(id); scope != nil {
		delete(scope.Names, name)
	}
}

// Lookup walks the parent chain starting at id.
func (t *Tree) Lookup(id ScopeID, name source.StringID) (SymbolID, bool) {
	for id.IsValid() {
		scope := t.Get(id)
		if scope == nil {
			break
		}
		if sym, ok := scope.Names[name]; ok {
			return sym, true
		}
		id = scope.Parent
	}
	return NoSymbolID, false
}

// RegisterUnresolved records a type reference to be resolved against this
// scope's lookup chain once the unit finishes binding. Registering after the
// resolution pass has begun is a programmer error.
func (t *Tree) RegisterUnresolved(id ScopeID, name source.StringID, span source.Span) *PendingRef {
	if t.sealed {
		panic("scope tree: registration after resolution began")
	}
	scope := t.Get(id)
	if scope == nil {
		panic(fmt.Sprintf("scope tree: register against invalid scope %d", id))
	}
	ref := &PendingRef{Name: name, Span: span}
	scope.Pending = append(scope.Pending, ref)
	return ref
}

// ResolveTypes seals the tree and performs the single resolution traversal:
// parent-to-child, depth-first, resolving every pending reference against
// its node's lookup chain and clearing the node's pending list. Returns the
// number of references that found a target.
func (t *Tree) ResolveTypes() int {
	t.sealed = true
	resolved := 0
	for idx := 1; idx < len(t.data); idx++ {
		id := ScopeID(idx)
		if t.data[idx].Parent.IsValid() {
			continue // visited from its root
		}
		resolved += t.resolveScope(id)
	}
	return resolved
}

func (t *Tree) resolveScope(id ScopeID) int {
	scope := t.Get(id)
	if scope == nil {
		return 0
	}
	resolved := 0
	for _, ref := range scope.Pending {
		if target, ok := t.Lookup(id, ref.Name); ok {
			ref.Target = target
			resolved++
		}
	}
	scope.Pending = nil
	for _, child := range scope.Children {
		resolved += t.resolveScope(child)
	}
	return resolved
}
