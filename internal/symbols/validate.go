package symbols

import (
	"errors"
	"fmt"
)

// Validate walks the arenas checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues. A
// non-nil result indicates a binder invariant violation, not a user error.
func (t *Table) Validate() error {
	var errs []error

	// Scope parent/child backlinks.
	for idx := 1; idx < len(t.Scopes.data); idx++ {
		id := ScopeID(idx)
		scope := t.Scopes.data[idx]
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", id))
		}
		if scope.Parent.IsValid() {
			if int(scope.Parent) >= len(t.Scopes.data) || scope.Parent == id {
				errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", id, scope.Parent))
				continue
			}
			parent := t.Scopes.data[scope.Parent]
			found := false
			for _, child := range parent.Children {
				if child == id {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", id, scope.Parent))
			}
		}
		for _, child := range scope.Children {
			if int(child) >= len(t.Scopes.data) || child == id {
				errs = append(errs, fmt.Errorf("scope %d has invalid child %d", id, child))
				continue
			}
			if t.Scopes.data[child].Parent != id {
				errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", id, child))
			}
		}
	}

	// Symbol containers and augmentation chains.
	for idx := 1; idx < len(t.Symbols.data); idx++ {
		id := SymbolID(idx)
		sym := t.Symbols.data[idx]
		if sym.Kind == SymbolInvalid {
			errs = append(errs, fmt.Errorf("symbol %d has invalid kind", id))
		}
		if sym.Container.IsValid() && int(sym.Container) >= len(t.Symbols.data) {
			errs = append(errs, fmt.Errorf("symbol %d has invalid container %d", id, sym.Container))
		}
		if err := t.validateChain(id); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// validateChain checks that the Next chain of id terminates, stays inside
// the arena and links symbols sharing the same name.
func (t *Table) validateChain(id SymbolID) error {
	head := t.Symbols.Get(id)
	seen := map[SymbolID]struct{}{id: {}}
	cur := head.Next
	for cur.IsValid() {
		if int(cur) >= len(t.Symbols.data) {
			return fmt.Errorf("symbol %d chain references missing symbol %d", id, cur)
		}
		if _, dup := seen[cur]; dup {
			return fmt.Errorf("symbol %d has cyclic augmentation chain", id)
		}
		seen[cur] = struct{}{}
		next := t.Symbols.Get(cur)
		if next.Name != head.Name {
			return fmt.Errorf("symbol %d chain crosses names (%d vs %d)", id, head.Name, next.Name)
		}
		cur = next.Next
	}
	return nil
}
