package binder

import (
	"fmt"

	"loom/internal/diag"
	"loom/internal/frag"
	"loom/internal/source"
	"loom/internal/symbols"
)

// TypeParamNamespace tracks the type parameters declared by one declaration
// or member. It freezes once the owner finishes binding; the namespace
// builder consults it afterwards for member/type-parameter conflicts.
type TypeParamNamespace struct {
	byName map[source.StringID]symbols.SymbolID
	order  []source.StringID
	frozen bool
}

// NewTypeParamNamespace creates an empty namespace.
func NewTypeParamNamespace() *TypeParamNamespace {
	return &TypeParamNamespace{byName: make(map[source.StringID]symbols.SymbolID)}
}

// Lookup returns the parameter bound under name.
func (ns *TypeParamNamespace) Lookup(name source.StringID) (symbols.SymbolID, bool) {
	id, ok := ns.byName[name]
	return id, ok
}

// Names returns bound names in declaration order. Renamed shadowed
// parameters appear under their renamed form.
func (ns *TypeParamNamespace) Names() []source.StringID {
	return ns.order
}

// Len counts bound names.
func (ns *TypeParamNamespace) Len() int { return len(ns.byName) }

// Freeze forbids further declarations.
func (ns *TypeParamNamespace) Freeze() { ns.frozen = true }

// declareTypeParams materializes a type-parameter list into ns and binds the
// names into scope for lexical lookup.
//
// Wildcard parameters get a symbol (they are positionally meaningful) but
// never participate in name conflicts or lookup. When a parameter collides
// with one synthesized by an enclosing extension, the synthesized one is
// renamed with a "#" prefix and stays retrievable under that form only; any
// other collision is a duplicate. A parameter sharing its owner's name is
// diagnosed unless the context allows it (members do, type declarations do
// not).
func (u *Unit) declareTypeParams(ns *TypeParamNamespace, scope symbols.ScopeID, params []frag.TypeParam, owner source.StringID, allowOwnerName bool, container symbols.SymbolID) []symbols.SymbolID {
	if ns.frozen {
		panic("binder: type parameters declared after freeze")
	}
	tbl := u.session.Table
	out := make([]symbols.SymbolID, 0, len(params))

	for _, p := range params {
		var flags symbols.SymbolFlags
		if p.IsWildcard {
			flags |= symbols.FlagWildcard
		}
		if p.Synthesized {
			flags |= symbols.FlagExtensionTypeParam | symbols.FlagSynthesized
		}
		id := tbl.Symbols.New(&symbols.Symbol{
			Name:      p.Name,
			Kind:      symbols.SymbolTypeParam,
			Flags:     flags,
			Span:      p.Span,
			Container: container,
		})
		out = append(out, id)
		if p.IsWildcard {
			continue
		}

		if existing, ok := ns.byName[p.Name]; ok {
			prev := tbl.Symbols.Get(existing)
			if prev.Flags.Has(symbols.FlagExtensionTypeParam) && !p.Synthesized {
				// The member's own parameter shadows the copy synthesized
				// from the enclosing extension: rename the copy out of the
				// way and let the member's parameter take the slot.
				prevStr, _ := tbl.Strings.Lookup(prev.Name)
				renamed := tbl.Strings.Intern("#" + prevStr)
				prev.Name = renamed
				ns.byName[renamed] = existing
				ns.order = append(ns.order, renamed)
				tbl.Scopes.Unbind(scope, p.Name)
				tbl.Scopes.Bind(scope, renamed, existing)

				ns.byName[p.Name] = id
				tbl.Scopes.Bind(scope, p.Name, id)
			} else {
				nameStr, _ := tbl.Strings.Lookup(p.Name)
				diag.ReportError(u.session.Reporter, diag.BindDuplicateTypeVariable, p.Span,
					fmt.Sprintf("type variable '%s' is declared more than once", nameStr)).
					WithNote(prev.Span, "first declared here").
					Emit()
				// The first declaration stays authoritative.
			}
		} else {
			ns.byName[p.Name] = id
			ns.order = append(ns.order, p.Name)
			tbl.Scopes.Bind(scope, p.Name, id)
		}

		if !allowOwnerName && owner != source.NoStringID && p.Name == owner {
			nameStr, _ := tbl.Strings.Lookup(p.Name)
			diag.ReportError(u.session.Reporter, diag.BindTypeVarNamedDeclaration, p.Span,
				fmt.Sprintf("type variable '%s' has the same name as its enclosing declaration", nameStr)).
				Emit()
		}
	}
	return out
}
