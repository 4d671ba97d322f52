package binder

import (
	"fmt"

	"loom/internal/diag"
	"loom/internal/source"
	"loom/internal/symbols"
)

// buildNamespace folds a container's pending insertions, strictly in binding
// order, into the finished namespace. Collisions run through the
// duplicate-declaration decision table; the map slot always ends up holding
// the most recently bound symbol, diagnostics or not.
func (u *Unit) buildNamespace(c *Container) *symbols.Namespace {
	tbl := u.session.Table
	arena := tbl.Symbols
	ns := symbols.NewNamespace()

	for _, ins := range c.pending {
		sym := arena.Get(ins.Symbol)
		if sym == nil {
			panic(fmt.Sprintf("binder: pending insertion of missing symbol %d", ins.Symbol))
		}
		if sym.Kind == symbols.SymbolExtension {
			ns.AddExtension(ins.Symbol)
			if sym.Name == source.NoStringID {
				// Unnamed extensions live in the extension set only.
				continue
			}
		}
		if sym.IsStorageSlot() {
			continue
		}

		var lookup func(source.StringID) (symbols.SymbolID, bool)
		var set func(source.StringID, symbols.SymbolID)
		setterBucket := false
		switch {
		case sym.Kind.IsConstructorLike():
			lookup, set = ns.LookupConstructor, ns.SetConstructor
		case sym.IsSetable():
			lookup, set = ns.LookupSetable, ns.SetSetable
			setterBucket = true
		default:
			lookup, set = ns.LookupGetable, ns.SetGetable
		}

		reported := false
		existing, ok := lookup(ins.Name)
		switch {
		case !ok:
			set(ins.Name, ins.Symbol)
		case existing == ins.Symbol:
			// Idempotent re-registration.
		default:
			prev := arena.Get(existing)
			arena.SetNext(ins.Symbol, existing)
			if sym.Flags.Has(symbols.FlagAugment) {
				if setterBucket {
					c.SetterAugmentations[ins.Name] = append(c.SetterAugmentations[ins.Name], ins.Symbol)
				} else {
					c.Augmentations[ins.Name] = append(c.Augmentations[ins.Name], ins.Symbol)
				}
			} else if u.isDuplicate(prev, sym) {
				reported = true
				nameStr, _ := tbl.Strings.Lookup(ins.Name)
				diag.ReportError(u.session.Reporter, diag.BindDuplicateDeclaration, sym.Span,
					fmt.Sprintf("'%s' is already declared in this scope", nameStr)).
					WithNote(prev.Span, "previous declaration here").
					Emit()
			}
			set(ins.Name, ins.Symbol)
		}

		if !reported && ins.Name != source.NoStringID && ins.Name == c.NameID && !sym.Kind.IsConstructorLike() {
			nameStr, _ := tbl.Strings.Lookup(ins.Name)
			builder := diag.ReportWarning(u.session.Reporter, diag.BindMemberNamedDeclaration, sym.Span,
				fmt.Sprintf("member '%s' shares the name of its enclosing declaration", nameStr))
			if owner := arena.Get(c.Symbol); owner != nil {
				builder.WithNote(owner.Span, "enclosing declaration here")
			}
			builder.Emit()
		}
	}

	// Members may not shadow a type parameter of the same declaration.
	for _, ins := range c.pending {
		sym := arena.Get(ins.Symbol)
		if sym.Kind.IsConstructorLike() || sym.IsStorageSlot() {
			continue
		}
		if sym.Kind == symbols.SymbolExtension && sym.Name == source.NoStringID {
			continue
		}
		if paramID, ok := c.TypeParams.Lookup(ins.Name); ok {
			param := arena.Get(paramID)
			nameStr, _ := tbl.Strings.Lookup(ins.Name)
			diag.ReportError(u.session.Reporter, diag.BindMemberConflictsTypeVar, sym.Span,
				fmt.Sprintf("'%s' conflicts with a type parameter of the same name", nameStr)).
				WithNote(param.Span, "type parameter declared here").
				Emit()
		}
	}

	return ns
}

// isDuplicate applies the duplicate-declaration decision table to a
// non-augmenting collision. Augmentations never reach this point.
func (u *Unit) isDuplicate(existing, sym *symbols.Symbol) bool {
	if !existing.Next.IsValid() && isGetterSetterPair(existing, sym) {
		return false
	}
	// Redeclaring a named type is always an error, no matter what got
	// chained in between.
	if u.chainReachesPlainComposite(existing) {
		return true
	}
	if existing.Kind.IsCompositeType() && sym.Kind.IsCompositeType() &&
		isSynthesizedApplication(existing) && isSynthesizedApplication(sym) {
		return false
	}
	return true
}

func isGetterSetterPair(a, b *symbols.Symbol) bool {
	if a.Kind == b.Kind {
		return false
	}
	if a.IsReadOnlyMember() && b.IsWriteOnlyMember() {
		return true
	}
	return a.IsWriteOnlyMember() && b.IsReadOnlyMember()
}

func isSynthesizedApplication(s *symbols.Symbol) bool {
	return s.Kind == symbols.SymbolMixinApplication && s.Flags.Has(symbols.FlagSynthesized)
}

func (u *Unit) chainReachesPlainComposite(head *symbols.Symbol) bool {
	for sym := head; sym != nil; sym = u.session.Table.Symbols.Get(sym.Next) {
		if sym.Kind.IsCompositeType() && sym.Kind != symbols.SymbolMixinApplication {
			return true
		}
		if !sym.Next.IsValid() {
			return false
		}
	}
	return false
}
