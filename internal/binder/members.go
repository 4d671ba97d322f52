package binder

import (
	"fmt"

	"loom/internal/frag"
	"loom/internal/names"
	"loom/internal/symbols"
)

// bindMember binds a field, method, constructor or factory fragment into its
// enclosing container. Constructor-like fragments outside a declaration
// context are a parser/binder contract violation, not a user error.
func (u *Unit) bindMember(f *frag.Fragment, c *Container) symbols.SymbolID {
	f.MarkBound()
	if (f.Kind == frag.KindConstructor || f.Kind == frag.KindFactory) && c.Kind == names.ContainerUnit {
		panic(fmt.Sprintf("binder: %s fragment outside declaration context", f.Kind))
	}

	if f.Kind == frag.KindField && f.Modifiers.Has(frag.ModLate) && u.session.lateLowering {
		return u.lowerLateField(f, c)
	}

	tbl := u.session.Table
	nameStr, _ := tbl.Strings.Lookup(f.Name)
	isStatic := f.Modifiers.Has(frag.ModStatic)

	kind, memberKind := memberKinds(f)
	flags := memberFlags(f.Modifiers)
	lowered := c.Kind.IsExtensionLike() && !isStatic && !kind.IsConstructorLike()
	if lowered {
		flags |= symbols.FlagLowered
	}
	key := names.Member(c.Kind, c.Name, memberKind, isStatic, nameStr)

	id := tbl.Symbols.New(&symbols.Symbol{
		Name:       f.Name,
		Kind:       kind,
		Flags:      flags,
		Span:       f.Span,
		Container:  c.Symbol,
		Key:        key.Primary,
		TearOffKey: key.TearOff,
	})

	// Lowered instance members carry copies of the enclosing declaration's
	// type parameters, so they need a scope of their own even without
	// parameters of their own.
	refScope := c.Scope
	if len(f.TypeParams) > 0 || (lowered && len(c.declaredParams) > 0) {
		refScope = tbl.Scopes.New(symbols.ScopeMember, c.Scope)
		tpns := NewTypeParamNamespace()
		if lowered {
			copies := make([]frag.TypeParam, len(c.declaredParams))
			for i, p := range c.declaredParams {
				p.Synthesized = true
				copies[i] = p
			}
			u.declareTypeParams(tpns, refScope, copies, f.Name, true, id)
		}
		u.declareTypeParams(tpns, refScope, f.TypeParams, f.Name, true, id)
		tpns.Freeze()
	}

	var returnType *symbols.PendingRef
	var params []*symbols.PendingRef
	switch {
	case f.Callable != nil:
		if f.Callable.ReturnType != nil {
			returnType = tbl.Scopes.RegisterUnresolved(refScope, f.Callable.ReturnType.Name, f.Callable.ReturnType.Span)
		}
		for _, param := range f.Callable.Params {
			if param.Type != nil {
				params = append(params, tbl.Scopes.RegisterUnresolved(refScope, param.Type.Name, param.Type.Span))
			}
		}
	case f.Field != nil:
		if f.Field.Type != nil {
			returnType = tbl.Scopes.RegisterUnresolved(refScope, f.Field.Type.Name, f.Field.Type.Span)
		}
	}
	sym := tbl.Symbols.Get(id)
	sym.ReturnType = returnType
	sym.Params = params

	u.session.reuseHandle(key.Primary, id)
	if key.TearOff != "" {
		u.session.reuseTearOff(key.TearOff, id)
	}
	c.enqueue(f.Name, id)
	return id
}

// lowerLateField splits one deferred-initialization field into a backing
// field plus synthetic accessor slots: an is-set flag field with its getter
// and setter when the field has no initializer, a late-access getter, and a
// late-access setter unless the field is final and already initialized.
// Every slot gets its own canonical key, its own handle lookup and its own
// pending insertion; the storage fields never surface in the namespace maps.
func (u *Unit) lowerLateField(f *frag.Fragment, c *Container) symbols.SymbolID {
	tbl := u.session.Table
	nameStr, _ := tbl.Strings.Lookup(f.Name)
	isStatic := f.Modifiers.Has(frag.ModStatic)
	lowered := c.Kind.IsExtensionLike() && !isStatic

	var fieldType *frag.TypeRef
	hasInitializer := false
	if f.Field != nil {
		fieldType = f.Field.Type
		hasInitializer = f.Field.HasInitializer
	}

	slot := func(kind symbols.SymbolKind, memberKind names.MemberKind, rawName string, flags symbols.SymbolFlags, typed bool) symbols.SymbolID {
		if lowered {
			flags |= symbols.FlagLowered
		}
		key := names.Member(c.Kind, c.Name, memberKind, isStatic, rawName)
		nameID := tbl.Strings.Intern(rawName)
		var returnType *symbols.PendingRef
		if typed && fieldType != nil {
			returnType = tbl.Scopes.RegisterUnresolved(c.Scope, fieldType.Name, fieldType.Span)
		}
		id := tbl.Symbols.New(&symbols.Symbol{
			Name:       nameID,
			Kind:       kind,
			Flags:      flags,
			Span:       f.Span,
			Container:  c.Symbol,
			Key:        key.Primary,
			TearOffKey: key.TearOff,
			ReturnType: returnType,
		})
		u.session.reuseHandle(key.Primary, id)
		if key.TearOff != "" {
			u.session.reuseTearOff(key.TearOff, id)
		}
		c.enqueue(nameID, id)
		return id
	}

	var static symbols.SymbolFlags
	if isStatic {
		static = symbols.FlagStatic
	}

	backing := slot(symbols.SymbolField, names.MemberField, names.LateBackingName(nameStr),
		memberFlags(f.Modifiers)|symbols.FlagSynthesized, true)

	if !hasInitializer {
		isSetRaw := names.LateIsSetName(nameStr)
		slot(symbols.SymbolField, names.MemberField, isSetRaw, static|symbols.FlagSynthesized|symbols.FlagLate, false)
		slot(symbols.SymbolGetter, names.MemberGetter, isSetRaw, static|symbols.FlagSynthesized, false)
		slot(symbols.SymbolSetter, names.MemberSetter, isSetRaw, static|symbols.FlagSynthesized, false)
	}

	slot(symbols.SymbolGetter, names.MemberGetter, nameStr, static|symbols.FlagSynthesized, true)
	if !(f.Modifiers.Has(frag.ModFinal) && hasInitializer) {
		slot(symbols.SymbolSetter, names.MemberSetter, nameStr, static|symbols.FlagSynthesized, false)
	}
	return backing
}

func memberKinds(f *frag.Fragment) (symbols.SymbolKind, names.MemberKind) {
	switch f.Kind {
	case frag.KindField:
		return symbols.SymbolField, names.MemberField
	case frag.KindMethod:
		if f.Callable != nil {
			switch f.Callable.Accessor {
			case frag.AccessorGetter:
				return symbols.SymbolGetter, names.MemberGetter
			case frag.AccessorSetter:
				return symbols.SymbolSetter, names.MemberSetter
			}
		}
		return symbols.SymbolMethod, names.MemberMethod
	case frag.KindConstructor:
		return symbols.SymbolConstructor, names.MemberConstructor
	case frag.KindFactory:
		return symbols.SymbolFactory, names.MemberFactory
	default:
		panic(fmt.Sprintf("binder: %s is not a member kind", f.Kind))
	}
}

func memberFlags(m frag.Modifiers) symbols.SymbolFlags {
	var flags symbols.SymbolFlags
	if m.Has(frag.ModStatic) {
		flags |= symbols.FlagStatic
	}
	if m.Has(frag.ModExternal) {
		flags |= symbols.FlagExternal
	}
	if m.Has(frag.ModAugment) {
		flags |= symbols.FlagAugment
	}
	if m.Has(frag.ModConst) {
		flags |= symbols.FlagConst
	}
	if m.Has(frag.ModLate) {
		flags |= symbols.FlagLate
	}
	if m.Has(frag.ModFinal) {
		flags |= symbols.FlagFinal
	}
	return flags
}
