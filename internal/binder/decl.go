package binder

import (
	"fmt"

	"loom/internal/frag"
	"loom/internal/names"
	"loom/internal/source"
	"loom/internal/symbols"
)

func (u *Unit) bindTypeDeclaration(f *frag.Fragment) symbols.SymbolID {
	f.MarkBound()
	switch f.Kind {
	case frag.KindClass:
		return u.bindComposite(f, symbols.SymbolClass, false)
	case frag.KindMixin:
		return u.bindComposite(f, symbols.SymbolMixin, false)
	case frag.KindNamedMixinApplication:
		return u.bindComposite(f, symbols.SymbolMixinApplication, true)
	case frag.KindEnum:
		return u.bindEnum(f)
	case frag.KindExtension:
		return u.bindExtensionLike(f, symbols.SymbolExtension, names.ContainerExtension)
	case frag.KindExtensionType:
		return u.bindExtensionLike(f, symbols.SymbolExtensionType, names.ContainerExtensionType)
	case frag.KindTypedef:
		return u.bindTypedef(f)
	default:
		panic(fmt.Sprintf("binder: %s is not a type declaration", f.Kind))
	}
}

// newDeclaration allocates the primary symbol of a type declaration and its
// container. The symbol arena reallocates as it grows, so callers must write
// late fields through a fresh Get, never through a retained pointer.
func (u *Unit) newDeclaration(f *frag.Fragment, kind symbols.SymbolKind, container names.ContainerKind, nameStr string) (symbols.SymbolID, *Container) {
	tbl := u.session.Table
	declScope := tbl.Scopes.New(symbols.ScopeDeclaration, u.Scope)
	id := tbl.Symbols.New(&symbols.Symbol{
		Name:  f.Name,
		Kind:  kind,
		Flags: memberFlags(f.Modifiers),
		Span:  f.Span,
		Key:   nameStr,
	})
	u.session.reuseHandle(nameStr, id)

	c := newContainer(container, nameStr, f.Name, id, declScope)
	c.declaredParams = f.TypeParams
	u.declareTypeParams(c.TypeParams, declScope, f.TypeParams, f.Name, false, id)
	return id, c
}

// bindComposite binds classes, mixins and named mixin applications. A mixin
// clause is folded left-to-right into anonymous application symbols first;
// the final declaration then extends the last application. For a named
// application the last mixin stays on the declaration itself.
func (u *Unit) bindComposite(f *frag.Fragment, kind symbols.SymbolKind, namedApplication bool) symbols.SymbolID {
	tbl := u.session.Table
	nameStr, _ := tbl.Strings.Lookup(f.Name)
	id, c := u.newDeclaration(f, kind, names.ContainerClassLike, nameStr)
	declScope := c.Scope

	p := f.Type
	var mixins []frag.TypeRef
	if p != nil {
		mixins = p.Mixins
	}

	applications := len(mixins)
	var finalMixin *frag.TypeRef
	if namedApplication && applications > 0 {
		applications--
		finalMixin = &mixins[len(mixins)-1]
	}

	// cur tracks the supertype of the next link in the chain: the declared
	// supertype first, then each synthesized application.
	var cur *symbols.PendingRef
	if applications > 0 {
		superName := "Object"
		if p.Supertype != nil {
			superName, _ = tbl.Strings.Lookup(p.Supertype.Name)
		}
		chainName := "_" + nameStr + "&" + superName
		for i := 0; i < applications; i++ {
			m := mixins[i]
			mixinStr, _ := tbl.Strings.Lookup(m.Name)
			chainName += "&" + mixinStr

			appScope := tbl.Scopes.New(symbols.ScopeMixinApplication, declScope)
			appSuper := cur
			if i == 0 && p.Supertype != nil {
				appSuper = tbl.Scopes.RegisterUnresolved(appScope, p.Supertype.Name, p.Supertype.Span)
			}
			appName := tbl.Strings.Intern(chainName)
			appID := tbl.Symbols.New(&symbols.Symbol{
				Name:      appName,
				Kind:      symbols.SymbolMixinApplication,
				Flags:     symbols.FlagSynthesized,
				Span:      m.Span,
				Key:       chainName,
				Supertype: appSuper,
				Mixin:     tbl.Scopes.RegisterUnresolved(appScope, m.Name, m.Span),
			})
			u.session.reuseHandle(chainName, appID)
			u.root.enqueue(appName, appID)

			// The next link in the chain knows its supertype directly; no
			// deferred lookup is needed.
			cur = &symbols.PendingRef{Name: appName, Span: m.Span, Target: appID}
		}
	}

	var super, mixedIn, onType *symbols.PendingRef
	var interfaces []*symbols.PendingRef
	switch {
	case cur != nil:
		super = cur
	case p != nil && p.Supertype != nil:
		super = tbl.Scopes.RegisterUnresolved(declScope, p.Supertype.Name, p.Supertype.Span)
	}
	if finalMixin != nil {
		mixedIn = tbl.Scopes.RegisterUnresolved(declScope, finalMixin.Name, finalMixin.Span)
	}
	if p != nil {
		for _, iface := range p.Interfaces {
			interfaces = append(interfaces, tbl.Scopes.RegisterUnresolved(declScope, iface.Name, iface.Span))
		}
		if p.OnType != nil {
			onType = tbl.Scopes.RegisterUnresolved(declScope, p.OnType.Name, p.OnType.Span)
		}
		for _, member := range p.Members {
			u.bindMember(member, c)
		}
	}

	ns := u.buildNamespace(c)
	sym := tbl.Symbols.Get(id)
	sym.Supertype = super
	sym.Mixin = mixedIn
	sym.Interfaces = interfaces
	sym.OnType = onType
	sym.Members = ns

	u.root.enqueue(f.Name, id)
	c.TypeParams.Freeze()
	return id
}

// bindEnum binds an enum declaration: the supertype is fixed, every constant
// instance becomes a static const field of the enum itself.
func (u *Unit) bindEnum(f *frag.Fragment) symbols.SymbolID {
	tbl := u.session.Table
	nameStr, _ := tbl.Strings.Lookup(f.Name)
	id, c := u.newDeclaration(f, symbols.SymbolEnum, names.ContainerClassLike, nameStr)
	declScope := c.Scope

	super := tbl.Scopes.RegisterUnresolved(declScope, tbl.Strings.Intern("Enum"), f.NameSpan)
	var interfaces []*symbols.PendingRef

	if p := f.Type; p != nil {
		for _, iface := range p.Interfaces {
			interfaces = append(interfaces, tbl.Scopes.RegisterUnresolved(declScope, iface.Name, iface.Span))
		}
		for _, value := range p.EnumValues {
			valStr, _ := tbl.Strings.Lookup(value.Name)
			key := names.Member(names.ContainerClassLike, nameStr, names.MemberField, true, valStr)
			valueID := tbl.Symbols.New(&symbols.Symbol{
				Name:      value.Name,
				Kind:      symbols.SymbolField,
				Flags:     symbols.FlagStatic | symbols.FlagConst,
				Span:      value.Span,
				Container: id,
				Key:       key.Primary,
			})
			u.session.reuseHandle(key.Primary, valueID)
			c.enqueue(value.Name, valueID)
		}
		for _, member := range p.Members {
			u.bindMember(member, c)
		}
	}

	ns := u.buildNamespace(c)
	sym := tbl.Symbols.Get(id)
	sym.Supertype = super
	sym.Interfaces = interfaces
	sym.Members = ns

	u.root.enqueue(f.Name, id)
	c.TypeParams.Freeze()
	return id
}

// bindExtensionLike binds extension and extension-type declarations. An
// unnamed extension gets a synthesized display name for keying but keeps
// NoStringID as its symbol name, which routes it to the extension set only.
func (u *Unit) bindExtensionLike(f *frag.Fragment, kind symbols.SymbolKind, container names.ContainerKind) symbols.SymbolID {
	tbl := u.session.Table
	nameStr, _ := tbl.Strings.Lookup(f.Name)
	if f.Name == source.NoStringID {
		nameStr = fmt.Sprintf("_extension#%d", u.unnamedExtensions)
		u.unnamedExtensions++
	}
	id, c := u.newDeclaration(f, kind, container, nameStr)
	declScope := c.Scope

	var onType *symbols.PendingRef
	var interfaces []*symbols.PendingRef

	if p := f.Type; p != nil {
		if p.OnType != nil {
			onType = tbl.Scopes.RegisterUnresolved(declScope, p.OnType.Name, p.OnType.Span)
		}
		for _, iface := range p.Interfaces {
			interfaces = append(interfaces, tbl.Scopes.RegisterUnresolved(declScope, iface.Name, iface.Span))
		}
		if r := p.Representation; r != nil {
			repStr, _ := tbl.Strings.Lookup(r.Name)
			key := names.Representation(nameStr, repStr)
			repID := tbl.Symbols.New(&symbols.Symbol{
				Name:       r.Name,
				Kind:       symbols.SymbolField,
				Flags:      symbols.FlagFinal,
				Span:       r.Span,
				Container:  id,
				Key:        key.Primary,
				ReturnType: tbl.Scopes.RegisterUnresolved(declScope, r.Type.Name, r.Type.Span),
			})
			u.session.reuseHandle(key.Primary, repID)
			c.enqueue(r.Name, repID)
		}
		for _, member := range p.Members {
			u.bindMember(member, c)
		}
	}

	ns := u.buildNamespace(c)
	sym := tbl.Symbols.Get(id)
	sym.OnType = onType
	sym.Interfaces = interfaces
	sym.Members = ns

	u.root.enqueue(f.Name, id)
	c.TypeParams.Freeze()
	return id
}

// bindTypedef binds a type alias. The aliased type rides the Supertype slot.
func (u *Unit) bindTypedef(f *frag.Fragment) symbols.SymbolID {
	tbl := u.session.Table
	nameStr, _ := tbl.Strings.Lookup(f.Name)
	id, c := u.newDeclaration(f, symbols.SymbolTypedef, names.ContainerClassLike, nameStr)

	if p := f.Type; p != nil && p.Supertype != nil {
		ref := tbl.Scopes.RegisterUnresolved(c.Scope, p.Supertype.Name, p.Supertype.Span)
		tbl.Symbols.Get(id).Supertype = ref
	}

	u.root.enqueue(f.Name, id)
	c.TypeParams.Freeze()
	return id
}
