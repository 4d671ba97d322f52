package binder

import (
	"testing"

	"loom/internal/diag"
	"loom/internal/frag"
	"loom/internal/handles"
	"loom/internal/source"
	"loom/internal/symbols"
)

type fixture struct {
	bag  *diag.Bag
	sess *Session
	unit *Unit
}

func newFixture(opts SessionOptions) *fixture {
	bag := diag.NewBag(50)
	opts.Reporter = diag.BagReporter{Bag: bag}
	sess := NewSession(opts)
	return &fixture{bag: bag, sess: sess, unit: sess.NewUnit("test")}
}

func (fx *fixture) name(s string) source.StringID {
	return fx.sess.Table.Strings.Intern(s)
}

func (fx *fixture) countCode(code diag.Code) int {
	n := 0
	for _, d := range fx.bag.Items() {
		if d.Code == code {
			n++
		}
	}
	return n
}

func sp(n uint32) source.Span {
	return source.Span{File: 1, Start: n, End: n + 1}
}

func method(name source.StringID, span source.Span, mods frag.Modifiers, acc frag.Accessor) *frag.Fragment {
	return &frag.Fragment{
		Kind: frag.KindMethod, Name: name, NameSpan: span, Span: span,
		Modifiers: mods,
		Callable:  &frag.CallablePayload{Accessor: acc},
	}
}

func fieldDecl(name source.StringID, span source.Span, mods frag.Modifiers, typ *frag.TypeRef, hasInit bool) *frag.Fragment {
	return &frag.Fragment{
		Kind: frag.KindField, Name: name, NameSpan: span, Span: span,
		Modifiers: mods,
		Field:     &frag.FieldPayload{Type: typ, HasInitializer: hasInit},
	}
}

func classDecl(name source.StringID, span source.Span, payload *frag.TypeDeclPayload) *frag.Fragment {
	if payload == nil {
		payload = &frag.TypeDeclPayload{}
	}
	return &frag.Fragment{
		Kind: frag.KindClass, Name: name, NameSpan: span, Span: span,
		Type: payload,
	}
}

func TestDuplicateMethodDiagnostic(t *testing.T) {
	fx := newFixture(SessionOptions{})
	f := fx.name("f")

	first := method(f, sp(10), 0, frag.AccessorNone)
	second := method(f, sp(20), 0, frag.AccessorNone)
	classID := fx.unit.Bind(classDecl(fx.name("C"), sp(1), &frag.TypeDeclPayload{
		Members: []*frag.Fragment{first, second},
	}))
	fx.unit.Finish()

	if got := fx.countCode(diag.BindDuplicateDeclaration); got != 1 {
		t.Fatalf("duplicate diagnostics = %d, want 1", got)
	}
	d := fx.bag.Items()[0]
	if d.Primary != sp(20) {
		t.Fatalf("primary = %v, want second declaration", d.Primary)
	}
	if len(d.Notes) != 1 || d.Notes[0].Span != sp(10) {
		t.Fatalf("note should point at first declaration, got %v", d.Notes)
	}

	ns := fx.sess.Table.Symbols.Get(classID).Members
	head, ok := ns.LookupGetable(f)
	if !ok {
		t.Fatalf("'f' not lookupable")
	}
	headSym := fx.sess.Table.Symbols.Get(head)
	if headSym.Span != sp(20) {
		t.Fatalf("map should hold the latest symbol, got span %v", headSym.Span)
	}
	if next := fx.sess.Table.Symbols.Get(headSym.Next); next == nil || next.Span != sp(10) {
		t.Fatalf("chain should reach the first declaration")
	}
}

func TestGetterSetterPairCoexists(t *testing.T) {
	fx := newFixture(SessionOptions{})
	x := fx.name("x")

	classID := fx.unit.Bind(classDecl(fx.name("C"), sp(1), &frag.TypeDeclPayload{
		Members: []*frag.Fragment{
			method(x, sp(10), 0, frag.AccessorGetter),
			method(x, sp(20), 0, frag.AccessorSetter),
		},
	}))
	fx.unit.Finish()

	if fx.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", fx.bag.Items())
	}
	ns := fx.sess.Table.Symbols.Get(classID).Members
	getter, ok := ns.LookupGetable(x)
	if !ok || fx.sess.Table.Symbols.Get(getter).Kind != symbols.SymbolGetter {
		t.Fatalf("getable lookup failed")
	}
	setter, ok := ns.LookupSetable(x)
	if !ok || fx.sess.Table.Symbols.Get(setter).Kind != symbols.SymbolSetter {
		t.Fatalf("setable lookup failed")
	}
}

func TestRedeclarationAfterAugmentation(t *testing.T) {
	fx := newFixture(SessionOptions{})
	c := fx.name("C")

	fx.unit.Bind(classDecl(c, sp(10), nil))
	fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindClass, Name: c, NameSpan: sp(20), Span: sp(20),
		Modifiers: frag.ModAugment,
		Type:      &frag.TypeDeclPayload{},
	})
	fx.unit.Bind(classDecl(c, sp(30), nil))
	ns := fx.unit.Finish()

	// The augmentation chains in silently, but the chain still reaches a
	// plain class, so redeclaring the name stays an error.
	if got := fx.countCode(diag.BindDuplicateDeclaration); got != 1 {
		t.Fatalf("duplicate diagnostics = %d, want 1", got)
	}
	var d diag.Diagnostic
	for _, item := range fx.bag.Items() {
		if item.Code == diag.BindDuplicateDeclaration {
			d = item
		}
	}
	if d.Primary != sp(30) {
		t.Fatalf("primary = %v, want the redeclaration", d.Primary)
	}
	head, _ := ns.LookupGetable(c)
	if fx.sess.Table.Symbols.Get(head).Span != sp(30) {
		t.Fatalf("map should hold the latest declaration")
	}
}

func TestLoweredAccessorPairSharesGetableSlot(t *testing.T) {
	fx := newFixture(SessionOptions{})
	w := fx.name("w")

	extID := fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindExtension, Name: fx.name("E"), Span: sp(1),
		Type: &frag.TypeDeclPayload{
			OnType: &frag.TypeRef{Name: fx.name("S"), Span: sp(2)},
			Members: []*frag.Fragment{
				method(w, sp(10), 0, frag.AccessorGetter),
				method(w, sp(20), 0, frag.AccessorSetter),
				method(w, sp(30), 0, frag.AccessorGetter),
			},
		},
	})
	fx.unit.Finish()

	// Lowered accessors all key into the getable map: the getter/setter
	// pair coexists there, the second getter collides with the pair.
	if got := fx.countCode(diag.BindDuplicateDeclaration); got != 1 {
		t.Fatalf("duplicate diagnostics = %d, want 1", got)
	}
	if d := fx.bag.Items()[0]; d.Primary != sp(30) {
		t.Fatalf("primary = %v, want the second getter", d.Primary)
	}

	arena := fx.sess.Table.Symbols
	ns := arena.Get(extID).Members
	if _, ok := ns.LookupSetable(w); ok {
		t.Fatalf("lowered setter must not occupy the setable map")
	}
	head, ok := ns.LookupGetable(w)
	if !ok {
		t.Fatalf("'w' not lookupable")
	}
	second := arena.Get(head)
	if second.Span != sp(30) || second.Kind != symbols.SymbolGetter {
		t.Fatalf("map head should be the second getter, got %s at %v", second.Kind, second.Span)
	}
	setter := arena.Get(second.Next)
	if setter == nil || setter.Kind != symbols.SymbolSetter || !setter.Flags.Has(symbols.FlagLowered) {
		t.Fatalf("chain should reach the lowered setter")
	}
	if first := arena.Get(setter.Next); first == nil || first.Span != sp(10) {
		t.Fatalf("chain should end at the first getter")
	}
}

func TestSynthesizedApplicationsCoexistNamedClassesDoNot(t *testing.T) {
	fx := newFixture(SessionOptions{})
	c := fx.name("C")
	s := fx.name("S")
	m := fx.name("M")

	mixed := func(span source.Span) *frag.Fragment {
		return classDecl(c, span, &frag.TypeDeclPayload{
			Supertype: &frag.TypeRef{Name: s, Span: span},
			Mixins:    []frag.TypeRef{{Name: m, Span: span}},
		})
	}
	fx.unit.Bind(mixed(sp(10)))
	fx.unit.Bind(mixed(sp(20)))
	fx.unit.Finish()

	// Both fragments synthesize an application named _C&S&M; the
	// applications coexist, the named classes collide exactly once.
	if got := fx.countCode(diag.BindDuplicateDeclaration); got != 1 {
		t.Fatalf("duplicate diagnostics = %d, want 1", got)
	}

	appName := fx.name("_C&S&M")
	apps := 0
	for _, ins := range fx.unit.Root().Pending() {
		if ins.Name == appName {
			apps++
		}
	}
	if apps != 2 {
		t.Fatalf("synthesized applications bound = %d, want 2", apps)
	}
}

func TestAugmentationChainOrder(t *testing.T) {
	fx := newFixture(SessionOptions{})
	f := fx.name("f")

	base := fx.unit.Bind(method(f, sp(10), 0, frag.AccessorNone))
	aug1 := fx.unit.Bind(method(f, sp(20), frag.ModAugment, frag.AccessorNone))
	aug2 := fx.unit.Bind(method(f, sp(30), frag.ModAugment, frag.AccessorNone))
	ns := fx.unit.Finish()

	if fx.bag.Len() != 0 {
		t.Fatalf("augmentations must not produce diagnostics: %v", fx.bag.Items())
	}
	head, _ := ns.LookupGetable(f)
	if head != aug2 {
		t.Fatalf("map head = %d, want latest augmentation %d", head, aug2)
	}
	arena := fx.sess.Table.Symbols
	if arena.Get(aug2).Next != aug1 || arena.Get(aug1).Next != base {
		t.Fatalf("chain order broken")
	}
	got := fx.unit.Root().Augmentations[f]
	if len(got) != 2 || got[0] != aug1 || got[1] != aug2 {
		t.Fatalf("augmentation list = %v, want [%d %d]", got, aug1, aug2)
	}
}

func TestMemberSharesDeclarationName(t *testing.T) {
	fx := newFixture(SessionOptions{})
	c := fx.name("C")

	fx.unit.Bind(classDecl(c, sp(1), &frag.TypeDeclPayload{
		Members: []*frag.Fragment{fieldDecl(c, sp(10), 0, nil, false)},
	}))
	fx.unit.Finish()

	if got := fx.countCode(diag.BindMemberNamedDeclaration); got != 1 {
		t.Fatalf("owner-name diagnostics = %d, want 1", got)
	}
	if d := fx.bag.Items()[0]; d.Severity != diag.SevWarning {
		t.Fatalf("severity = %v, want warning", d.Severity)
	}
}

func TestMemberConflictsTypeParameter(t *testing.T) {
	fx := newFixture(SessionOptions{})
	tname := fx.name("T")

	fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindClass, Name: fx.name("C"), Span: sp(1),
		TypeParams: []frag.TypeParam{{Name: tname, Span: sp(2)}},
		Type: &frag.TypeDeclPayload{
			Members: []*frag.Fragment{fieldDecl(tname, sp(10), 0, nil, false)},
		},
	})
	fx.unit.Finish()

	if got := fx.countCode(diag.BindMemberConflictsTypeVar); got != 1 {
		t.Fatalf("conflict diagnostics = %d, want 1", got)
	}
	var d diag.Diagnostic
	for _, item := range fx.bag.Items() {
		if item.Code == diag.BindMemberConflictsTypeVar {
			d = item
		}
	}
	if len(d.Notes) != 1 || d.Notes[0].Span != sp(2) {
		t.Fatalf("note should point at the type parameter, got %v", d.Notes)
	}
}

func TestDuplicateTypeVariable(t *testing.T) {
	fx := newFixture(SessionOptions{})
	tname := fx.name("T")

	fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindClass, Name: fx.name("C"), Span: sp(1),
		TypeParams: []frag.TypeParam{
			{Name: tname, Span: sp(2)},
			{Name: tname, Span: sp(3)},
		},
		Type: &frag.TypeDeclPayload{},
	})
	fx.unit.Finish()

	if got := fx.countCode(diag.BindDuplicateTypeVariable); got != 1 {
		t.Fatalf("duplicate type variable diagnostics = %d, want 1", got)
	}
}

func TestTypeVariableNamedDeclaration(t *testing.T) {
	fx := newFixture(SessionOptions{})
	c := fx.name("C")

	fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindClass, Name: c, Span: sp(1),
		TypeParams: []frag.TypeParam{{Name: c, Span: sp(2)}},
		Type:       &frag.TypeDeclPayload{},
	})
	fx.unit.Finish()

	if got := fx.countCode(diag.BindTypeVarNamedDeclaration); got != 1 {
		t.Fatalf("owner-name type variable diagnostics = %d, want 1", got)
	}
}

func TestWildcardTypeParametersNeverConflict(t *testing.T) {
	fx := newFixture(SessionOptions{})
	w := fx.name("_")

	fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindClass, Name: fx.name("C"), Span: sp(1),
		TypeParams: []frag.TypeParam{
			{Name: w, Span: sp(2), IsWildcard: true},
			{Name: w, Span: sp(3), IsWildcard: true},
		},
		Type: &frag.TypeDeclPayload{},
	})
	fx.unit.Finish()

	if fx.bag.Len() != 0 {
		t.Fatalf("wildcards must not conflict: %v", fx.bag.Items())
	}
}

func TestExtensionTypeParamShadowedByMemberParam(t *testing.T) {
	fx := newFixture(SessionOptions{})
	tname := fx.name("T")

	member := method(fx.name("f"), sp(10), 0, frag.AccessorNone)
	member.TypeParams = []frag.TypeParam{{Name: tname, Span: sp(11)}}

	fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindExtension, Name: fx.name("E"), Span: sp(1),
		TypeParams: []frag.TypeParam{{Name: tname, Span: sp(2)}},
		Type: &frag.TypeDeclPayload{
			OnType:  &frag.TypeRef{Name: fx.name("S"), Span: sp(3)},
			Members: []*frag.Fragment{member},
		},
	})
	fx.unit.Finish()

	if fx.bag.Len() != 0 {
		t.Fatalf("shadowing must not produce diagnostics: %v", fx.bag.Items())
	}

	tree := fx.sess.Table.Scopes
	declScope := tree.Get(fx.unit.Scope).Children[0]
	memberScope := tree.Get(declScope).Children[0]
	names := tree.Get(memberScope).Names

	arena := fx.sess.Table.Symbols
	own, ok := names[tname]
	if !ok || arena.Get(own).Flags.Has(symbols.FlagExtensionTypeParam) {
		t.Fatalf("'T' should resolve to the member's own parameter")
	}
	renamed, ok := names[fx.name("#T")]
	if !ok || !arena.Get(renamed).Flags.Has(symbols.FlagExtensionTypeParam) {
		t.Fatalf("shadowed copy should be retrievable under '#T' only")
	}
}

func TestHandleReuse(t *testing.T) {
	prior := handles.NewIndex()
	prior.Put("C", 3)
	prior.Put("C.f", 5)
	prior.Put("C.field:v", 9)
	prior.Put("C.zzz", 11)

	fx := newFixture(SessionOptions{Prior: prior})
	fMethod := method(fx.name("f"), sp(10), 0, frag.AccessorNone)
	gMethod := method(fx.name("g"), sp(20), 0, frag.AccessorNone)
	vField := fieldDecl(fx.name("v"), sp(30), 0, nil, true)

	classID := fx.unit.Bind(classDecl(fx.name("C"), sp(1), &frag.TypeDeclPayload{
		Members: []*frag.Fragment{fMethod, gMethod, vField},
	}))
	fx.unit.Finish()

	arena := fx.sess.Table.Symbols
	if got := arena.Get(classID).Handle; got != 3 {
		t.Fatalf("class handle = %d, want 3", got)
	}

	bindings := fx.sess.HandleBindings()
	if len(bindings) != 3 {
		t.Fatalf("bindings = %d, want 3", len(bindings))
	}
	wantOrder := []handles.HandleID{3, 5, 9}
	for i, b := range bindings {
		if b.Handle != wantOrder[i] {
			t.Fatalf("binding %d = handle %d, want %d", i, b.Handle, wantOrder[i])
		}
	}

	fID, _ := fx.sess.SymbolForHandle(5)
	if arena.Get(fID).Key != "C.f" {
		t.Fatalf("handle 5 bound to %q", arena.Get(fID).Key)
	}
	// g matched no key: stays fresh.
	gNS := arena.Get(classID).Members
	gID, _ := gNS.LookupGetable(fx.name("g"))
	if arena.Get(gID).Handle.IsValid() {
		t.Fatalf("'g' must not receive a handle")
	}
}

func TestHandleReuseTearOff(t *testing.T) {
	prior := handles.NewIndex()
	prior.Put("E|f", 2)
	prior.Put("E|get#f", 4)

	fx := newFixture(SessionOptions{Prior: prior})
	fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindExtension, Name: fx.name("E"), Span: sp(1),
		Type: &frag.TypeDeclPayload{
			OnType:  &frag.TypeRef{Name: fx.name("S"), Span: sp(2)},
			Members: []*frag.Fragment{method(fx.name("f"), sp(10), 0, frag.AccessorNone)},
		},
	})
	fx.unit.Finish()

	bindings := fx.sess.HandleBindings()
	if len(bindings) != 2 || bindings[0].Handle != 2 || bindings[1].Handle != 4 {
		t.Fatalf("bindings = %v, want primary then tear-off", bindings)
	}
	sym := fx.sess.Table.Symbols.Get(bindings[0].Symbol)
	if sym.Handle != 2 || sym.TearOffHandle != 4 {
		t.Fatalf("handles = (%d, %d), want (2, 4)", sym.Handle, sym.TearOffHandle)
	}
	if !sym.Flags.Has(symbols.FlagLowered) {
		t.Fatalf("extension instance member should be lowered")
	}
}

func TestLateLoweringProducesFiveExtraSlots(t *testing.T) {
	fx := newFixture(SessionOptions{LateLowering: true})
	x := fx.name("x")

	backing := fx.unit.Bind(fieldDecl(x, sp(10), frag.ModLate, &frag.TypeRef{Name: fx.name("T"), Span: sp(11)}, false))
	ns := fx.unit.Finish()

	pending := fx.unit.Root().Pending()
	if len(pending) != 6 {
		t.Fatalf("bound symbols = %d, want backing + 5 slots", len(pending))
	}
	arena := fx.sess.Table.Symbols
	wantKinds := []symbols.SymbolKind{
		symbols.SymbolField,  // _#x
		symbols.SymbolField,  // _#x#isSet
		symbols.SymbolGetter, // _#x#isSet
		symbols.SymbolSetter, // _#x#isSet
		symbols.SymbolGetter, // x
		symbols.SymbolSetter, // x
	}
	for i, ins := range pending {
		if got := arena.Get(ins.Symbol).Kind; got != wantKinds[i] {
			t.Fatalf("slot %d kind = %s, want %s", i, got, wantKinds[i])
		}
	}
	if pending[0].Symbol != backing {
		t.Fatalf("fragment's primary symbol should be the backing field")
	}
	if arena.Get(backing).Key != "field:_#x" {
		t.Fatalf("backing key = %q", arena.Get(backing).Key)
	}

	// Storage slots stay out of the maps; the accessors are the surface.
	if _, ok := ns.LookupGetable(fx.name("_#x")); ok {
		t.Fatalf("backing field must not be lookupable")
	}
	if id, ok := ns.LookupGetable(x); !ok || arena.Get(id).Kind != symbols.SymbolGetter {
		t.Fatalf("'x' should resolve to the late getter")
	}
	if id, ok := ns.LookupSetable(x); !ok || arena.Get(id).Kind != symbols.SymbolSetter {
		t.Fatalf("'x' should resolve to the late setter")
	}
	if fx.bag.Len() != 0 {
		t.Fatalf("lowering must not produce diagnostics: %v", fx.bag.Items())
	}
}

func TestLateLoweringInitializedFinalField(t *testing.T) {
	fx := newFixture(SessionOptions{LateLowering: true})

	fx.unit.Bind(fieldDecl(fx.name("x"), sp(10), frag.ModLate|frag.ModFinal, nil, true))
	fx.unit.Finish()

	// Initialized: no is-set slots. Final and initialized: no setter.
	if got := len(fx.unit.Root().Pending()); got != 2 {
		t.Fatalf("bound symbols = %d, want backing + getter", got)
	}
}

func TestConstructorAtUnitLevelPanics(t *testing.T) {
	fx := newFixture(SessionOptions{})
	defer func() {
		if recover() == nil {
			t.Fatalf("constructor outside declaration context must panic")
		}
	}()
	fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindConstructor, Name: fx.name("c"), Span: sp(1),
		Callable: &frag.CallablePayload{},
	})
}

func TestUnnamedExtensionsIdentityOnly(t *testing.T) {
	fx := newFixture(SessionOptions{})
	unnamed := func(span source.Span) *frag.Fragment {
		return &frag.Fragment{
			Kind: frag.KindExtension, Span: span,
			Type: &frag.TypeDeclPayload{OnType: &frag.TypeRef{Name: fx.name("S"), Span: span}},
		}
	}
	first := fx.unit.Bind(unnamed(sp(10)))
	second := fx.unit.Bind(unnamed(sp(20)))
	ns := fx.unit.Finish()

	if fx.bag.Len() != 0 {
		t.Fatalf("unnamed extensions must not collide: %v", fx.bag.Items())
	}
	exts := ns.Extensions()
	if len(exts) != 2 || exts[0] != first || exts[1] != second {
		t.Fatalf("extension set = %v", exts)
	}
	if len(ns.GetableNames()) != 0 {
		t.Fatalf("unnamed extensions must not appear in the maps")
	}
	arena := fx.sess.Table.Symbols
	if arena.Get(first).Key != "_extension#0" || arena.Get(second).Key != "_extension#1" {
		t.Fatalf("synthesized keys = %q, %q", arena.Get(first).Key, arena.Get(second).Key)
	}
}

func TestEnumBinding(t *testing.T) {
	fx := newFixture(SessionOptions{})
	a := fx.name("a")
	b := fx.name("b")

	enumID := fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindEnum, Name: fx.name("E"), NameSpan: sp(1), Span: sp(1),
		Type: &frag.TypeDeclPayload{
			EnumValues: []frag.EnumValue{{Name: a, Span: sp(2)}, {Name: b, Span: sp(3)}},
		},
	})
	fx.unit.Finish()

	arena := fx.sess.Table.Symbols
	sym := arena.Get(enumID)
	if sym.Kind != symbols.SymbolEnum {
		t.Fatalf("kind = %s", sym.Kind)
	}
	if sym.Supertype == nil || sym.Supertype.Name != fx.name("Enum") {
		t.Fatalf("enum supertype should be the fixed 'Enum' reference")
	}

	order := sym.Members.GetableNames()
	if len(order) != 2 || order[0] != a || order[1] != b {
		t.Fatalf("value order = %v", order)
	}
	valueID, _ := sym.Members.LookupGetable(a)
	value := arena.Get(valueID)
	if value.Kind != symbols.SymbolField || !value.Flags.Has(symbols.FlagStatic) || !value.Flags.Has(symbols.FlagConst) {
		t.Fatalf("enum value should be a static const field")
	}
	if value.Key != "E.field:a" {
		t.Fatalf("value key = %q", value.Key)
	}
}

func TestNamedMixinApplication(t *testing.T) {
	fx := newFixture(SessionOptions{})
	s := fx.name("S")
	m1 := fx.name("M1")
	m2 := fx.name("M2")

	fx.unit.Bind(classDecl(s, sp(1), nil))
	fx.unit.Bind(classDecl(m1, sp(2), nil))
	fx.unit.Bind(classDecl(m2, sp(3), nil))
	appliedID := fx.unit.Bind(&frag.Fragment{
		Kind: frag.KindNamedMixinApplication, Name: fx.name("C"), Span: sp(10),
		Type: &frag.TypeDeclPayload{
			Supertype: &frag.TypeRef{Name: s, Span: sp(11)},
			Mixins:    []frag.TypeRef{{Name: m1, Span: sp(12)}, {Name: m2, Span: sp(13)}},
		},
	})
	fx.unit.Finish()

	arena := fx.sess.Table.Symbols
	applied := arena.Get(appliedID)
	if applied.Kind != symbols.SymbolMixinApplication || applied.Flags.Has(symbols.FlagSynthesized) {
		t.Fatalf("named application must not be synthesized")
	}

	// One anonymous link for M1; M2 stays on the declaration itself.
	if applied.Supertype == nil || !applied.Supertype.Resolved() {
		t.Fatalf("supertype should point directly at the synthesized link")
	}
	app := arena.Get(applied.Supertype.Target)
	if app.Kind != symbols.SymbolMixinApplication || !app.Flags.Has(symbols.FlagSynthesized) {
		t.Fatalf("chain link should be a synthesized application")
	}
	if key := app.Key; key != "_C&S&M1" {
		t.Fatalf("application key = %q", key)
	}

	resolved := fx.sess.ResolveTypes()
	if resolved != 3 {
		t.Fatalf("resolved = %d, want app supertype + app mixin + final mixin", resolved)
	}
	if app.Supertype.Target != fx.unit.mustLookupUnit(t, s) {
		t.Fatalf("application supertype did not resolve to S")
	}
	if app.Mixin.Target != fx.unit.mustLookupUnit(t, m1) {
		t.Fatalf("application mixin did not resolve to M1")
	}
	if applied.Mixin.Target != fx.unit.mustLookupUnit(t, m2) {
		t.Fatalf("final mixin did not resolve to M2")
	}
}

func (u *Unit) mustLookupUnit(t *testing.T, name source.StringID) symbols.SymbolID {
	t.Helper()
	id, ok := u.Namespace.LookupGetable(name)
	if !ok {
		t.Fatalf("name %d not in unit namespace", name)
	}
	return id
}

func TestForwardReferenceResolves(t *testing.T) {
	fx := newFixture(SessionOptions{})
	b := fx.name("B")

	member := fieldDecl(fx.name("next"), sp(10), 0, &frag.TypeRef{Name: b, Span: sp(11)}, false)
	fx.unit.Bind(classDecl(fx.name("A"), sp(1), &frag.TypeDeclPayload{
		Members: []*frag.Fragment{member},
	}))
	classB := fx.unit.Bind(classDecl(b, sp(20), nil))
	fx.unit.Finish()

	if got := fx.sess.ResolveTypes(); got != 1 {
		t.Fatalf("resolved = %d, want 1", got)
	}
	arena := fx.sess.Table.Symbols
	classA := arena.Get(fx.unit.mustLookupUnit(t, fx.name("A")))
	fieldID, _ := classA.Members.LookupGetable(fx.name("next"))
	if ref := arena.Get(fieldID).ReturnType; ref == nil || ref.Target != classB {
		t.Fatalf("forward reference did not resolve to B")
	}
}

func TestBindAfterFinishPanics(t *testing.T) {
	fx := newFixture(SessionOptions{})
	fx.unit.Finish()
	defer func() {
		if recover() == nil {
			t.Fatalf("Bind after Finish must panic")
		}
	}()
	fx.unit.Bind(classDecl(fx.name("C"), sp(1), nil))
}

func TestFragmentBoundTwicePanics(t *testing.T) {
	fx := newFixture(SessionOptions{})
	f := classDecl(fx.name("C"), sp(1), nil)
	fx.unit.Bind(f)
	defer func() {
		if recover() == nil {
			t.Fatalf("second bind of the same fragment must panic")
		}
	}()
	fx.unit.Bind(f)
}
