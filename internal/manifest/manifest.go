// Package manifest loads unit manifests: TOML files describing the
// declaration fragments of one compilation unit. Manifests stand in for a
// real parser front end; they carry the same information a parser would
// produce, in declaration order, with spans pointing into the manifest file
// itself.
package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"loom/internal/diag"
	"loom/internal/frag"
	"loom/internal/source"
)

// Unit is one parsed unit manifest.
type Unit struct {
	Name      string
	Path      string
	File      source.FileID
	Fragments []*frag.Fragment
}

type rawUnit struct {
	Unit      string        `toml:"unit"`
	Fragments []rawFragment `toml:"fragments"`
}

type rawFragment struct {
	Kind       string   `toml:"kind"`
	Name       string   `toml:"name"`
	Span       []uint32 `toml:"span"`
	Modifiers  []string `toml:"modifiers"`
	TypeParams []string `toml:"type_params"`

	Extends        string             `toml:"extends"`
	With           []string           `toml:"with"`
	Implements     []string           `toml:"implements"`
	On             string             `toml:"on"`
	Representation *rawRepresentation `toml:"representation"`
	Values         []string           `toml:"values"`
	Members        []rawFragment      `toml:"members"`

	Returns string     `toml:"returns"`
	Params  []rawParam `toml:"params"`

	Type        string `toml:"type"`
	Initialized bool   `toml:"initialized"`
}

type rawRepresentation struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type rawParam struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Load reads and converts a unit manifest. TOML-level failures are returned
// as errors; per-fragment problems become diagnostics and the offending
// fragment is skipped, so one bad entry never sinks the unit.
func Load(path string, fset *source.FileSet, strings *source.Interner, rep diag.Reporter) (*Unit, error) {
	fileID, err := fset.Load(path)
	if err != nil {
		diag.ReportError(rep, diag.IOLoadFileError, source.Span{},
			fmt.Sprintf("failed to load %s: %v", path, err)).Emit()
		return nil, err
	}
	return Parse(path, fileID, fset.Get(fileID).Content, strings, rep)
}

// Parse converts already-loaded manifest bytes. The interner is not safe for
// concurrent use; callers parallelize file reads, not parsing.
func Parse(path string, fileID source.FileID, data []byte, strings *source.Interner, rep diag.Reporter) (*Unit, error) {
	var raw rawUnit
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	name := raw.Unit
	if name == "" {
		name = path
	}
	unit := &Unit{Name: name, Path: path, File: fileID}

	conv := converter{file: fileID, strings: strings, rep: rep}
	for i := range raw.Fragments {
		if f := conv.fragment(&raw.Fragments[i], false); f != nil {
			unit.Fragments = append(unit.Fragments, f)
		}
	}
	if len(unit.Fragments) == 0 {
		diag.ReportWarning(rep, diag.ManifestNoFragment, source.Span{File: fileID},
			fmt.Sprintf("unit '%s' declares no fragments", name)).Emit()
	}
	return unit, nil
}

type converter struct {
	file    source.FileID
	strings *source.Interner
	rep     diag.Reporter
}

func (c *converter) fragment(raw *rawFragment, member bool) *frag.Fragment {
	span, ok := c.span(raw.Span)
	if !ok {
		return nil
	}

	kind, accessor, ok := fragmentKind(raw.Kind)
	if !ok {
		diag.ReportError(c.rep, diag.ManifestBadKind, span,
			fmt.Sprintf("unknown fragment kind '%s'", raw.Kind)).Emit()
		return nil
	}
	if member && !kind.IsMember() {
		diag.ReportError(c.rep, diag.ManifestBadMember, span,
			fmt.Sprintf("'%s' fragments cannot be members", raw.Kind)).Emit()
		return nil
	}
	if !member && (kind == frag.KindConstructor || kind == frag.KindFactory) {
		diag.ReportError(c.rep, diag.ManifestBadMember, span,
			fmt.Sprintf("'%s' fragments require an enclosing declaration", raw.Kind)).Emit()
		return nil
	}

	f := &frag.Fragment{
		Kind:      kind,
		Name:      c.intern(raw.Name),
		NameSpan:  span,
		Span:      span,
		Modifiers: c.modifiers(raw.Modifiers),
	}
	for _, tp := range raw.TypeParams {
		f.TypeParams = append(f.TypeParams, frag.TypeParam{
			Name:       c.intern(tp),
			Span:       span,
			IsWildcard: tp == "_",
		})
	}

	switch {
	case kind.IsTypeDeclaration():
		f.Type = c.typePayload(raw, span)
	case kind == frag.KindField:
		f.Field = &frag.FieldPayload{
			Type:           c.typeRef(raw.Type, span),
			HasInitializer: raw.Initialized,
		}
	default:
		callable := &frag.CallablePayload{
			Accessor:   accessor,
			ReturnType: c.typeRef(raw.Returns, span),
		}
		for _, p := range raw.Params {
			callable.Params = append(callable.Params, frag.Param{
				Name: c.intern(p.Name),
				Type: c.typeRef(p.Type, span),
				Span: span,
			})
		}
		f.Callable = callable
	}
	return f
}

func (c *converter) typePayload(raw *rawFragment, span source.Span) *frag.TypeDeclPayload {
	p := &frag.TypeDeclPayload{
		Supertype: c.typeRef(raw.Extends, span),
		OnType:    c.typeRef(raw.On, span),
	}
	for _, m := range raw.With {
		if ref := c.typeRef(m, span); ref != nil {
			p.Mixins = append(p.Mixins, *ref)
		}
	}
	for _, iface := range raw.Implements {
		if ref := c.typeRef(iface, span); ref != nil {
			p.Interfaces = append(p.Interfaces, *ref)
		}
	}
	if r := raw.Representation; r != nil {
		rep := &frag.RepresentationField{Name: c.intern(r.Name), Span: span}
		if ref := c.typeRef(r.Type, span); ref != nil {
			rep.Type = *ref
		}
		p.Representation = rep
	}
	for _, v := range raw.Values {
		p.EnumValues = append(p.EnumValues, frag.EnumValue{Name: c.intern(v), Span: span})
	}
	for i := range raw.Members {
		if member := c.fragment(&raw.Members[i], true); member != nil {
			p.Members = append(p.Members, member)
		}
	}
	return p
}

func (c *converter) span(values []uint32) (source.Span, bool) {
	switch len(values) {
	case 0:
		return source.Span{File: c.file}, true
	case 2:
		if values[1] < values[0] {
			break
		}
		return source.Span{File: c.file, Start: values[0], End: values[1]}, true
	}
	diag.ReportError(c.rep, diag.ManifestBadSpan, source.Span{File: c.file},
		fmt.Sprintf("span must be [start, end], got %v", values)).Emit()
	return source.Span{}, false
}

func (c *converter) intern(s string) source.StringID {
	if s == "" {
		return source.NoStringID
	}
	return c.strings.Intern(s)
}

func (c *converter) typeRef(name string, span source.Span) *frag.TypeRef {
	if name == "" {
		return nil
	}
	return &frag.TypeRef{Name: c.strings.Intern(name), Span: span}
}

func (c *converter) modifiers(mods []string) frag.Modifiers {
	var out frag.Modifiers
	for _, m := range mods {
		switch m {
		case "static":
			out |= frag.ModStatic
		case "external":
			out |= frag.ModExternal
		case "augment":
			out |= frag.ModAugment
		case "const":
			out |= frag.ModConst
		case "late":
			out |= frag.ModLate
		case "final":
			out |= frag.ModFinal
		case "abstract":
			out |= frag.ModAbstract
		}
	}
	return out
}

func fragmentKind(kind string) (frag.Kind, frag.Accessor, bool) {
	switch kind {
	case "typedef":
		return frag.KindTypedef, frag.AccessorNone, true
	case "class":
		return frag.KindClass, frag.AccessorNone, true
	case "mixin":
		return frag.KindMixin, frag.AccessorNone, true
	case "mixin-application":
		return frag.KindNamedMixinApplication, frag.AccessorNone, true
	case "enum":
		return frag.KindEnum, frag.AccessorNone, true
	case "extension":
		return frag.KindExtension, frag.AccessorNone, true
	case "extension-type":
		return frag.KindExtensionType, frag.AccessorNone, true
	case "field":
		return frag.KindField, frag.AccessorNone, true
	case "method":
		return frag.KindMethod, frag.AccessorNone, true
	case "getter":
		return frag.KindMethod, frag.AccessorGetter, true
	case "setter":
		return frag.KindMethod, frag.AccessorSetter, true
	case "constructor":
		return frag.KindConstructor, frag.AccessorNone, true
	case "factory":
		return frag.KindFactory, frag.AccessorNone, true
	default:
		return frag.KindInvalid, frag.AccessorNone, false
	}
}
