package symbols

import (
	"loom/internal/handles"
	"loom/internal/source"
)

// SymbolKind classifies the semantic meaning of a bound declaration.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolClass
	SymbolMixin
	SymbolMixinApplication
	SymbolEnum
	SymbolExtension
	SymbolExtensionType
	SymbolTypedef
	SymbolField
	SymbolGetter
	SymbolSetter
	SymbolMethod
	SymbolConstructor
	SymbolFactory
	SymbolTypeParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolClass:
		return "class"
	case SymbolMixin:
		return "mixin"
	case SymbolMixinApplication:
		return "mixin application"
	case SymbolEnum:
		return "enum"
	case SymbolExtension:
		return "extension"
	case SymbolExtensionType:
		return "extension type"
	case SymbolTypedef:
		return "typedef"
	case SymbolField:
		return "field"
	case SymbolGetter:
		return "getter"
	case SymbolSetter:
		return "setter"
	case SymbolMethod:
		return "method"
	case SymbolConstructor:
		return "constructor"
	case SymbolFactory:
		return "factory"
	case SymbolTypeParam:
		return "type parameter"
	default:
		return "invalid"
	}
}

// IsCompositeType reports whether the kind is a composite-type declaration.
func (k SymbolKind) IsCompositeType() bool {
	switch k {
	case SymbolClass, SymbolMixin, SymbolMixinApplication, SymbolEnum, SymbolExtensionType:
		return true
	default:
		return false
	}
}

// IsConstructorLike reports whether the kind routes to the constructor map.
func (k SymbolKind) IsConstructorLike() bool {
	return k == SymbolConstructor || k == SymbolFactory
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	FlagStatic SymbolFlags = 1 << iota
	FlagAugment
	// FlagSynthesized marks symbols the binder invented: anonymous
	// mixin applications and deferred-initialization slots.
	FlagSynthesized
	FlagConst
	FlagLate
	FlagFinal
	FlagExternal
	// FlagLowered marks extension/extension-type instance members that were
	// lowered to plain functions taking the receiver explicitly.
	FlagLowered
	// FlagExtensionTypeParam marks a type parameter copied from an enclosing
	// extension onto one of its lowered members.
	FlagExtensionTypeParam
	FlagWildcard
)

func (f SymbolFlags) Has(flag SymbolFlags) bool { return f&flag != 0 }

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f.Has(FlagStatic) {
		labels = append(labels, "static")
	}
	if f.Has(FlagAugment) {
		labels = append(labels, "augment")
	}
	if f.Has(FlagSynthesized) {
		labels = append(labels, "synthesized")
	}
	if f.Has(FlagConst) {
		labels = append(labels, "const")
	}
	if f.Has(FlagLate) {
		labels = append(labels, "late")
	}
	if f.Has(FlagFinal) {
		labels = append(labels, "final")
	}
	if f.Has(FlagExternal) {
		labels = append(labels, "external")
	}
	if f.Has(FlagLowered) {
		labels = append(labels, "lowered")
	}
	if f.Has(FlagWildcard) {
		labels = append(labels, "wildcard")
	}
	return labels
}

// Symbol is the bound, queryable representation of one declaration or
// member. It is derived from exactly one fragment; Next chains augmentations
// of the same logical symbol as arena indices, newest pointing at previous.
type Symbol struct {
	Name  source.StringID
	Kind  SymbolKind
	Flags SymbolFlags
	Span  source.Span

	// Container is the enclosing declaration, NoSymbolID for unit level.
	Container SymbolID

	// Next links the previously bound symbol of the same name/slot. Set at
	// most once, when a later fragment augments or shadows this slot.
	Next SymbolID

	// Handle is the reference handle reused from a prior compilation, or
	// NoHandleID for fresh symbols. TearOffHandle is the companion handle for
	// members that carry a tear-off key.
	Handle        handles.HandleID
	TearOffHandle handles.HandleID

	// Key and TearOffKey are the canonical mangled names produced by the
	// name scheme. TearOffKey is empty when the member has no companion.
	Key        string
	TearOffKey string

	// Type references registered against the scope tree; resolved in the
	// deferred resolution pass. ReturnType doubles as the declared type of
	// field symbols.
	Supertype  *PendingRef
	Mixin      *PendingRef
	Interfaces []*PendingRef
	OnType     *PendingRef
	ReturnType *PendingRef
	Params     []*PendingRef

	// Members is the nested namespace of a type declaration, nil otherwise.
	Members *Namespace
}

// IsGetable reports whether the symbol belongs in the getable map. Lowered
// extension setters count: they are keyed as ordinary functions.
func (s *Symbol) IsGetable() bool {
	if s.Kind.IsConstructorLike() || s.Kind == SymbolTypeParam {
		return false
	}
	if s.Kind == SymbolSetter {
		return s.Flags.Has(FlagLowered)
	}
	return true
}

// IsSetable reports whether the symbol belongs in the setable map.
func (s *Symbol) IsSetable() bool {
	return s.Kind == SymbolSetter && !s.Flags.Has(FlagLowered)
}

// IsReadOnlyMember reports whether the symbol only provides read access:
// getters and final/const fields.
func (s *Symbol) IsReadOnlyMember() bool {
	if s.Kind == SymbolGetter {
		return true
	}
	return s.Kind == SymbolField && s.Flags.Has(FlagFinal|FlagConst)
}

// IsWriteOnlyMember reports whether the symbol only provides write access.
func (s *Symbol) IsWriteOnlyMember() bool {
	return s.Kind == SymbolSetter
}

// IsStorageSlot reports whether the symbol is a lowered backing-storage
// field. Storage slots keep their pending-insertion and handle bookkeeping
// but are reached through their accessor slots, never through the namespace
// maps.
func (s *Symbol) IsStorageSlot() bool {
	return s.Kind == SymbolField && s.Flags.Has(FlagSynthesized) && s.Flags.Has(FlagLate)
}
