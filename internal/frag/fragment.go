package frag

import (
	"fmt"

	"loom/internal/source"
)

// Kind enumerates the closed set of fragment kinds a parser can produce.
// Binding dispatches over this set exhaustively; adding a kind means
// extending the binder's switch.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindTypedef
	KindClass
	KindMixin
	KindNamedMixinApplication
	KindEnum
	KindExtension
	KindExtensionType
	KindField
	KindMethod
	KindConstructor
	KindFactory
)

func (k Kind) String() string {
	switch k {
	case KindTypedef:
		return "typedef"
	case KindClass:
		return "class"
	case KindMixin:
		return "mixin"
	case KindNamedMixinApplication:
		return "named mixin application"
	case KindEnum:
		return "enum"
	case KindExtension:
		return "extension"
	case KindExtensionType:
		return "extension type"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	case KindFactory:
		return "factory"
	default:
		return "invalid"
	}
}

// IsTypeDeclaration reports whether the kind introduces a declaration that
// owns members of its own.
func (k Kind) IsTypeDeclaration() bool {
	switch k {
	case KindClass, KindMixin, KindNamedMixinApplication, KindEnum, KindExtension, KindExtensionType:
		return true
	default:
		return false
	}
}

// IsMember reports whether the kind can only appear inside a container.
func (k Kind) IsMember() bool {
	switch k {
	case KindField, KindMethod, KindConstructor, KindFactory:
		return true
	default:
		return false
	}
}

// Modifiers encode the syntactic modifier set of a fragment.
type Modifiers uint16

const (
	ModStatic Modifiers = 1 << iota
	ModExternal
	ModAugment
	ModConst
	ModLate
	ModFinal
	ModAbstract
)

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

// Fragment is one parsed declaration piece prior to binding. It is produced
// at most once by the parser and bound at most once; the binder marks it
// consumed and panics on a second bind.
type Fragment struct {
	Kind      Kind
	Name      source.StringID // NoStringID for unnamed extensions and unnamed constructors
	NameSpan  source.Span
	Span      source.Span
	Modifiers Modifiers

	TypeParams []TypeParam

	// Exactly one payload is set, matching Kind.
	Type     *TypeDeclPayload
	Callable *CallablePayload
	Field    *FieldPayload

	bound bool
}

// MarkBound flips the bind-once latch. Binding the same fragment twice is a
// binder invariant violation.
func (f *Fragment) MarkBound() {
	if f.bound {
		panic(fmt.Sprintf("fragment %s bound twice", f.Kind))
	}
	f.bound = true
}

// Bound reports whether the fragment has already been bound.
func (f *Fragment) Bound() bool { return f.bound }

// TypeDeclPayload carries the type-declaration-specific parts of a fragment.
type TypeDeclPayload struct {
	Supertype  *TypeRef
	Mixins     []TypeRef
	Interfaces []TypeRef
	OnType     *TypeRef // extension target type

	// Representation is the primary-constructor field of an extension type.
	Representation *RepresentationField

	// EnumValues lists constant instances in declaration order.
	EnumValues []EnumValue

	// Members are the declaration's member fragments in declaration order.
	Members []*Fragment
}

// RepresentationField describes the single representation slot of an
// extension type declaration.
type RepresentationField struct {
	Name source.StringID
	Type TypeRef
	Span source.Span
}

// EnumValue is one constant instance of an enum declaration.
type EnumValue struct {
	Name source.StringID
	Span source.Span
}

// Accessor distinguishes plain methods from getter/setter declarations,
// which the parser emits as method fragments.
type Accessor uint8

const (
	AccessorNone Accessor = iota
	AccessorGetter
	AccessorSetter
)

// CallablePayload carries parameters and return type for methods,
// constructors and factories.
type CallablePayload struct {
	Accessor   Accessor
	Params     []Param
	ReturnType *TypeRef
	BodyStart  uint32 // byte offset of the body, 0 when absent
}

// Param is a formal parameter of a callable fragment.
type Param struct {
	Name source.StringID
	Type *TypeRef
	Span source.Span
}

// FieldPayload carries the field-specific parts of a fragment.
type FieldPayload struct {
	Type           *TypeRef
	HasInitializer bool
}
