// Package names implements the canonical name scheme of the binder: a pure
// mapping from (container kind, member kind, instance/static, raw name) to
// the mangled keys used for namespace bookkeeping and reference-handle
// reuse. The scheme is the single source of truth for how members are keyed;
// the incremental-build layer persists these keys, so any change here
// invalidates every previously issued handle.
package names

// ContainerKind classifies the enclosing scope a member is declared in.
type ContainerKind uint8

const (
	ContainerUnit ContainerKind = iota
	ContainerClassLike
	ContainerExtension
	ContainerExtensionType
)

func (c ContainerKind) String() string {
	switch c {
	case ContainerUnit:
		return "unit"
	case ContainerClassLike:
		return "class-like"
	case ContainerExtension:
		return "extension"
	case ContainerExtensionType:
		return "extension type"
	default:
		return "invalid"
	}
}

// IsExtensionLike reports whether instance members of the container are
// lowered to plain functions taking the receiver explicitly.
func (c ContainerKind) IsExtensionLike() bool {
	return c == ContainerExtension || c == ContainerExtensionType
}

// MemberKind classifies the member being keyed.
type MemberKind uint8

const (
	MemberGetter MemberKind = iota
	MemberSetter
	MemberMethod
	MemberField
	MemberConstructor
	MemberFactory
)

func (m MemberKind) String() string {
	switch m {
	case MemberGetter:
		return "getter"
	case MemberSetter:
		return "setter"
	case MemberMethod:
		return "method"
	case MemberField:
		return "field"
	case MemberConstructor:
		return "constructor"
	case MemberFactory:
		return "factory"
	default:
		return "invalid"
	}
}

// Key is the canonical identity of a member. Primary is the call-site /
// lookup key; TearOff, when non-empty, keys the companion used when the
// member is referenced as a value rather than invoked.
type Key struct {
	Primary string
	TearOff string
}

// Member computes the canonical key for a member declaration.
//
// Instance members of extension-like containers are lowered to plain
// functions taking the receiver explicitly, so their keys live in the
// function ("E|...") namespace: methods are "E|name" with an "E|get#name"
// tear-off, getters are "E|get#name", and setters are "E|set#name" (a
// lowered setter is not a true setter and shares the getter bucket).
// Everything else keys as "<container>.<marker><name>" with getters and
// setters marked "get:" / "set:".
func Member(container ContainerKind, containerName string, member MemberKind, isStatic bool, name string) Key {
	if member == MemberConstructor || member == MemberFactory {
		return Constructor(containerName, name)
	}

	if container.IsExtensionLike() && !isStatic && containerName != "" {
		switch member {
		case MemberMethod:
			return Key{
				Primary: containerName + "|" + name,
				TearOff: containerName + "|get#" + name,
			}
		case MemberGetter:
			return Key{Primary: containerName + "|get#" + name}
		case MemberSetter:
			return Key{Primary: containerName + "|set#" + name}
		case MemberField:
			return Key{Primary: containerName + "|field#" + name}
		}
	}

	var marker string
	switch member {
	case MemberGetter:
		marker = "get:"
	case MemberSetter:
		marker = "set:"
	case MemberField:
		marker = "field:"
	}
	return Key{Primary: qualify(containerName, marker+name)}
}

// Constructor computes the per-declaration key for a (possibly unnamed)
// constructor or factory, plus its dedicated tear-off companion key.
func Constructor(containerName, name string) Key {
	primary := "ctor:" + containerName + "." + name
	return Key{
		Primary: primary,
		TearOff: primary + "#tearoff",
	}
}

// Representation computes the synthesized-field key variant used for the
// primary-constructor field of an extension type declaration.
func Representation(containerName, name string) Key {
	return Key{Primary: containerName + "|field#" + name}
}

func qualify(containerName, name string) string {
	if containerName == "" {
		return name
	}
	return containerName + "." + name
}
