package names

// Deferred-initialization lowering splits one late field into a backing
// field plus synthetic accessor slots. The raw names below feed Member for
// per-slot canonical keys, so each slot participates in handle reuse
// independently.

// LateBackingName is the raw name of the lowered backing field.
func LateBackingName(name string) string {
	return "_#" + name
}

// LateIsSetName is the raw name of the is-set flag slots, present only when
// the field has no initializer.
func LateIsSetName(name string) string {
	return "_#" + name + "#isSet"
}
