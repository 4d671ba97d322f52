// Package handles models stable cross-build symbol identities. A handle is
// an opaque ID minted by a previous compilation and persisted, keyed by the
// canonical mangled name of the symbol it identified. Rebinding an unchanged
// public shape reuses the old handles so the code-generation layer keeps
// binary-artifact identifiers stable across incremental rebuilds.
package handles

// HandleID identifies one reference handle. Zero means "no handle": fresh
// symbols stay unhandled until the build layer mints identities for them.
type HandleID uint32

const NoHandleID HandleID = 0

// IsValid reports whether the ID refers to an issued handle.
func (id HandleID) IsValid() bool { return id != NoHandleID }
