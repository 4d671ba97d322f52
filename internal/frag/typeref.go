package frag

import (
	"loom/internal/source"
)

// TypeRef is a purely syntactic reference to a type by name. Resolution
// happens later against the scope tree; the fragment itself never learns
// what the name bound to.
type TypeRef struct {
	Name source.StringID
	Span source.Span
}

// TypeParam is one declared type parameter of a fragment. Synthesized marks
// parameters copied from an enclosing extension onto its lowered members.
type TypeParam struct {
	Name        source.StringID
	Span        source.Span
	IsWildcard  bool
	Synthesized bool
}
