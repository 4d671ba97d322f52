package diag

import (
	"loom/internal/source"
)

// Note attaches a secondary location to a diagnostic, typically pointing at
// the earlier declaration involved in a conflict.
type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
