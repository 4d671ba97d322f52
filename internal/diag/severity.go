package diag

// Severity ranks how serious a diagnostic is. Bag queries compare against
// these levels, so the order matters.
type Severity uint8

const (
	// SevInfo marks purely informational diagnostics.
	SevInfo Severity = iota
	// SevWarning marks suspicious but recoverable situations.
	SevWarning
	// SevError marks genuine binding failures.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
