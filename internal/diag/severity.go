package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

// The zero Severity is invalid: a literal without one is not silently
// treated as suppressed.
const (
	// SevIgnored marks a diagnostic demoted by policy (e.g. a NOLINT comment).
	SevIgnored Severity = iota + 1
	// SevNote is attached context for another diagnostic.
	SevNote
	SevWarning
	SevError
	// SevFatal stops the build after it is reported.
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevIgnored:
		return "IGNORED"
	case SevNote:
		return "NOTE"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// IsError reports whether s is Error or Fatal.
func (s Severity) IsError() bool {
	return s >= SevError
}
