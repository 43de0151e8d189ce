package diag

import (
	"unitd/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// FixKind classifies a fix for UI listings.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
)

// FixApplicability is the producer's confidence that a fix is correct.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (k FixKind) String() string {
	if k == FixKindRefactor {
		return "refactor"
	}
	return "quickfix"
}

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// TextEdit replaces Span with NewText. OldText, when set, guards the edit:
// the fix engine refuses to apply it if the current text differs.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Check    string // pluggable check name; empty for compiler diagnostics
	Notes    []Note
	Fixes    []Fix
}

// FromCheck reports whether a pluggable check produced d.
func (d *Diagnostic) FromCheck() bool {
	return d.Check != ""
}
