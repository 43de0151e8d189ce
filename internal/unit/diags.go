package unit

import (
	"unitd/internal/diag"
	"unitd/internal/includefixer"
	"unitd/internal/session"
	"unitd/internal/source"
	"unitd/internal/tidy"
)

// diagStore is the consumer of the session's diagnostic engine. Every
// diagnostic goes through escalation, suppression, folding and repair, in
// that order, and is kept even when it ends up Ignored.
type diagStore struct {
	s     *session.Session
	tidy  *tidy.Context
	fixer *includefixer.Fixer

	out      []diag.Diagnostic
	lastFile source.FileID // original file of out[len(out)-1]
}

var _ diag.Reporter = (*diagStore)(nil)

func (st *diagStore) Report(d diag.Diagnostic) {
	// Escalation wins over NOLINT: a check listed in WarningsAsErrors
	// cannot be silenced by a comment.
	switch {
	case st.escalates(d):
		d.Severity = diag.SevError
	case st.suppressed(d):
		d.Severity = diag.SevIgnored
	}

	if d.Severity == diag.SevNote && len(st.out) > 0 && st.lastFile == d.Primary.File {
		last := &st.out[len(st.out)-1]
		last.Notes = append(last.Notes, diag.Note{Span: d.Primary, Msg: d.Message})
		last.Notes = append(last.Notes, d.Notes...)
		return
	}

	orig := d.Primary.File
	if folded, ok := st.s.Fold(d); ok {
		d = folded
	} else if st.fixer != nil {
		d.Fixes = append(d.Fixes, st.fixer.Fix(d)...)
	}
	st.out = append(st.out, d)
	st.lastFile = orig
}

func (st *diagStore) escalates(d diag.Diagnostic) bool {
	return d.Check != "" && d.Severity == diag.SevWarning && st.tidy != nil && st.tidy.TreatAsError(d.Check)
}

// suppressed looks at the spelling line only; findings reached through a
// macro expansion are judged where they were reported.
func (st *diagStore) suppressed(d diag.Diagnostic) bool {
	if d.Check == "" || d.Primary.File != st.s.Main().ID {
		return false
	}
	return tidy.IsSuppressed(st.s.Main(), d.Primary.Start, d.Check)
}

// Diagnostics returns what was stored so far.
func (st *diagStore) Diagnostics() []diag.Diagnostic { return st.out }
