package session

import (
	"unitd/internal/config"
	"unitd/internal/diag"
)

// Engine applies command-line policy (-w, -Werror, -ferror-limit) to
// compiler diagnostics and forwards everything to one consumer.
// Diagnostics reported before a consumer is installed are held back.
type Engine struct {
	noWarnings bool
	werror     bool
	limit      int

	consumer diag.Reporter
	pending  []diag.Diagnostic
	errors   int
	fatal    bool
}

func NewEngine(inv *config.Invocation) *Engine {
	e := &Engine{}
	if inv != nil {
		e.noWarnings = inv.NoWarnings
		e.werror = inv.WarningsAsErrs
		e.limit = max(inv.ErrorLimit, 0)
	}
	return e
}

// SetConsumer installs r and flushes what was held back.
func (e *Engine) SetConsumer(r diag.Reporter) {
	e.consumer = r
	if r == nil {
		return
	}
	pending := e.pending
	e.pending = nil
	for _, d := range pending {
		r.Report(d)
	}
}

// Report implements diag.Reporter. After a fatal error further compiler
// diagnostics are dropped; check findings still pass.
func (e *Engine) Report(d diag.Diagnostic) {
	compiler := d.Check == ""
	if compiler && e.fatal {
		return
	}
	if compiler && d.Severity == diag.SevWarning {
		if e.noWarnings {
			return
		}
		if e.werror {
			d.Severity = diag.SevError
		}
	}
	if d.Severity.IsError() {
		e.errors++
	}
	if d.Severity == diag.SevFatal {
		e.fatal = true
	}
	e.forward(d)
	if e.limit > 0 && e.errors >= e.limit && !e.fatal {
		e.fatal = true
		e.forward(diag.New(diag.SevFatal, diag.SynTooManyErrors, d.Primary, "too many errors emitted, stopping now"))
	}
}

func (e *Engine) forward(d diag.Diagnostic) {
	if e.consumer == nil {
		e.pending = append(e.pending, d)
		return
	}
	e.consumer.Report(d)
}

// Errors counts Error and Fatal diagnostics seen so far.
func (e *Engine) Errors() int { return e.errors }

// Fatal reports whether a fatal error (or the error limit) stopped the build.
func (e *Engine) Fatal() bool { return e.fatal }
