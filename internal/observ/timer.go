// Package observ measures the phases of a unit build.
package observ

import (
	"fmt"
	"strings"
	"time"

	"unitd/internal/diag"
	"unitd/internal/source"
)

// Phase names recorded by unit.Build, in the order they run.
const (
	PhaseSession  = "session"
	PhaseSetup    = "setup"
	PhaseExecute  = "execute"
	PhaseChecks   = "checks"
	PhaseFinalize = "finalize"
)

// Phase is one measured step of a build.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer collects phases of a single build. Not safe for concurrent use.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 5), now: time.Now} }

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End closes the phase at idx. Unknown indexes are ignored.
func (t *Timer) End(idx int, note string) {
	if t == nil || idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
}

// Track begins name and returns the matching End.
func (t *Timer) Track(name string) func(note string) {
	idx := t.Begin(name)
	return func(note string) { t.End(idx, note) }
}

// Phases returns the recorded phases in start order.
func (t *Timer) Phases() []Phase {
	if t == nil {
		return nil
	}
	return t.phases
}

func (t *Timer) Total() time.Duration {
	var total time.Duration
	for _, p := range t.Phases() {
		total += p.Dur
	}
	return total
}

// Summary renders the phases as an aligned table.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-12s %8.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-12s %8.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport is the compact form of a phase for JSON.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates the timings of one build.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	phases := t.Phases()
	if len(phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(phases))}
	for i, p := range phases {
		report.Phases[i] = PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note}
	}
	report.TotalMS = millis(t.Total())
	return report
}

// Diagnostic wraps the summary into a note attached to sp, for renderers
// that only print diagnostics.
func (t *Timer) Diagnostic(sp source.Span) diag.Diagnostic {
	d := diag.New(diag.SevNote, diag.ObsTimings, sp, fmt.Sprintf("build took %.2f ms", millis(t.Total())))
	for _, p := range t.Phases() {
		d.Notes = append(d.Notes, diag.Note{Span: sp, Msg: fmt.Sprintf("%s: %.2f ms", p.Name, millis(p.Dur))})
	}
	return d
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
