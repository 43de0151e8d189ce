package observ

import (
	"strings"
	"testing"
	"time"

	"unitd/internal/diag"
	"unitd/internal/source"
)

func fakeClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(time.Millisecond)
	done := tm.Track(PhaseSession)
	done("")
	idx := tm.Begin(PhaseExecute)
	tm.End(idx, "fatal")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.TotalMS != 2 {
		t.Fatalf("report = %+v", r)
	}
	if r.Phases[1].Name != PhaseExecute || r.Phases[1].Note != "fatal" {
		t.Errorf("phase = %+v", r.Phases[1])
	}
	s := tm.Summary()
	if !strings.Contains(s, "// fatal") || !strings.Contains(s, "total") {
		t.Errorf("summary = %q", s)
	}
}

func TestTimerDiagnostic(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(time.Millisecond)
	tm.Track(PhaseChecks)("")
	d := tm.Diagnostic(source.Point(1, 0))
	if d.Code != diag.ObsTimings || d.Severity != diag.SevNote || len(d.Notes) != 1 {
		t.Fatalf("diag = %+v", d)
	}
	if d.Notes[0].Msg != "checks: 1.00 ms" {
		t.Errorf("note = %q", d.Notes[0].Msg)
	}
}

func TestNilTimerIsEmpty(t *testing.T) {
	var tm *Timer
	if tm.Phases() != nil || tm.Total() != 0 {
		t.Fatal("nil timer reported phases")
	}
	tm.End(0, "")
}
