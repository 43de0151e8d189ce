package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLevelScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopeUnit, true},
		{LevelPhase, ScopePhase, true},
		{LevelPhase, ScopeDetail, false},
		{LevelDetail, ScopeDetail, true},
		{LevelDebug, ScopeDetail, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestLogCarriesExtraAndParent(t *testing.T) {
	ring := NewRingTracer(8, LevelDetail)
	ctx := WithTracer(context.Background(), ring)
	ctx, span := Start(ctx, ScopeUnit, "unit.build")
	Log(ctx, ScopeUnit, "unit.execute-failed", "boom", "file", "/src/a.c", "odd")
	Log(ctx, ScopeDetail+1, "dropped", "")
	span.End("")

	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	point := events[1]
	if point.Kind != KindPoint || point.Name != "unit.execute-failed" || point.Detail != "boom" {
		t.Fatalf("unexpected point %+v", point)
	}
	if point.ParentID != span.ID() || point.Extra["file"] != "/src/a.c" || len(point.Extra) != 1 {
		t.Fatalf("point extra/parent: %+v", point)
	}
}

func TestLogWithoutTracerIsNoop(t *testing.T) {
	Log(context.Background(), ScopeUnit, "x", "")
	_, sp := Start(context.Background(), ScopeUnit, "y")
	if sp.ID() != 0 {
		t.Fatalf("nop span got id %d", sp.ID())
	}
	sp.End("")
}

func TestStreamFormats(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelPhase, FormatText)
	Log(WithTracer(context.Background(), st), ScopeUnit, "unit.replay-file-not-found", "a.h", "file", "/m.c", "at", "1")
	if line := buf.String(); !strings.Contains(line, "[unit] • unit.replay-file-not-found (a.h) {at=1, file=/m.c}") {
		t.Fatalf("text line = %q", line)
	}

	buf.Reset()
	st = NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Log(WithTracer(context.Background(), st), ScopeUnit, "n", "")
	if !strings.Contains(buf.String(), `"kind":"point"`) || !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("ndjson line = %q", buf.String())
	}
}

func TestMultiTracerRing(t *testing.T) {
	ring := NewRingTracer(2, LevelPhase)
	var buf bytes.Buffer
	m := NewMultiTracer(LevelPhase, NewStreamTracer(&buf, LevelPhase, FormatText), ring)
	if m.Ring() != ring {
		t.Fatal("Ring() did not find the ring tracer")
	}
	for range 3 {
		Log(WithTracer(context.Background(), m), ScopeDriver, "tick", "")
	}
	if got := len(ring.Snapshot()); got != 2 {
		t.Fatalf("ring kept %d events, want 2", got)
	}
	if strings.Count(buf.String(), "tick") != 3 {
		t.Fatalf("stream missed events: %q", buf.String())
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if m, err := ParseMode("Both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(Both) = %v, %v", m, err)
	}
	if Level(42).String() != "unknown" || Scope(9).String() != "unknown" {
		t.Fatal("out-of-range names")
	}
}

func TestRingDroppedAndOrder(t *testing.T) {
	ring := NewRingTracer(3, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Log(ctx, ScopeDriver, name, "")
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, ",") != "c,d,e" {
		t.Fatalf("snapshot = %v", names)
	}
	if ring.Dropped() != 2 {
		t.Fatalf("Dropped() = %d, want 2", ring.Dropped())
	}
}

func TestHeartbeatStop(t *testing.T) {
	ring := NewRingTracer(16, LevelError)
	hb := StartHeartbeat(ring, time.Millisecond)
	if hb == nil {
		t.Fatal("heartbeat not started")
	}
	time.Sleep(10 * time.Millisecond)
	hb.Stop()
	hb.Stop()
	n := len(ring.Snapshot())
	if n == 0 {
		t.Fatal("no heartbeats recorded")
	}
	time.Sleep(5 * time.Millisecond)
	if len(ring.Snapshot()) != n {
		t.Fatal("heartbeat still running after Stop")
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat started on Nop")
	}
	var nilHB *Heartbeat
	nilHB.Stop()
}
