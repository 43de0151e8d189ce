package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"unitd/internal/workspace"
)

func TestApplyEventTracksStatus(t *testing.T) {
	events := make(chan workspace.Event)
	m := NewProgressModel("check", []string{"a.c", "b.c"}, events).(*progressModel)

	steps := []workspace.Event{
		{File: "a.c", Stage: workspace.StagePreamble, Status: workspace.StatusWorking},
		{File: "b.c", Stage: workspace.StageBuild, Status: workspace.StatusWorking},
		{File: "a.c", Stage: workspace.StageBuild, Status: workspace.StatusDone, Elapsed: 1500 * time.Microsecond},
		{File: "b.c", Stage: workspace.StageBuild, Status: workspace.StatusError, Err: errors.New("boom")},
		{File: "unknown.c", Status: workspace.StatusDone},
	}
	wantStatus := [][2]string{
		{"preamble", "queued"},
		{"preamble", "building"},
		{"done", "building"},
		{"done", "error"},
		{"done", "error"},
	}
	for i, ev := range steps {
		m.applyEvent(ev)
		got := [2]string{m.items[0].status, m.items[1].status}
		if got != wantStatus[i] {
			t.Fatalf("step %d: status = %v, want %v", i, got, wantStatus[i])
		}
	}
	if m.failed != 1 || m.items[0].elapsed != "1.5ms" {
		t.Fatalf("failed=%d elapsed=%q", m.failed, m.items[0].elapsed)
	}
	if m.fraction() != 1.0 {
		t.Fatalf("fraction = %v", m.fraction())
	}

	view := m.View()
	if !strings.Contains(view, "check (1 failed)") || !strings.Contains(view, "a.c") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.c", 20, "short.c"},
		{"a/very/long/path.c", 10, "a/very/..."},
		{"abcdef", 3, "abc"},
		{"abcdefgh", 7, "abcd..."},
		{"путь/к/файлу.c", 8, "путь/..."},
		{"файл.c", 0, "файл.c"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
