package session

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/pp"
	"unitd/internal/source"
	"unitd/internal/vfs"
)

func invocation(mutate func(*config.Invocation)) *config.Invocation {
	inv := &config.Invocation{Directory: "/src", MainFile: "/src/main.c", Lang: config.LangOptions{Lang: config.LangC, Std: config.StdC17}}
	if mutate != nil {
		mutate(inv)
	}
	return inv
}

type run struct {
	s   *Session
	bag *diag.Bag
	err error
}

func execute(t *testing.T, inv *config.Invocation, files map[string]string) run {
	t.Helper()
	s, err := New(Options{Invocation: inv, FS: vfs.NewMapFS("/src", files)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bag := diag.NewBag(0)
	if err := s.BeginSourceFile(); err != nil {
		t.Fatalf("BeginSourceFile: %v", err)
	}
	s.Engine().SetConsumer(diag.BagReporter{Bag: bag})
	err = s.Execute()
	s.EndOfMainFile()
	return run{s: s, bag: bag, err: err}
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestNewRejectsBadInputs(t *testing.T) {
	fsys := vfs.NewMapFS("/src", map[string]string{"/src/main.c": "int x;\n"})
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"nil invocation", Options{FS: fsys}, config.ErrNilInvocation},
		{"relative file", Options{FS: fsys, Invocation: invocation(func(inv *config.Invocation) { inv.MainFile = "main.c" })}, config.ErrRelativeMainFile},
		{"missing file", Options{FS: fsys, Invocation: invocation(func(inv *config.Invocation) { inv.MainFile = "/src/nope.c" })}, nil},
		{"prefix past end", Options{FS: fsys, Invocation: invocation(nil), Start: 100}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.opts)
			if err == nil || s != nil {
				t.Fatalf("expected failure, got session %v", s)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMainFileIsFirst(t *testing.T) {
	r := execute(t, invocation(nil), map[string]string{
		"/src/main.c": "#include \"a.h\"\nint x;\n",
		"/src/a.h":    "int a;\n",
	})
	if r.err != nil {
		t.Fatal(r.err)
	}
	if r.s.Main().ID != 1 {
		t.Fatalf("main file id = %d", r.s.Main().ID)
	}
	if got := len(r.s.AST().TopLevel()); got != 2 {
		t.Fatalf("expected 2 top-level decls, got %d", got)
	}
}

func TestEnginePolicy(t *testing.T) {
	src := map[string]string{"/src/main.c": "#warning careful\nint x;\n"}
	tests := []struct {
		name   string
		mutate func(*config.Invocation)
		want   []diag.Severity
	}{
		{"default", nil, []diag.Severity{diag.SevWarning}},
		{"-w", func(inv *config.Invocation) { inv.NoWarnings = true }, nil},
		{"-Werror", func(inv *config.Invocation) { inv.WarningsAsErrs = true }, []diag.Severity{diag.SevError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, invocation(tt.mutate), src)
			var got []diag.Severity
			for _, d := range r.bag.Items() {
				got = append(got, d.Severity)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("severities = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckWarningsBypassCommandLinePolicy(t *testing.T) {
	e := NewEngine(invocation(func(inv *config.Invocation) {
		inv.NoWarnings = true
		inv.WarningsAsErrs = true
	}))
	bag := diag.NewBag(0)
	e.SetConsumer(diag.BagReporter{Bag: bag})
	d := diag.NewWarning(diag.TidyFinding, source.Span{File: 1}, "finding")
	d.Check = "misc-x"
	e.Report(d)
	if items := bag.Items(); len(items) != 1 || items[0].Severity != diag.SevWarning {
		t.Fatalf("check finding altered: %+v", items)
	}
}

func TestErrorLimitStopsExecution(t *testing.T) {
	inv := invocation(func(inv *config.Invocation) { inv.ErrorLimit = 2 })
	r := execute(t, inv, map[string]string{"/src/main.c": "#error one\n#error two\n#error three\nint x;\n"})
	if !errors.Is(r.err, ErrFatal) {
		t.Fatalf("expected ErrFatal, got %v", r.err)
	}
	want := []diag.Code{diag.PPUserError, diag.PPUserError, diag.SynTooManyErrors}
	if got := codes(r.bag); !slices.Equal(got, want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	if r.s.Engine().Errors() != 2 || !r.s.Engine().Fatal() {
		t.Fatalf("engine: errors=%d fatal=%v", r.s.Engine().Errors(), r.s.Engine().Fatal())
	}
}

func TestPendingDiagnosticsFlushOnConsumer(t *testing.T) {
	e := NewEngine(nil)
	e.Report(diag.NewError(diag.PPUserError, source.Span{}, "early"))
	bag := diag.NewBag(0)
	e.SetConsumer(diag.BagReporter{Bag: bag})
	e.Report(diag.NewError(diag.PPUserError, source.Span{}, "late"))
	if items := bag.Items(); len(items) != 2 || items[0].Message != "early" {
		t.Fatalf("items = %+v", items)
	}
}

type eofCounter struct {
	pp.NopCallbacks
	n int
}

func (c *eofCounter) EndOfMainFile() { c.n++ }

func TestCloseOrderAndIdempotence(t *testing.T) {
	s, err := New(Options{Invocation: invocation(nil), FS: vfs.NewMapFS("/src", map[string]string{"/src/main.c": "int x;\n"})})
	if err != nil {
		t.Fatal(err)
	}
	var steps []string
	s.teardown = func(step string) { steps = append(steps, step) }
	if err := s.BeginSourceFile(); err != nil {
		t.Fatal(err)
	}
	counter := &eofCounter{}
	s.PP().AddCallbacks(counter)
	if err := s.Execute(); err != nil {
		t.Fatal(err)
	}
	s.EndOfMainFile()
	if s.MemoryUsage() == 0 {
		t.Fatal("memory usage must be positive while open")
	}
	s.Close()
	s.Close()
	if want := []string{"detach", "end-action", "release-pp"}; !slices.Equal(steps, want) {
		t.Fatalf("teardown steps = %v, want %v", steps, want)
	}
	if counter.n != 1 {
		t.Fatalf("EndOfMainFile delivered %d times", counter.n)
	}
	if !s.Closed() || s.PP() != nil {
		t.Fatal("session not released")
	}
	if err := s.Execute(); !errors.Is(err, ErrState) {
		t.Fatalf("Execute after Close: %v", err)
	}
}

func TestLifecycleOrder(t *testing.T) {
	s, err := New(Options{Invocation: invocation(nil), Contents: []byte("int x;\n"), FS: vfs.NewMapFS("/src", nil)})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Execute(); !errors.Is(err, ErrState) {
		t.Fatalf("Execute before BeginSourceFile: %v", err)
	}
	if err := s.BeginSourceFile(); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginSourceFile(); !errors.Is(err, ErrState) {
		t.Fatalf("second BeginSourceFile: %v", err)
	}
}

func TestFoldIncludedDiagnostics(t *testing.T) {
	r := execute(t, invocation(func(inv *config.Invocation) { inv.ForcedIncludes = []string{"/src/forced.h"} }), map[string]string{
		"/src/main.c":   "int x;\n#include \"outer.h\"\n",
		"/src/outer.h":  "#include \"inner.h\"\n",
		"/src/inner.h":  "#error deep\n",
		"/src/forced.h": "#warning forced\n",
	})
	var folded []diag.Diagnostic
	for _, d := range r.bag.Items() {
		if f, ok := r.s.Fold(d); ok {
			folded = append(folded, f)
		}
	}
	if len(folded) != 2 {
		t.Fatalf("folded %d diagnostics: %+v", len(folded), r.bag.Items())
	}
	forced, deep := folded[0], folded[1]
	if forced.Primary != source.Point(1, 0) || forced.Severity != diag.SevWarning {
		t.Errorf("forced include folded to %+v", forced)
	}
	main := r.s.Main()
	if got := string(main.Content[deep.Primary.Start:deep.Primary.End]); got != "#include \"outer.h\"" {
		t.Errorf("folded span covers %q", got)
	}
	if deep.Code != diag.PPInIncludedFile || !strings.HasPrefix(deep.Message, "in included file: ") || deep.Severity != diag.SevError {
		t.Errorf("folded diagnostic = %+v", deep)
	}
	if len(deep.Notes) != 1 || deep.Notes[0].Msg != "deep" {
		t.Errorf("original not kept as note: %+v", deep.Notes)
	}
	if _, ok := r.s.Fold(diag.NewError(diag.PPUserError, source.Point(main.ID, 0), "here")); ok {
		t.Error("main-file diagnostic folded")
	}
}
