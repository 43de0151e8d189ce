package unit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/index"
	"unitd/internal/pp"
	"unitd/internal/preamble"
	"unitd/internal/session"
	"unitd/internal/source"
	"unitd/internal/tidy"
	"unitd/internal/tidy/checks"
	"unitd/internal/token"
	"unitd/internal/trace"
	"unitd/internal/vfs"
)

const mainSrc = `// unit fixture
#include "a.h"
#include <x.h>
#include "b.h"

int a_one = A_VALUE;
int a_two;
#warning tail
`

func invocation() *config.Invocation {
	return &config.Invocation{
		Directory:  "/src",
		MainFile:   "/src/main.c",
		Lang:       config.LangOptions{Lang: config.LangC, Std: config.StdC17},
		SystemDirs: []string{"/sys"},
	}
}

func fixtureFS(main string) *vfs.MapFS {
	return vfs.NewMapFS("/src", map[string]string{
		"/src/main.c": main,
		"/src/a.h":    "#define A_VALUE 1\nint from_header;\n#warning from header\n",
		"/src/b.h":    "int from_b;\n",
		"/src/c.h":    "int from_c;\n",
		"/sys/x.h":    "int sys_x;\n",
	})
}

func inputs(fsys vfs.FileSystem) Inputs {
	return Inputs{FileName: "/src/main.c", Invocation: invocation(), FS: fsys}
}

func buildPreamble(t *testing.T, fsys vfs.FileSystem) *preamble.Data {
	t.Helper()
	pre, err := preamble.Build(context.Background(), preamble.Inputs{Invocation: invocation(), FS: fsys})
	if err != nil {
		t.Fatalf("preamble: %v", err)
	}
	return pre
}

func build(t *testing.T, ctx context.Context, in Inputs, pre *preamble.Data) *ParsedUnit {
	t.Helper()
	u, err := Build(ctx, in, pre)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(u.Close)
	return u
}

func declNames(u *ParsedUnit) []string {
	var out []string
	for _, id := range u.LocalTopLevelDecls() {
		out = append(out, u.AST().Decl(id).Name)
	}
	return out
}

func codes(ds []diag.Diagnostic) []diag.Code {
	var out []diag.Code
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func findEvent(ring *trace.RingTracer, name string) (trace.Event, bool) {
	for _, ev := range ring.Snapshot() {
		if ev.Name == name {
			return ev, true
		}
	}
	return trace.Event{}, false
}

func TestDiagnosticSegments(t *testing.T) {
	cfg := diag.NewWarning(diag.CfgUnknownArgument, source.Span{}, "unknown argument '-fnope'")
	tests := []struct {
		name        string
		usePreamble bool
	}{
		{"without preamble", false},
		{"with preamble", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fixtureFS(mainSrc)
			var pre *preamble.Data
			if tt.usePreamble {
				pre = buildPreamble(t, fsys)
				if len(pre.Diags) != 1 {
					t.Fatalf("preamble diags = %+v", pre.Diags)
				}
			}
			in := inputs(fsys)
			in.ConfigDiags = []diag.Diagnostic{cfg}
			u := build(t, context.Background(), in, pre)

			want := []diag.Code{diag.CfgUnknownArgument, diag.PPInIncludedFile, diag.PPUserWarning}
			if got := codes(u.Diagnostics()); !slices.Equal(got, want) {
				t.Fatalf("codes = %v, want %v", got, want)
			}
			if u.HasPreamble() != tt.usePreamble {
				t.Errorf("HasPreamble = %v", u.HasPreamble())
			}
			if tt.usePreamble && !strings.HasPrefix(u.Diagnostics()[1].Notes[0].Msg, "/src/a.h:3:1: ") {
				t.Errorf("prefix note = %+v", u.Diagnostics()[1].Notes)
			}
		})
	}
}

func TestIncludedDiagnosticFoldsAtIncludeLine(t *testing.T) {
	u := build(t, context.Background(), inputs(fixtureFS(mainSrc)), nil)
	d := u.Diagnostics()[0]
	if d.Code != diag.PPInIncludedFile || d.Message != "in included file: from header" {
		t.Fatalf("diag = %+v", d)
	}
	if want := uint32(strings.Index(mainSrc, `#include "a.h"`)); d.Primary.File != u.Main().ID || d.Primary.Start != want {
		t.Errorf("primary = %+v, want start %d", d.Primary, want)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "from header" {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestLocalDeclsAreMainFileOnly(t *testing.T) {
	for _, usePreamble := range []bool{false, true} {
		fsys := fixtureFS(mainSrc)
		var pre *preamble.Data
		if usePreamble {
			pre = buildPreamble(t, fsys)
		}
		u := build(t, context.Background(), inputs(fsys), pre)
		if got := declNames(u); !slices.Equal(got, []string{"a_one", "a_two"}) {
			t.Errorf("preamble=%v: decls = %v", usePreamble, got)
		}
		if got := u.AST().TraversalScope(); !slices.Equal(got, u.LocalTopLevelDecls()) {
			t.Errorf("preamble=%v: traversal scope = %v", usePreamble, got)
		}
	}
}

func TestPreambleSeedsFacts(t *testing.T) {
	fsys := fixtureFS(mainSrc)
	pre := buildPreamble(t, fsys)
	u := build(t, context.Background(), inputs(fsys), pre)

	var written []string
	for _, inc := range u.Includes().MainFileIncludes {
		written = append(written, inc.Written)
	}
	if !slices.Equal(written, []string{`"a.h"`, `<x.h>`, `"b.h"`}) {
		t.Fatalf("includes = %v", written)
	}
	if len(pre.Includes.MainFileIncludes) != 3 {
		t.Errorf("preamble includes modified: %v", pre.Includes.MainFileIncludes)
	}
	if !u.Macros().Has("A_VALUE") {
		t.Errorf("macro reference to A_VALUE not collected: %v", u.Macros().SortedNames())
	}
	for _, tok := range u.Tokens().Expanded() {
		if tok.Span.Start < pre.Bounds {
			t.Fatalf("token %q from the prefix was collected", tok.Text)
		}
	}
	if sp := u.Tokens().Spelled(); len(sp) == 0 || sp[0].Text != "#" {
		t.Errorf("spelled tokens start with %v", sp)
	}
}

// recorder is a PP check that writes down the include events it sees.
type recorder struct {
	tidy.Base
	events *[]string
}

func (r *recorder) RegisterPPCallbacks(*tidy.Context, *pp.Preprocessor) pp.Callbacks {
	return &recordingCallbacks{events: r.events}
}

type recordingCallbacks struct {
	pp.NopCallbacks
	events *[]string
}

func (c *recordingCallbacks) InclusionDirective(ev pp.InclusionEvent) {
	*c.events = append(*c.events, fmt.Sprintf("include %s angled=%v at=%d dir=%s", ev.Written, ev.IsAngled, ev.HashLoc.Start, ev.IncludeTok.Text))
}

func (c *recordingCallbacks) FileSkipped(entry vfs.Entry, tok token.Token, _ pp.FileKind) {
	*c.events = append(*c.events, "skipped "+entry.Path+" "+tok.Text)
}

func (c *recordingCallbacks) FileNotFound(name string) {
	*c.events = append(*c.events, "notfound "+name)
}

func recorderRegistry(events *[]string) *tidy.Registry {
	reg := tidy.NewRegistry()
	err := reg.Register("test-recorder", func(name string, ctx *tidy.Context) tidy.Check {
		return &recorder{Base: tidy.NewBase(name, ctx), events: events}
	})
	if err != nil {
		panic(err)
	}
	return reg
}

const replaySrc = `#include "a.h"
#include <x.h>
#include "b.h"

int r = 0;
#include "c.h"
`

func TestReplayAnnouncesPrefixIncludes(t *testing.T) {
	at := func(s string) int { return strings.Index(replaySrc, s) }
	tests := []struct {
		name   string
		remove string
		want   []string
	}{
		{
			name: "all present",
			want: []string{
				fmt.Sprintf(`include "a.h" angled=false at=%d dir=include`, at(`#include "a.h"`)),
				`skipped /src/a.h "a.h"`,
				fmt.Sprintf(`include <x.h> angled=true at=%d dir=include`, at(`#include <x.h>`)),
				`skipped /sys/x.h <x.h>`,
				fmt.Sprintf(`include "b.h" angled=false at=%d dir=include`, at(`#include "b.h"`)),
				`skipped /src/b.h "b.h"`,
				fmt.Sprintf(`include "c.h" angled=false at=%d dir=include`, at(`#include "c.h"`)),
			},
		},
		{
			name:   "missing header",
			remove: "/src/b.h",
			want: []string{
				fmt.Sprintf(`include "a.h" angled=false at=%d dir=include`, at(`#include "a.h"`)),
				`skipped /src/a.h "a.h"`,
				fmt.Sprintf(`include <x.h> angled=true at=%d dir=include`, at(`#include <x.h>`)),
				`skipped /sys/x.h <x.h>`,
				fmt.Sprintf(`include "b.h" angled=false at=%d dir=include`, at(`#include "b.h"`)),
				`notfound b.h`,
				fmt.Sprintf(`include "c.h" angled=false at=%d dir=include`, at(`#include "c.h"`)),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fixtureFS(replaySrc)
			pre := buildPreamble(t, fsys)
			if tt.remove != "" {
				fsys.Remove(tt.remove)
			}
			ring := trace.NewRingTracer(64, trace.LevelDetail)
			ctx := trace.WithTracer(context.Background(), ring)

			var events []string
			in := inputs(fsys)
			in.Checks = recorderRegistry(&events)
			in.Opts.Checks.Checks = "test-*"
			u := build(t, ctx, in, pre)

			if !slices.Equal(events, tt.want) {
				t.Fatalf("events:\n%s\nwant:\n%s", strings.Join(events, "\n"), strings.Join(tt.want, "\n"))
			}
			if u.replay == nil || u.replay.replayed != 3 {
				t.Fatalf("replayer = %+v", u.replay)
			}
			ev, logged := findEvent(ring, "unit.replay-file-not-found")
			if logged != (tt.remove != "") {
				t.Fatalf("replay log present = %v", logged)
			}
			if logged && (ev.Extra["file"] != "/src/main.c" || ev.Detail != `"b.h"`) {
				t.Errorf("log event = %+v", ev)
			}
			// the include collector is seeded, it never sees replayed events
			if n := len(u.Includes().MainFileIncludes); n != 4 {
				t.Errorf("collected includes = %d", n)
			}
			if inc := u.Includes().MainFileIncludes[2]; inc.Resolved != "/src/b.h" {
				t.Errorf("seeded include lost its resolved path: %+v", inc)
			}
		})
	}
}

func TestNoListenersNoReplay(t *testing.T) {
	fsys := fixtureFS(replaySrc)
	pre := buildPreamble(t, fsys)
	u := build(t, context.Background(), inputs(fsys), pre)
	if u.replay != nil {
		t.Fatal("replay attached without listeners")
	}
}

func TestReplaySingleInclude(t *testing.T) {
	const src = "#include \"a.h\"\nint x = 1;\n"
	fsys := fixtureFS(src)
	pre := buildPreamble(t, fsys)
	if pre.Bounds != 15 || len(pre.Includes.MainFileIncludes) != 1 {
		t.Fatalf("preamble bounds=%d includes=%d", pre.Bounds, len(pre.Includes.MainFileIncludes))
	}
	var events []string
	in := inputs(fsys)
	in.Checks = recorderRegistry(&events)
	in.Opts.Checks.Checks = "test-*"
	build(t, context.Background(), in, pre)

	want := []string{`include "a.h" angled=false at=0 dir=include`, `skipped /src/a.h "a.h"`}
	if !slices.Equal(events, want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
}

// Replay targets the check listeners only; the session's include locator
// keeps folding header diagnostics at the fresh #include.
func TestReplayLeavesIncludeLocatorAlone(t *testing.T) {
	const src = "#include \"b.h\"\n\nint y;\n#include \"a.h\"\n"
	fsys := fixtureFS(src)
	pre := buildPreamble(t, fsys)
	var events []string
	in := inputs(fsys)
	in.Checks = recorderRegistry(&events)
	in.Opts.Checks.Checks = "test-*"
	u := build(t, context.Background(), in, pre)
	if u.replay == nil || u.replay.replayed != 1 {
		t.Fatalf("replayer = %+v", u.replay)
	}

	want := uint32(strings.Index(src, `#include "a.h"`))
	for _, d := range u.Diagnostics() {
		if d.Code != diag.PPInIncludedFile {
			continue
		}
		if d.Primary.File != u.Main().ID || d.Primary.Start != want {
			t.Fatalf("expected fold at %d, got %+v", want, d.Primary)
		}
		return
	}
	t.Fatalf("no folded diagnostic in %v", codes(u.Diagnostics()))
}

const fixerSrc = `int use(void) {
  return bfunc() + n1 + n2 + n3 + n4 + n5 + n6;
}
`

func TestIncludeFixer(t *testing.T) {
	idx := index.NewMemIndex(index.Symbol{Name: "bfunc", Kind: index.KindFunction, DeclaringFile: "/src/b.h"})
	tests := []struct {
		name    string
		suggest bool
		dir     string
		queries int
		fixed   bool
	}{
		{"enabled", true, "/src", 5, true},
		{"disabled", false, "/src", 0, false},
		{"no working directory", true, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := vfs.NewMapFS(tt.dir, map[string]string{"/src/main.c": fixerSrc, "/src/b.h": "int bfunc(void);\n"})
			in := inputs(fsys)
			in.Index = idx
			in.Opts.SuggestMissingIncludes = tt.suggest
			u := build(t, context.Background(), in, nil)

			if got := u.IndexQueries(); got != tt.queries {
				t.Errorf("queries = %d, want %d", got, tt.queries)
			}
			var undeclared int
			var fixes []diag.Fix
			for _, d := range u.Diagnostics() {
				if d.Code == diag.SemaUndeclaredIdentifier {
					undeclared++
					fixes = append(fixes, d.Fixes...)
				}
				if d.Severity != diag.SevError && d.Code == diag.SemaUndeclaredIdentifier {
					t.Errorf("repair changed severity: %+v", d)
				}
			}
			if undeclared != 7 {
				t.Fatalf("undeclared diagnostics = %d", undeclared)
			}
			if !tt.fixed {
				if len(fixes) != 0 {
					t.Fatalf("unexpected fixes %+v", fixes)
				}
				return
			}
			if len(fixes) != 1 || fixes[0].Edits[0].NewText != "#include \"b.h\"\n" || fixes[0].Edits[0].Span.Start != 0 {
				t.Fatalf("fixes = %+v", fixes)
			}
		})
	}
}

func TestEscalationBeatsSuppression(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		asErrs string
		want   diag.Severity
	}{
		{"plain finding", "int counter;\n", "", diag.SevWarning},
		{"suppressed", "int counter; // NOLINT\n", "", diag.SevIgnored},
		{"suppressed next line", "// NOLINTNEXTLINE(bugprone-*)\nint counter;\n", "", diag.SevIgnored},
		{"other check named", "int counter; // NOLINT(readability-*)\n", "", diag.SevWarning},
		{"escalated", "int counter;\n", "bugprone-*", diag.SevError},
		{"escalated despite NOLINT", "int counter; // NOLINT\n", "bugprone-mutable-global", diag.SevError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputs(vfs.NewMapFS("/src", map[string]string{"/src/main.c": tt.src}))
			in.Checks = checks.NewRegistry()
			in.Opts.Checks = tidy.Options{Checks: "bugprone-mutable-global", WarningsAsErrors: tt.asErrs}
			u := build(t, context.Background(), in, nil)
			ds := u.Diagnostics()
			if len(ds) != 1 || ds[0].Check != "bugprone-mutable-global" {
				t.Fatalf("diags = %+v", ds)
			}
			if ds[0].Severity != tt.want {
				t.Fatalf("severity = %v, want %v", ds[0].Severity, tt.want)
			}
		})
	}
}

func TestSessionStartFailure(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	tests := []struct {
		name  string
		in    Inputs
		cause error
	}{
		{"nil invocation", Inputs{FileName: "/src/main.c", FS: fixtureFS(mainSrc)}, config.ErrNilInvocation},
		{"relative file", Inputs{FileName: "main.c", Invocation: invocation(), FS: fixtureFS(mainSrc)}, config.ErrRelativeMainFile},
		{"unreadable", Inputs{FileName: "/src/gone.c", Invocation: invocation(), FS: fixtureFS(mainSrc)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Build(ctx, tt.in, nil)
			if u != nil || !errors.Is(err, ErrSessionStart) {
				t.Fatalf("Build = %v, %v", u, err)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("cause lost: %v", err)
			}
			ev, ok := findEvent(ring, "unit.session-start-failed")
			if !ok || ev.Extra["file"] == "" {
				t.Errorf("no log line: %+v", ring.Snapshot())
			}
		})
	}
}

func TestExecuteFailureKeepsPartialUnit(t *testing.T) {
	ring := trace.NewRingTracer(32, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	src := "int ok_decl;\nint f(void) { return missing_one; }\n"
	in := inputs(vfs.NewMapFS("/src", map[string]string{"/src/main.c": src}))
	in.Invocation.ErrorLimit = 1
	u := build(t, ctx, in, nil)

	if names := declNames(u); len(names) == 0 || names[0] != "ok_decl" {
		t.Errorf("decls = %v", names)
	}
	ds := u.Diagnostics()
	if len(ds) == 0 || ds[len(ds)-1].Code != diag.SynTooManyErrors {
		t.Errorf("diags = %v", codes(ds))
	}
	ev, ok := findEvent(ring, "unit.execute-failed")
	if !ok || ev.Extra["file"] != "/src/main.c" || !strings.Contains(ev.Detail, session.ErrFatal.Error()) {
		t.Fatalf("execute failure not logged: %+v", ev)
	}
	if phases := u.Timings().Phases(); len(phases) != 5 || !strings.HasPrefix(phases[2].Note, "stopped") {
		t.Errorf("phases = %+v", phases)
	}
}

func TestDiagStoreAttachesNotes(t *testing.T) {
	s, err := session.New(session.Options{
		Invocation: invocation(),
		FS:         vfs.NewMapFS("/src", nil),
		Contents:   []byte("int a;\nint b;\n"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.BeginSourceFile(); err != nil {
		t.Fatal(err)
	}
	main := s.Main().ID
	st := &diagStore{s: s}
	st.Report(diag.NewWarning(diag.SemaRedefinition, source.Span{File: main, Start: 11, End: 12}, "redefinition of 'b'"))
	st.Report(diag.New(diag.SevNote, diag.SemaRedefinition, source.Span{File: main, Start: 4, End: 5}, "previous definition is here"))
	st.Report(diag.New(diag.SevNote, diag.SemaRedefinition, source.Span{File: main + 7, Start: 0, End: 1}, "elsewhere"))

	out := st.Diagnostics()
	if len(out) != 2 {
		t.Fatalf("stored = %+v", out)
	}
	if len(out[0].Notes) != 1 || out[0].Notes[0].Msg != "previous definition is here" {
		t.Errorf("notes = %+v", out[0].Notes)
	}
}

func TestMemoryAndTeardown(t *testing.T) {
	small, err := Build(context.Background(), inputs(vfs.NewMapFS("/src", map[string]string{"/src/main.c": "int a;\n"})), nil)
	if err != nil {
		t.Fatal(err)
	}
	var big strings.Builder
	for i := range 200 {
		fmt.Fprintf(&big, "int global_%d = %d;\n", i, i)
	}
	large, err := Build(context.Background(), inputs(vfs.NewMapFS("/src", map[string]string{"/src/main.c": big.String()})), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer large.Close()
	if small.UsedBytes() == 0 || large.UsedBytes() <= small.UsedBytes() {
		t.Errorf("used bytes: small %d, large %d", small.UsedBytes(), large.UsedBytes())
	}

	var buf bytes.Buffer
	if err := small.Dump(&buf); err != nil || !strings.Contains(buf.String(), "a") {
		t.Fatalf("dump = %q, %v", buf.String(), err)
	}
	small.Close()
	small.Close()
	if !small.Session().Closed() {
		t.Fatal("session still open")
	}
	if err := small.Dump(&buf); !errors.Is(err, ErrClosed) {
		t.Fatalf("dump after close: %v", err)
	}
}
