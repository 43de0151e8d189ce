package pp

import (
	"fmt"
	"strings"
	"testing"

	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/source"
	"unitd/internal/token"
	"unitd/internal/vfs"
)

type recorder struct {
	NopCallbacks
	name   string
	events *[]string
}

func (r *recorder) add(format string, args ...any) {
	*r.events = append(*r.events, r.name+":"+fmt.Sprintf(format, args...))
}

func (r *recorder) FileChanged(loc source.Span, reason FileChangeReason, kind FileKind, prev source.FileID) {
	r.add("changed %s prev=%d", reason, prev)
}

func (r *recorder) FileSkipped(e vfs.Entry, tok token.Token, kind FileKind) {
	r.add("skipped %s", e.Path)
}

func (r *recorder) FileNotFound(name string) { r.add("notfound %s", name) }

func (r *recorder) InclusionDirective(ev InclusionEvent) {
	r.add("include %s angled=%v resolved=%s", ev.Written, ev.IsAngled, ev.Resolved)
}

func (r *recorder) MacroDefined(name token.Token, mi *MacroInfo) { r.add("define %s", name.Text) }

func (r *recorder) EndOfMainFile() { r.add("eof") }

type fixture struct {
	pp   *Preprocessor
	bag  *diag.Bag
	main *source.File
}

func newFixture(t *testing.T, mainSrc string, files map[string]string, inv *config.Invocation) *fixture {
	t.Helper()
	if files == nil {
		files = map[string]string{}
	}
	files["/src/main.c"] = mainSrc
	fsys := vfs.NewMapFS("/src", files)
	fset := source.NewFileSet()
	bag := diag.NewBag(0)
	pp := New(Options{
		FS:       fsys,
		Files:    fset,
		Search:   NewHeaderSearch(fsys, inv),
		Reporter: diag.BagReporter{Bag: bag},
	})
	id := fset.AddVirtual("/src/main.c", []byte(mainSrc))
	return &fixture{pp: pp, bag: bag, main: fset.Get(id)}
}

func (f *fixture) run(start uint32, inv *config.Invocation) []token.Token {
	f.pp.EnterMainFile(f.main, start, Predefines(inv))
	var out []token.Token
	for {
		tok := f.pp.Lex()
		if tok.Kind == token.EOF {
			return out
		}
		out = append(out, tok)
	}
}

func texts(toks []token.Token) string {
	parts := make([]string, 0, len(toks))
	for _, t := range toks {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

func TestListenersDeliveredOldestFirst(t *testing.T) {
	var events []string
	f := newFixture(t, "#include \"a.h\"\n#define M 1\n", map[string]string{"/src/a.h": "int a;\n"}, nil)
	f.pp.AddCallbacks(&recorder{name: "first", events: &events})
	f.pp.AddCallbacks(&recorder{name: "second", events: &events})
	f.run(0, nil)
	f.pp.EndOfMainFile()
	f.pp.EndOfMainFile()

	if len(events) == 0 || len(events)%2 != 0 {
		t.Fatalf("unexpected events: %v", events)
	}
	for i := 0; i < len(events); i += 2 {
		a, b := events[i], events[i+1]
		if !strings.HasPrefix(a, "first:") || !strings.HasPrefix(b, "second:") {
			t.Fatalf("event pair %d out of order: %q, %q", i/2, a, b)
		}
		if strings.TrimPrefix(a, "first:") != strings.TrimPrefix(b, "second:") {
			t.Fatalf("listeners saw different events: %q vs %q", a, b)
		}
	}
	if got := events[len(events)-1]; got != "second:eof" {
		t.Errorf("EndOfMainFile must be delivered once and last, got %q", got)
	}
}

func TestBuiltinExitAndInclusion(t *testing.T) {
	var events []string
	f := newFixture(t, "#include \"a.h\"\n#include <sys.h>\n", map[string]string{
		"/src/a.h":       "int a;\n",
		"/usr/inc/sys.h": "int s;\n",
	}, nil)
	inv := &config.Invocation{MainFile: "/src/main.c", SystemDirs: []string{"/usr/inc"}}
	f.pp.opts.Search = NewHeaderSearch(f.pp.opts.FS, inv)
	f.pp.AddCallbacks(&recorder{name: "r", events: &events})
	toks := f.run(0, inv)

	if texts(toks) != "int a ; int s ;" {
		t.Errorf("tokens = %q", texts(toks))
	}
	builtinExit := fmt.Sprintf("r:changed exit prev=%d", f.pp.BuiltinFileID())
	found := false
	for i, e := range events {
		if e == builtinExit {
			found = true
			if i+1 >= len(events) || !strings.HasPrefix(events[i+1], "r:include \"a.h\"") {
				t.Errorf("first fresh include must follow the prologue exit, events: %v", events)
			}
		}
	}
	if !found {
		t.Fatalf("missing prologue exit event in %v", events)
	}
	want := []string{
		"r:include \"a.h\" angled=false resolved=/src/a.h",
		"r:include <sys.h> angled=true resolved=/usr/inc/sys.h",
	}
	var got []string
	for _, e := range events {
		if strings.HasPrefix(e, "r:include") {
			got = append(got, e)
		}
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("inclusions = %v, want %v", got, want)
	}
}

func TestFileNotFound(t *testing.T) {
	var events []string
	f := newFixture(t, "#include \"missing.h\"\nint x;\n", nil, nil)
	f.pp.AddCallbacks(&recorder{name: "r", events: &events})
	toks := f.run(0, nil)
	if texts(toks) != "int x ;" {
		t.Errorf("parsing must continue after a missing include, got %q", texts(toks))
	}
	joined := strings.Join(events, "|")
	if !strings.Contains(joined, "r:notfound missing.h|r:include \"missing.h\" angled=false resolved=") {
		t.Errorf("expected FileNotFound before InclusionDirective, got %v", events)
	}
	if f.bag.Len() != 1 || f.bag.Items()[0].Code != diag.PPFileNotFound {
		t.Errorf("diagnostics = %v", f.bag.Items())
	}
}

func TestMacroExpansion(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"object", "#define N 42\nN", "42"},
		{"function", "#define ADD(a, b) ((a) + (b))\nADD(1, x)", "( ( 1 ) + ( x ) )"},
		{"stringify", "#define S(x) #x\nS(a + b)", `"a + b"`},
		{"paste", "#define CAT(a, b) a ## b\nCAT(foo, bar)", "foobar"},
		{"self reference", "#define A A + 1\nA", "A + 1"},
		{"nested", "#define ONE 1\n#define TWO ONE + ONE\nTWO", "1 + 1"},
		{"not invoked", "#define F(x) x\nF + 1", "F + 1"},
		{"variadic", "#define V(fmt, ...) f(fmt, __VA_ARGS__)\nV(a, b, c)", "f ( a , b , c )"},
		{"arg prescan", "#define ID(x) x\n#define K 7\nID(K)", "7"},
		{"builtin", "__STDC__", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.src, nil, nil)
			got := texts(f.run(0, nil))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if f.bag.Len() != 0 {
				t.Errorf("unexpected diagnostics: %v", f.bag.Items())
			}
		})
	}
}

func TestExpandedTokenLocations(t *testing.T) {
	src := "#define SQ(x) x * x\nint v = SQ(y);"
	f := newFixture(t, src, nil, nil)
	toks := f.run(0, nil)
	// int v = y * y ;
	if texts(toks) != "int v = y * y ;" {
		t.Fatalf("tokens = %q", texts(toks))
	}
	call := strings.Index(src, "SQ(y)")
	star := toks[4]
	if !star.FromMacro() {
		t.Fatal("expanded token must be marked as coming from a macro")
	}
	if star.Span.Start != uint32(call) || star.Span.End != uint32(call+len("SQ(y)")) {
		t.Errorf("expansion range = %v", star.Span)
	}
	if src[star.Spelling.Start:star.Spelling.End] != "*" || star.Spelling.Start > uint32(call) {
		t.Errorf("spelling must point into the definition, got %v", star.Spelling)
	}
	y := toks[3]
	if src[y.Spelling.Start:y.Spelling.End] != "y" || y.Spelling.Start < uint32(call) {
		t.Errorf("argument spelling must point at the argument, got %v", y.Spelling)
	}
}

func TestConditionals(t *testing.T) {
	src := `#define A 2
#if A > 1 && defined(A)
yes1
#else
no1
#endif
#ifdef B
no2
#elif A == 2
yes2
#else
no3
#endif
#ifndef B
yes3
#endif
#if 0
#error not reached
#include "nope.h"
#endif
`
	f := newFixture(t, src, nil, nil)
	if got := texts(f.run(0, nil)); got != "yes1 yes2 yes3" {
		t.Errorf("got %q", got)
	}
	if f.bag.Len() != 0 {
		t.Errorf("skipped blocks must not report: %v", f.bag.Items())
	}
}

func TestConditionalErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{"#if 1\nx\n", diag.PPUnterminatedConditional},
		{"#endif\n", diag.PPEndifWithoutIf},
		{"#else\n", diag.PPElseWithoutIf},
		{"#if 1 / 0\n#endif\n", diag.PPBadExpression},
		{"#frob\n", diag.PPInvalidDirective},
		{"#error stop here\n", diag.PPUserError},
	}
	for _, tt := range tests {
		f := newFixture(t, tt.src, nil, nil)
		f.run(0, nil)
		if f.bag.Len() != 1 || f.bag.Items()[0].Code != tt.code {
			t.Errorf("%q: expected %s, got %v", tt.src, tt.code.ID(), f.bag.Items())
		}
	}
}

func TestIncludeGuardAndPragmaOnce(t *testing.T) {
	var events []string
	f := newFixture(t, "#include \"g.h\"\n#include \"g.h\"\n#include \"o.h\"\n#include \"o.h\"\n", map[string]string{
		"/src/g.h": "#ifndef G_H\n#define G_H\nint g;\n#endif\n",
		"/src/o.h": "#pragma once\nint o;\n",
	}, nil)
	f.pp.AddCallbacks(&recorder{name: "r", events: &events})
	if got := texts(f.run(0, nil)); got != "int g ; int o ;" {
		t.Errorf("tokens = %q", got)
	}
	var skipped []string
	for _, e := range events {
		if strings.HasPrefix(e, "r:skipped") {
			skipped = append(skipped, e)
		}
	}
	if len(skipped) != 2 || skipped[0] != "r:skipped /src/g.h" || skipped[1] != "r:skipped /src/o.h" {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestIncludeTooDeep(t *testing.T) {
	f := newFixture(t, "#include \"self.h\"\nint after;\n", map[string]string{"/src/self.h": "#include \"self.h\"\n"}, nil)
	f.pp.opts.MaxIncludeDepth = 8
	toks := f.run(0, nil)
	if !f.pp.Fatal() {
		t.Fatal("expected a fatal error")
	}
	if len(toks) != 0 {
		t.Errorf("no tokens expected after a fatal error, got %q", texts(toks))
	}
	last := f.bag.Items()[f.bag.Len()-1]
	if last.Code != diag.PPIncludeTooDeep || last.Severity != diag.SevFatal {
		t.Errorf("last diagnostic = %+v", last)
	}
}

func TestCommandLineMacros(t *testing.T) {
	inv := &config.Invocation{MainFile: "/src/main.c", Macros: []config.MacroOp{{Name: "X", Value: "3"}, {Name: "__unitd__", Undef: true}}}
	f := newFixture(t, "X __unitd__", nil, inv)
	if got := texts(f.run(0, inv)); got != "3 __unitd__" {
		t.Errorf("got %q", got)
	}
}

func TestStartOffsetAndDetach(t *testing.T) {
	src := "#include \"a.h\"\nint y;\n"
	f := newFixture(t, src, map[string]string{"/src/a.h": "int a;\n"}, nil)
	var events []string
	f.pp.AddCallbacks(&recorder{name: "r", events: &events})
	toks := f.run(uint32(strings.Index(src, "int y")), nil)
	if texts(toks) != "int y ;" {
		t.Errorf("tokens = %q", texts(toks))
	}
	for _, e := range events {
		if strings.HasPrefix(e, "r:include") {
			t.Errorf("prefix include must not be seen live: %q", e)
		}
	}
	f.pp.Detach()
	f.pp.EndOfMainFile()
	if events[len(events)-1] == "r:eof" {
		t.Error("detached preprocessor must not notify listeners")
	}
	if tok := f.pp.Lex(); tok.Kind != token.EOF {
		t.Errorf("Lex after Detach = %v", tok.Kind)
	}
}

func TestCommentHandlers(t *testing.T) {
	f := newFixture(t, "// one\nint x; /* two */\n#if 0\n// hidden\n#endif\n", nil, nil)
	var seen []string
	f.pp.AddCommentHandler(CommentHandlerFunc(func(_ *Preprocessor, c token.Trivia) {
		seen = append(seen, c.Text)
	}))
	f.run(0, nil)
	if strings.Join(seen, "|") != "// one|/* two */" {
		t.Errorf("comments = %v", seen)
	}
}
