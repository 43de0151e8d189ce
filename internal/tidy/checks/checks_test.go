package checks

import (
	"slices"
	"strings"
	"testing"

	"unitd/internal/ast"
	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/parser"
	"unitd/internal/pp"
	"unitd/internal/source"
	"unitd/internal/tidy"
	"unitd/internal/vfs"
)

type finding struct {
	check string
	text  string // spelling under the primary span
	msg   string
}

// run preprocesses and parses src as /src/main.c with the given checks
// enabled and returns what they reported.
func run(t *testing.T, checks, src string, opts map[string]string) ([]finding, []diag.Diagnostic) {
	t.Helper()
	fsys := vfs.NewMapFS("/src", map[string]string{
		"/src/main.c": src,
		"/src/lib.h":  "int lib_global;\n#define LIB_SUM a + b\n",
	})
	fset := source.NewFileSet()
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	p := pp.New(pp.Options{FS: fsys, Files: fset, Search: pp.NewHeaderSearch(fsys, nil), Reporter: rep})

	tctx := tidy.NewContext(tidy.Options{Checks: checks, CheckOptions: opts}, config.LangOptions{Lang: config.LangC})
	tctx.SetDiagnosticsEngine(rep)
	host := tidy.NewHost(NewRegistry(), tctx)
	host.RegisterPPCallbacks(p)

	main := fset.Get(fset.AddVirtual("/src/main.c", []byte(src)))
	p.EnterMainFile(main, 0, pp.Predefines(nil))
	actx := ast.NewContext(ast.Hints{})
	parser.ParseTranslationUnit(p, actx, parser.Options{Reporter: rep})
	p.EndOfMainFile()
	var scope []ast.DeclID
	for _, id := range actx.TopLevel() {
		if actx.DeclSpan(id).File == main.ID {
			scope = append(scope, id)
		}
	}
	actx.SetTraversalScope(scope)
	host.Match(actx)

	var out []finding
	for _, d := range bag.Items() {
		if d.Code != diag.TidyFinding {
			continue
		}
		f := fset.Get(d.Primary.File)
		out = append(out, finding{check: d.Check, text: string(f.Content[d.Primary.Start:d.Primary.End]), msg: d.Message})
	}
	return out, bag.Items()
}

func texts(fs []finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.text)
	}
	return out
}

func TestRegistryNames(t *testing.T) {
	want := []string{
		"bugprone-mutable-global",
		"misc-macro-parentheses",
		"readability-duplicate-include",
		"readability-identifier-length",
	}
	if got := NewRegistry().Names(); !slices.Equal(got, want) {
		t.Fatalf("Names() = %v", got)
	}
	if err := Register(NewRegistry()); err == nil {
		t.Fatal("registering twice must fail")
	}
}

func TestDuplicateInclude(t *testing.T) {
	src := "#include \"lib.h\"\n#include \"lib.h\"\n#define X\n#include \"lib.h\"\nint main_var;\n"
	got, items := run(t, "readability-duplicate-include", src, nil)
	if len(got) != 1 {
		t.Fatalf("findings = %+v", got)
	}
	if got[0].msg != "duplicate include of lib.h" {
		t.Errorf("message = %q", got[0].msg)
	}
	var fix *diag.Fix
	for i := range items {
		if items[i].Code == diag.TidyFinding && len(items[i].Fixes) > 0 {
			fix = &items[i].Fixes[0]
		}
	}
	if fix == nil || len(fix.Edits) != 1 {
		t.Fatalf("expected a removal fix, got %+v", fix)
	}
	if e := fix.Edits[0]; e.OldText != "#include \"lib.h\"\n" || e.NewText != "" || e.Span.Start != 17 {
		t.Errorf("edit = %+v", e)
	}
}

func TestIdentifierLength(t *testing.T) {
	src := `int g;
int f(int n, int ab) {
	int x = 0;
	int total = 0;
	for (int i = 0; i < n; i++) total += i;
	for (int q = 0; q < n; q++) x += q;
	return x + total + ab;
}
`
	got, _ := run(t, "readability-identifier-length", src, nil)
	if want := []string{"ab", "x", "q"}; !slices.Equal(texts(got), want) {
		t.Fatalf("flagged %v, want %v", texts(got), want)
	}
	if !strings.HasPrefix(got[0].msg, "parameter name 'ab'") || !strings.HasPrefix(got[2].msg, "loop variable name 'q'") {
		t.Errorf("messages: %q, %q", got[0].msg, got[2].msg)
	}
	if !strings.HasSuffix(got[1].msg, "at least 3 characters") {
		t.Errorf("message = %q", got[1].msg)
	}

	got, _ = run(t, "readability-identifier-length", src, map[string]string{"readability-identifier-length.min_length": "6"})
	if want := []string{"ab", "x", "total", "q"}; !slices.Equal(texts(got), want) {
		t.Fatalf("min_length=6 flagged %v, want %v", texts(got), want)
	}
}

func TestMutableGlobal(t *testing.T) {
	src := `int counter;
static int hidden;
extern int elsewhere;
const int limit = 3;
const char *name;
char *const fixed = 0;
const int table[2] = {1, 2};
int f(void) { int local = 0; return local; }
`
	got, _ := run(t, "bugprone-mutable-global", src, nil)
	if want := []string{"counter", "name"}; !slices.Equal(texts(got), want) {
		t.Fatalf("flagged %v, want %v", texts(got), want)
	}
}

func TestMacroParentheses(t *testing.T) {
	src := `#define SUM(a, b) a + b
#define GOOD(a, b) ((a) + (b))
#define CALL(f, x) f(x)
#define FIELD(s) s.field
#define STR(a) #a
#define CAT(a, b) a ## b
#define BARE 1 + 2
#define WRAPPED (1 + 2)
#define NEG -1
#define SPLIT (1) + (2)
`
	got, _ := run(t, "misc-macro-parentheses", src, nil)
	want := []string{"a", "b", "1 + 2", "(1) + (2)"}
	if !slices.Equal(texts(got), want) {
		t.Fatalf("flagged %v, want %v", texts(got), want)
	}
	if got[0].msg != "macro argument should be enclosed in parentheses" {
		t.Errorf("message = %q", got[0].msg)
	}
	if got[2].msg != "macro replacement list should be enclosed in parentheses" {
		t.Errorf("message = %q", got[2].msg)
	}
}

func TestChecksIgnoreIncludedFiles(t *testing.T) {
	got, _ := run(t, "*", "#include \"lib.h\"\n", nil)
	if len(got) != 0 {
		t.Fatalf("findings from included header: %+v", got)
	}
}
