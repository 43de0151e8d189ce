package preamble

import (
	"context"
	"strings"
	"testing"

	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/pp"
	"unitd/internal/token"
	"unitd/internal/vfs"
)

func TestComputeBounds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // the prefix
	}{
		{"empty", "", ""},
		{"no directives", "int x;\n", ""},
		{"includes", "#include \"a.h\"\n#include <b.h>\nint x;\n", "#include \"a.h\"\n#include <b.h>\n"},
		{"comments and blanks", "// c\n\n/* multi\n line */\n#define A 1\n\nint x;\n", "// c\n\n/* multi\n line */\n#define A 1\n"},
		{"trailing comment not included", "#define A 1\n// tail\nint x;\n", "#define A 1\n"},
		{"open conditional", "#ifndef G\n#define G\nint x;\n#endif\n", ""},
		{"closed conditional", "#ifndef G\n#define G\n#endif\nint x;\n", "#ifndef G\n#define G\n#endif\n"},
		{"continuation", "#define LONG 1 + \\\n  2\nint x;\n", "#define LONG 1 + \\\n  2\n"},
		{"comment opener in string", "#include \"a/*b.h\"\nint x;\n", "#include \"a/*b.h\"\n"},
		{"no final newline", "#include \"a.h\"", "#include \"a.h\""},
		{"code after comment on line", "/* c */ int x;\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBounds([]byte(tt.src))
			if tt.src[:got] != tt.want {
				t.Fatalf("prefix = %q, want %q", tt.src[:got], tt.want)
			}
		})
	}
}

const mainSrc = `// header comment
#include "a.h"
#include <x.h>
#define LOCAL(v) ((v) + 1)
#define ARGS(fmt, ...) f(fmt, __VA_ARGS__)

int main_var = LOCAL(2);
`

func fixture() (*config.Invocation, *vfs.MapFS) {
	inv := &config.Invocation{
		Directory:  "/src",
		MainFile:   "/src/main.c",
		SystemDirs: []string{"/sys"},
	}
	fsys := vfs.NewMapFS("/src", map[string]string{
		"/src/main.c": mainSrc,
		"/src/a.h":    "// IWYU pragma: private, include \"public.h\"\ntypedef int myint;\nstruct S { int f; };\n#warning from header\n",
		"/sys/x.h":    "#define SYS_X 1\n",
	})
	return inv, fsys
}

func TestBuildCollectsFacts(t *testing.T) {
	inv, fsys := fixture()
	d, err := Build(context.Background(), Inputs{Invocation: inv, FS: fsys})
	if err != nil {
		t.Fatal(err)
	}
	if want := strings.Index(mainSrc, "\n\nint main_var") + 1; int(d.Bounds) != want {
		t.Fatalf("bounds = %d, want %d", d.Bounds, want)
	}
	if n := len(d.Includes.MainFileIncludes); n != 2 {
		t.Fatalf("main-file includes = %d", n)
	}
	if inc := d.Includes.MainFileIncludes[1]; inc.Written != "<x.h>" || inc.Resolved != "/sys/x.h" || inc.FileKind != pp.SystemFile {
		t.Errorf("second include = %+v", inc)
	}
	if !d.Macros.Has("LOCAL") || d.Macros.Has("SYS_X") {
		t.Errorf("macros = %v", d.Macros.SortedNames())
	}
	for _, want := range []string{"#define LOCAL(v) ((v) + 1)\n", "#define ARGS(fmt, ...) f(fmt, __VA_ARGS__)\n", "#define SYS_X 1\n"} {
		if !strings.Contains(d.MacroDefs, want) {
			t.Errorf("MacroDefs missing %q:\n%s", want, d.MacroDefs)
		}
	}
	if strings.Contains(d.MacroDefs, "__STDC__") {
		t.Error("prologue macros must not be rendered")
	}
	if d.Symbols.Len() < 2 {
		t.Errorf("symbols = %+v", d.Symbols)
	}
	if got := d.CanonIncludes.MapHeader("/src/a.h"); got != `"public.h"` {
		t.Errorf("canonical a.h = %q", got)
	}
	if got := d.CanonIncludes.MapSymbol("size_t"); got == "" {
		t.Error("system symbol mapping missing")
	}
}

func TestBuildFoldsHeaderDiagnostics(t *testing.T) {
	inv, fsys := fixture()
	d, err := Build(context.Background(), Inputs{Invocation: inv, FS: fsys})
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Diags) != 1 {
		t.Fatalf("diags = %+v", d.Diags)
	}
	got := d.Diags[0]
	if got.Code != diag.PPInIncludedFile || got.Primary.File != 1 || got.Severity != diag.SevWarning {
		t.Fatalf("folded = %+v", got)
	}
	if len(got.Notes) != 1 || got.Notes[0].Span.File != 1 || !strings.HasPrefix(got.Notes[0].Msg, "/src/a.h:4:1: ") {
		t.Fatalf("notes = %+v", got.Notes)
	}
}

func TestCanReuse(t *testing.T) {
	inv, fsys := fixture()
	d, err := Build(context.Background(), Inputs{Invocation: inv, FS: fsys})
	if err != nil {
		t.Fatal(err)
	}
	editedTail := strings.Replace(mainSrc, "LOCAL(2)", "LOCAL(3)", 1)
	editedHead := strings.Replace(mainSrc, "a.h", "b.h", 1)
	grown := mainSrc[:d.Bounds] + "#define GROWN 1\n" + mainSrc[d.Bounds:]
	flags := inv.Clone()
	flags.Macros = append(flags.Macros, config.MacroOp{Name: "X", Value: "1"})

	tests := []struct {
		name     string
		inv      *config.Invocation
		contents string
		want     bool
	}{
		{"same", inv, mainSrc, true},
		{"edited after prefix", inv, editedTail, true},
		{"edited prefix", inv, editedHead, false},
		{"prefix grew", inv, grown, false},
		{"different flags", flags, mainSrc, false},
		{"shorter than prefix", inv, "#in", false},
	}
	for _, tt := range tests {
		if got := d.CanReuse(tt.inv, []byte(tt.contents)); got != tt.want {
			t.Errorf("%s: CanReuse = %v, want %v", tt.name, got, tt.want)
		}
	}
	var nilData *Data
	if nilData.CanReuse(inv, []byte(mainSrc)) {
		t.Error("nil data reusable")
	}
}

func TestRenderMacrosSkipsBuiltins(t *testing.T) {
	tbl := pp.NewMacroTable()
	tbl.Define(&pp.MacroInfo{Name: "B", Builtin: true, Body: []token.Token{{Kind: token.IntLit, Text: "1"}}})
	tbl.Define(&pp.MacroInfo{Name: "EMPTY"})
	tbl.Define(&pp.MacroInfo{Name: "V", FunctionLike: true, Variadic: true, Params: []string{"__VA_ARGS__"}})
	if got, want := RenderMacros(tbl), "#define EMPTY\n#define V(...)\n"; got != want {
		t.Fatalf("RenderMacros = %q, want %q", got, want)
	}
}

func TestBuildRejectsBadInvocation(t *testing.T) {
	if _, err := Build(context.Background(), Inputs{}); err == nil {
		t.Fatal("nil invocation accepted")
	}
	inv, fsys := fixture()
	inv.MainFile = "/src/missing.c"
	if _, err := Build(context.Background(), Inputs{Invocation: inv, FS: fsys}); err == nil {
		t.Fatal("missing main file accepted")
	}
}
