package headers_test

import (
	"reflect"
	"testing"

	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/headers"
	"unitd/internal/pp"
	"unitd/internal/source"
	"unitd/internal/token"
	"unitd/internal/vfs"
)

const mainSrc = `// header comment
#include "a.h"
#  include <sys/b.h>
#include "missing.h"
int x;
`

func collect(t *testing.T, src string, files map[string]string, inv *config.Invocation) (*headers.IncludeStructure, *source.File, *pp.Preprocessor) {
	t.Helper()
	files["/src/main.c"] = src
	fsys := vfs.NewMapFS("/src", files)
	fset := source.NewFileSet()
	p := pp.New(pp.Options{
		FS:       fsys,
		Files:    fset,
		Search:   pp.NewHeaderSearch(fsys, inv),
		Reporter: diag.BagReporter{Bag: diag.NewBag(0)},
	})
	out := headers.NewIncludeStructure()
	p.AddCallbacks(headers.Collect(p, out))
	main := fset.Get(fset.AddVirtual("/src/main.c", []byte(src)))
	p.EnterMainFile(main, 0, pp.Predefines(inv))
	for p.Lex().Kind != token.EOF {
	}
	return out, main, p
}

func TestCollectMainFileIncludes(t *testing.T) {
	inv := &config.Invocation{SystemDirs: []string{"/sys"}}
	files := map[string]string{
		"/src/a.h":     "#include \"c.h\"\n",
		"/src/c.h":     "",
		"/sys/sys/b.h": "",
	}
	out, _, _ := collect(t, mainSrc, files, inv)
	if len(out.MainFileIncludes) != 3 {
		t.Fatalf("includes = %+v", out.MainFileIncludes)
	}
	a, b, missing := out.MainFileIncludes[0], out.MainFileIncludes[1], out.MainFileIncludes[2]
	if a.Written != `"a.h"` || a.Resolved != "/src/a.h" || a.HashLine != 2 || a.FileKind != pp.UserFile {
		t.Errorf("a.h = %+v", a)
	}
	if mainSrc[a.HashOffset] != '#' || mainSrc[a.DirectiveOffset:a.DirectiveOffset+7] != "include" || mainSrc[a.WrittenOffset] != '"' {
		t.Errorf("a.h offsets = %+v", a)
	}
	if !b.Angled() || b.Name() != "sys/b.h" || b.Resolved != "/sys/sys/b.h" || b.FileKind != pp.SystemFile {
		t.Errorf("b.h = %+v", b)
	}
	if mainSrc[b.DirectiveOffset:b.DirectiveOffset+7] != "include" || b.Directive != headers.DirInclude {
		t.Errorf("b.h directive = %+v", b)
	}
	if missing.Resolved != "" || missing.Written != `"missing.h"` {
		t.Errorf("missing.h = %+v", missing)
	}

	wantChildren := map[string][]string{
		"/src/main.c": {"/src/a.h", "/sys/sys/b.h"},
		"/src/a.h":    {"/src/c.h"},
	}
	if !reflect.DeepEqual(out.IncludeChildren, wantChildren) {
		t.Errorf("children = %v", out.IncludeChildren)
	}
	depth := out.IncludeDepth("/src/main.c")
	if depth["/src/c.h"] != 2 || depth["/src/a.h"] != 1 || len(depth) != 4 {
		t.Errorf("depth = %v", depth)
	}
}

func TestForcedIncludeAttributedToMainFile(t *testing.T) {
	inv := &config.Invocation{ForcedIncludes: []string{"/src/pre.h"}}
	out, _, _ := collect(t, "int x;\n", map[string]string{"/src/pre.h": ""}, inv)
	if len(out.MainFileIncludes) != 0 {
		t.Fatalf("forced include listed as main-file include: %+v", out.MainFileIncludes)
	}
	if got := out.IncludeChildren["/src/main.c"]; len(got) != 1 || got[0] != "/src/pre.h" {
		t.Fatalf("children = %v", out.IncludeChildren)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := headers.NewIncludeStructure()
	s.MainFileIncludes = append(s.MainFileIncludes, headers.Inclusion{Written: `"a.h"`})
	s.RecordInclude("/m.c", "/a.h")
	s.RecordInclude("/m.c", "/a.h")
	c := s.Clone()
	c.MainFileIncludes[0].Written = `"b.h"`
	c.RecordInclude("/m.c", "/b.h")
	if s.MainFileIncludes[0].Written != `"a.h"` || len(s.IncludeChildren["/m.c"]) != 1 {
		t.Fatalf("clone shares storage with original: %+v", s)
	}
	var nilStruct *headers.IncludeStructure
	if nilStruct.Clone() == nil || nilStruct.MemoryUsage() != 0 {
		t.Fatal("nil structure must clone to an empty one")
	}
}

type dirs struct{ quote, angled, system []string }

func (d dirs) QuoteDirs() []string  { return d.quote }
func (d dirs) AngledDirs() []string { return d.angled }
func (d dirs) SystemDirs() []string { return d.system }

func TestInserterSpelling(t *testing.T) {
	fset := source.NewFileSet()
	main := fset.Get(fset.AddVirtual("/proj/src/main.c", []byte("int x;\n")))
	ins := headers.NewInserter(main, dirs{
		angled: []string{"/proj/include"},
		system: []string{"/usr/include"},
	}, nil)
	tests := []struct {
		header headers.Header
		want   string
		ok     bool
	}{
		{headers.Header{File: "/proj/src/util.h"}, `"util.h"`, true},
		{headers.Header{File: "/proj/include/lib/api.h"}, "<lib/api.h>", true},
		{headers.Header{File: "/usr/include/stdio.h"}, "<stdio.h>", true},
		{headers.Header{File: "<stdlib.h>", Verbatim: true}, "<stdlib.h>", true},
		{headers.Header{File: "/elsewhere/x.h"}, "", false},
		{headers.Header{File: "rel.h"}, "", false},
	}
	for _, tt := range tests {
		got, ok := ins.Spell(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Spell(%+v) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInserterInsertionPoint(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want uint32
	}{
		{"after last include", "#include \"a.h\"\n#include \"b.h\"\nint x;\n", 30},
		{"after comment block", "/* license\n * text */\n// more\n\nint x;\n", 31},
		{"empty file", "", 0},
		{"code after one-line comment", "/* lic */ int use(void) { return bfunc(); }\n", 0},
		{"code after closing comment", "// top\n/* lic\n */ int x;\n", 7},
		{"two comments on a line", "/* a */ /* b */ // c\nint x;\n", 21},
		{"comment reopened", "/* a */ /* b\n c */\nint x;\n", 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, main, p := collect(t, tt.src, map[string]string{"/src/a.h": "", "/src/b.h": ""}, nil)
			ins := headers.NewInserter(main, p.Search(), out)
			edit := ins.Insert(`"c.h"`)
			if edit.Span.Start != tt.want || edit.NewText != "#include \"c.h\"\n" {
				t.Fatalf("edit = %+v, want offset %d", edit, tt.want)
			}
		})
	}
}

func TestShouldInsert(t *testing.T) {
	out, main, p := collect(t, "#include \"a.h\"\n#include <sys.h>\n", map[string]string{"/src/a.h": "", "/inc/sys.h": ""},
		&config.Invocation{AngledDirs: []string{"/inc"}})
	ins := headers.NewInserter(main, p.Search(), out)
	for _, h := range []headers.Header{{File: "/src/a.h"}, {File: "<sys.h>", Verbatim: true}, {File: "/inc/sys.h"}} {
		if ins.ShouldInsert(h) {
			t.Errorf("ShouldInsert(%+v) = true for an included header", h)
		}
	}
	if !ins.ShouldInsert(headers.Header{File: "/src/b.h"}) {
		t.Error("new header must be inserted")
	}
}
