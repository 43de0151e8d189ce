package tidy

import (
	"testing"

	"unitd/internal/ast"
	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/pp"
	"unitd/internal/source"
)

func TestGlobList(t *testing.T) {
	tests := []struct {
		globs string
		name  string
		want  bool
	}{
		{"*", "readability-foo", true},
		{"", "readability-foo", false},
		{"readability-*", "readability-foo", true},
		{"readability-*", "bugprone-foo", false},
		{"readability-*,-readability-foo", "readability-foo", false},
		{"-readability-foo,readability-*", "readability-foo", true},
		{" misc-* , bugprone-mutable-global ", "bugprone-mutable-global", true},
		{"read.bility-*", "readability-x", false},
		{"*-length", "readability-identifier-length", true},
	}
	for _, tt := range tests {
		if got := ParseGlobList(tt.globs).Contains(tt.name); got != tt.want {
			t.Errorf("ParseGlobList(%q).Contains(%q) = %v, want %v", tt.globs, tt.name, got, tt.want)
		}
	}
}

func TestLineIsSuppressed(t *testing.T) {
	const check = "bugprone-mutable-global"
	tests := []struct {
		name       string
		line, prev string
		want       bool
	}{
		{"plain NOLINT", "int g; // NOLINT", "", true},
		{"matching glob", "int g; // NOLINT(bugprone-*)", "", true},
		{"other check", "int g; // NOLINT(readability-*)", "", false},
		{"second of two", "int g; // NOLINT(readability-*) NOLINT(bugprone-mutable-global)", "", true},
		{"unclosed list", "int g; // NOLINT(bugprone", "", false},
		{"next line", "int g;", "// NOLINTNEXTLINE", true},
		{"next line glob", "int g;", "// NOLINTNEXTLINE(bugprone-mutable-global, misc-*)", true},
		{"next line other", "int g;", "// NOLINTNEXTLINE(misc-*)", false},
		{"next line marker on same line", "int g; // NOLINTNEXTLINE", "", false},
		{"plain NOLINT on previous line", "int g;", "// NOLINT", false},
		{"none", "int g;", "int h;", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LineIsSuppressed(check, tt.line, tt.prev); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSuppressedUsesSpellingLine(t *testing.T) {
	fset := source.NewFileSet()
	f := fset.Get(fset.AddVirtual("/m.c", []byte("// NOLINTNEXTLINE\nint a;\nint b; // NOLINT\nint c;\n")))
	for _, tt := range []struct {
		off  uint32
		want bool
	}{{18, true}, {25, true}, {42, false}} {
		if got := IsSuppressed(f, tt.off, "any"); got != tt.want {
			t.Errorf("offset %d: got %v", tt.off, got)
		}
	}
}

type fakeCheck struct {
	Base
	langs  bool
	events *[]string
}

func (c *fakeCheck) SupportsLanguage(config.LangOptions) bool { return c.langs }

func (c *fakeCheck) RegisterMatchers(f *MatchFinder) {
	f.OnDecl(func(r MatchResult) {
		*c.events = append(*c.events, c.Name()+":"+r.Decl().Name)
	}, ast.DeclVar)
}

func (c *fakeCheck) RegisterPPCallbacks(*Context, *pp.Preprocessor) pp.Callbacks {
	*c.events = append(*c.events, c.Name()+":pp")
	return pp.NopCallbacks{}
}

func TestRegistryCreatesEnabledChecks(t *testing.T) {
	var events []string
	reg := NewRegistry()
	factory := func(langs bool) Factory {
		return func(name string, ctx *Context) Check {
			return &fakeCheck{Base: NewBase(name, ctx), langs: langs, events: &events}
		}
	}
	for name, langs := range map[string]bool{"a-one": true, "a-two": true, "b-one": true, "a-cxx": false} {
		if err := reg.Register(name, factory(langs)); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.Register("a-one", factory(true)); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	ctx := NewContext(Options{Checks: "a-*,-a-two"}, config.LangOptions{})
	host := NewHost(reg, ctx)
	var names []string
	for _, c := range host.Checks() {
		names = append(names, c.Name())
	}
	if len(names) != 1 || names[0] != "a-one" {
		t.Fatalf("checks = %v", names)
	}

	p := pp.New(pp.Options{})
	host.RegisterPPCallbacks(p)
	if len(p.Callbacks()) != 1 {
		t.Fatalf("pp callbacks = %d", len(p.Callbacks()))
	}

	actx := ast.NewContext(ast.Hints{})
	inScope := actx.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "seen"})
	outside := actx.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "hidden"})
	actx.AddTopLevel(outside)
	actx.AddTopLevel(inScope)
	actx.SetTraversalScope([]ast.DeclID{inScope})
	host.Match(actx)
	if len(events) != 2 || events[0] != "a-one:pp" || events[1] != "a-one:seen" {
		t.Fatalf("events = %v", events)
	}
}

func TestMatchResultParents(t *testing.T) {
	actx := ast.NewContext(ast.Hints{})
	local := actx.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "local"})
	declStmt := actx.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Decls: []ast.DeclID{local}})
	body := actx.NewStmt(ast.Stmt{Kind: ast.StmtCompound, Body: []ast.StmtID{declStmt}})
	fn := actx.NewDecl(ast.Decl{Kind: ast.DeclFunc, Name: "f", Body: body})
	global := actx.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "global"})
	actx.AddTopLevel(fn)
	actx.AddTopLevel(global)

	var f MatchFinder
	top := map[string]bool{}
	f.OnDecl(func(r MatchResult) {
		top[r.Decl().Name] = r.TopLevel()
		if r.Decl().Name == "local" {
			p, ok := r.Parent()
			if !ok || p.Stmt != declStmt || len(r.Parents) != 3 {
				t.Errorf("parents of local = %+v", r.Parents)
			}
		}
	}, ast.DeclVar)
	f.MatchAST(actx)
	if !top["global"] || top["local"] {
		t.Fatalf("top-level flags = %v", top)
	}
}

func TestContextOptionsAndDiag(t *testing.T) {
	bag := diag.NewBag(0)
	ctx := NewContext(Options{
		WarningsAsErrors: "bugprone-*",
		CheckOptions:     map[string]string{"x-check.min_length": "4", "min_length": "2", "bad": "q"},
	}, config.LangOptions{})
	ctx.SetDiagnosticsEngine(diag.BagReporter{Bag: bag})
	if ctx.GetIntOption("x-check", "min_length", 3) != 4 || ctx.GetIntOption("y-check", "min_length", 3) != 2 {
		t.Error("option lookup order")
	}
	if ctx.GetIntOption("x-check", "bad", 7) != 7 || ctx.GetOption("x-check", "missing", "d") != "d" {
		t.Error("option defaults")
	}
	if !ctx.TreatAsError("bugprone-mutable-global") || ctx.TreatAsError("readability-x") {
		t.Error("warnings-as-errors globs")
	}
	ctx.Diag("readability-x", source.Span{File: 1}, "finding").Emit()
	items := bag.Items()
	if len(items) != 1 || items[0].Check != "readability-x" || items[0].Severity != diag.SevWarning || items[0].Code != diag.TidyFinding {
		t.Fatalf("diag = %+v", items)
	}
}
