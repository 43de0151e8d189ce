package includefixer

import (
	"context"
	"fmt"
	"testing"

	"unitd/internal/canonical"
	"unitd/internal/diag"
	"unitd/internal/headers"
	"unitd/internal/index"
	"unitd/internal/sema"
	"unitd/internal/source"
)

type countingIndex struct {
	inner   *index.MemIndex
	queries []string
}

func (c *countingIndex) Lookup(ctx context.Context, name string, fn func(index.Symbol)) error {
	c.queries = append(c.queries, name)
	return c.inner.Lookup(ctx, name, fn)
}

type dirs struct{}

func (dirs) QuoteDirs() []string  { return nil }
func (dirs) AngledDirs() []string { return []string{"/proj/include"} }
func (dirs) SystemDirs() []string { return []string{"/usr/include"} }

func newFixer(t *testing.T, src string, includes *headers.IncludeStructure, symbols ...index.Symbol) (*Fixer, *countingIndex, source.FileID) {
	t.Helper()
	fset := source.NewFileSet()
	main := fset.Get(fset.AddVirtual("/proj/src/main.c", []byte(src)))
	idx := &countingIndex{inner: index.NewMemIndex(symbols...)}
	canon := canonical.New()
	canon.AddSystemHeadersMapping()
	return New(context.Background(), headers.NewInserter(main, dirs{}, includes), idx, canon), idx, main.ID
}

// report mimics sema: the name is announced, then the diagnostic follows.
func report(f *Fixer, file source.FileID, name string, start uint32, code diag.Code) []diag.Fix {
	sp := source.Span{File: file, Start: start, End: start + uint32(len(name))}
	f.NameNotFound(sema.Unresolved{Name: name, Span: sp})
	return f.Fix(diag.NewError(code, sp, "unresolved"))
}

func TestFixInsertsDeclaringHeader(t *testing.T) {
	f, idx, file := newFixer(t, "int x = bfunc();\n", nil,
		index.Symbol{Name: "bfunc", DeclaringFile: "/proj/src/b.h"})
	fixes := report(f, file, "bfunc", 8, diag.SemaUndeclaredIdentifier)
	if len(fixes) != 1 {
		t.Fatalf("fixes = %+v", fixes)
	}
	fix := fixes[0]
	if fix.Title != `Include "b.h" for symbol bfunc` || !fix.IsPreferred {
		t.Errorf("fix = %+v", fix)
	}
	if len(fix.Edits) != 1 || fix.Edits[0].NewText != "#include \"b.h\"\n" || fix.Edits[0].Span.Start != 0 {
		t.Errorf("edit = %+v", fix.Edits)
	}
	if len(idx.queries) != 1 {
		t.Errorf("queries = %v", idx.queries)
	}
}

func TestFixUsesCanonicalHeader(t *testing.T) {
	f, _, file := newFixer(t, "FILE *fp;\nstruct tm *t;\n", nil,
		index.Symbol{Name: "FILE", DeclaringFile: "/usr/include/x86_64-linux-gnu/bits/types/FILE.h"},
		index.Symbol{Name: "tm", IncludeHeaders: []index.HeaderRef{{Header: "/usr/include/bits/types/struct_tm.h", References: 2}}})
	fixes := report(f, file, "FILE", 0, diag.SemaUnknownTypeName)
	if len(fixes) != 1 || fixes[0].Edits[0].NewText != "#include <stdio.h>\n" {
		t.Fatalf("FILE fixes = %+v", fixes)
	}
	fixes = report(f, file, "tm", 17, diag.SemaIncompleteType)
	if len(fixes) != 1 || fixes[0].Edits[0].NewText != "#include <time.h>\n" {
		t.Fatalf("tm fixes = %+v", fixes)
	}
}

func TestNoFixWhenAlreadyIncluded(t *testing.T) {
	inc := headers.NewIncludeStructure()
	inc.MainFileIncludes = append(inc.MainFileIncludes, headers.Inclusion{Written: `"b.h"`, Resolved: "/proj/src/b.h"})
	f, _, file := newFixer(t, "#include \"b.h\"\nint x = bfunc();\n", inc,
		index.Symbol{Name: "bfunc", DeclaringFile: "/proj/src/b.h"},
		index.Symbol{Name: "cfunc", IncludeHeaders: []index.HeaderRef{{Header: `"b.h"`}}})
	if fixes := report(f, file, "bfunc", 23, diag.SemaUndeclaredIdentifier); len(fixes) != 0 {
		t.Fatalf("fix for an included header by path: %+v", fixes)
	}
	if fixes := report(f, file, "cfunc", 23, diag.SemaUndeclaredIdentifier); len(fixes) != 0 {
		t.Fatalf("fix for an included header by spelling: %+v", fixes)
	}
}

func TestOnlyMatchingDiagnosticsAreRepaired(t *testing.T) {
	f, idx, file := newFixer(t, "x y;\n", nil, index.Symbol{Name: "x", DeclaringFile: "/proj/src/x.h"})
	sp := source.Span{File: file, Start: 0, End: 1}
	if fixes := f.Fix(diag.NewError(diag.SemaUnknownTypeName, sp, "no name recorded")); fixes != nil {
		t.Fatal("fixed without a recorded name")
	}
	f.NameNotFound(sema.Unresolved{Name: "x", Span: sp})
	if fixes := f.Fix(diag.NewError(diag.SemaRedefinition, sp, "other code")); fixes != nil {
		t.Fatal("fixed a diagnostic of another kind")
	}
	if fixes := f.Fix(diag.NewError(diag.SemaUnknownTypeName, source.Span{File: file, Start: 2, End: 3}, "elsewhere")); fixes != nil {
		t.Fatal("fixed a diagnostic at another span")
	}
	if len(idx.queries) != 0 {
		t.Fatalf("queries = %v", idx.queries)
	}
}

func TestQueryBudget(t *testing.T) {
	var syms []index.Symbol
	for i := range 8 {
		syms = append(syms, index.Symbol{Name: fmt.Sprintf("n%d", i), DeclaringFile: fmt.Sprintf("/proj/src/h%d.h", i)})
	}
	f, idx, file := newFixer(t, "n0 n1 n2 n3 n4 n5 n6 n7\n", nil, syms...)
	fixed := 0
	for i := range 8 {
		if len(report(f, file, fmt.Sprintf("n%d", i), uint32(3*i), diag.SemaUndeclaredIdentifier)) > 0 {
			fixed++
		}
	}
	// cached names stay repairable after the budget is spent
	if len(report(f, file, "n0", 0, diag.SemaUndeclaredIdentifier)) != 1 {
		t.Error("cached name lost its fix")
	}
	if len(idx.queries) != MaxIndexQueries || f.Queries() != MaxIndexQueries {
		t.Fatalf("queries = %v", idx.queries)
	}
	if fixed != MaxIndexQueries {
		t.Fatalf("fixed %d diagnostics, want %d", fixed, MaxIndexQueries)
	}
}

func TestRepeatedNameIsCached(t *testing.T) {
	f, idx, file := newFixer(t, "a a\n", nil)
	report(f, file, "a", 0, diag.SemaUndeclaredIdentifier)
	report(f, file, "a", 2, diag.SemaUndeclaredIdentifier)
	if len(idx.queries) != 1 {
		t.Fatalf("queries = %v", idx.queries)
	}
}
