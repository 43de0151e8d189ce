package checks

import (
	"fmt"
	"unicode/utf8"

	"unitd/internal/ast"
	"unitd/internal/tidy"
)

const defaultMinLength = 3

// identifierLength flags local variables and parameters with names shorter
// than min_length. Loop counters i, j, k and the parameter n are exempt.
type identifierLength struct {
	tidy.Base
	minLength int
}

func newIdentifierLength(name string, ctx *tidy.Context) tidy.Check {
	c := &identifierLength{Base: tidy.NewBase(name, ctx)}
	c.minLength = ctx.GetIntOption(name, "min_length", defaultMinLength)
	return c
}

func (c *identifierLength) RegisterMatchers(f *tidy.MatchFinder) {
	f.OnDecl(c.check, ast.DeclVar, ast.DeclParam)
}

func (c *identifierLength) check(r tidy.MatchResult) {
	d := r.Decl()
	if d.Name == "" || d.Has(ast.DeclImplicit) || utf8.RuneCountInString(d.Name) >= c.minLength {
		return
	}
	what := "variable"
	switch {
	case d.Kind == ast.DeclParam:
		if d.Name == "n" {
			return
		}
		what = "parameter"
	case r.TopLevel():
		return
	case isLoopVariable(r):
		switch d.Name {
		case "i", "j", "k", "_":
			return
		}
		what = "loop variable"
	}
	c.Context().Diag(c.Name(), d.NameSpan,
		fmt.Sprintf("%s name '%s' is too short, expected at least %d characters", what, d.Name, c.minLength)).Emit()
}

// isLoopVariable: the declaration sits in the init clause of a for.
func isLoopVariable(r tidy.MatchResult) bool {
	n := len(r.Parents)
	if n < 2 {
		return false
	}
	declStmt, loop := r.Parents[n-1], r.Parents[n-2]
	if !declStmt.Stmt.IsValid() || !loop.Stmt.IsValid() {
		return false
	}
	ds, fs := r.Context.Stmt(declStmt.Stmt), r.Context.Stmt(loop.Stmt)
	return ds.Kind == ast.StmtDecl && fs.Kind == ast.StmtFor && fs.Init == declStmt.Stmt
}
