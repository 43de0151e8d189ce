package checks

import (
	"fmt"

	"unitd/internal/ast"
	"unitd/internal/tidy"
)

// mutableGlobal flags writable variables with external linkage.
type mutableGlobal struct {
	tidy.Base
}

func newMutableGlobal(name string, ctx *tidy.Context) tidy.Check {
	return &mutableGlobal{Base: tidy.NewBase(name, ctx)}
}

func (c *mutableGlobal) RegisterMatchers(f *tidy.MatchFinder) {
	f.OnDecl(c.check, ast.DeclVar)
}

func (c *mutableGlobal) check(r tidy.MatchResult) {
	if !r.TopLevel() {
		return
	}
	d := r.Decl()
	if d.Has(ast.DeclInvalid|ast.DeclImplicit) || d.Storage == ast.StorageStatic || d.Storage == ast.StorageExtern {
		return
	}
	if isConstObject(r.Context, d) {
		return
	}
	c.Context().Diag(c.Name(), d.NameSpan,
		fmt.Sprintf("variable '%s' is a non-const global", d.Name)).Emit()
}

// isConstObject: for pointers only the outermost qualifier counts,
// `const char *p` is still writable.
func isConstObject(actx *ast.Context, d *ast.Decl) bool {
	t := actx.Type(d.Type)
	if t == nil {
		return d.Has(ast.DeclConst)
	}
	if t.Kind == ast.TypePointer {
		return t.Const
	}
	return d.Has(ast.DeclConst) || t.Const
}
