package tidy

import (
	"slices"

	"unitd/internal/ast"
)

// MatchResult is one matched node with its ancestors, outermost first.
// Ancestors stop at the traversal-scope root: nodes above it are never
// visible to checks.
type MatchResult struct {
	Context *ast.Context
	Node    ast.Node
	Parents []ast.Node
}

func (r MatchResult) Decl() *ast.Decl { return r.Context.Decl(r.Node.Decl) }
func (r MatchResult) Expr() *ast.Expr { return r.Context.Expr(r.Node.Expr) }
func (r MatchResult) Stmt() *ast.Stmt { return r.Context.Stmt(r.Node.Stmt) }

// TopLevel reports whether the node is a traversal-scope root.
func (r MatchResult) TopLevel() bool { return len(r.Parents) == 0 }

// Parent returns the nearest ancestor, if any.
func (r MatchResult) Parent() (ast.Node, bool) {
	if len(r.Parents) == 0 {
		return ast.Node{}, false
	}
	return r.Parents[len(r.Parents)-1], true
}

type declMatcher struct {
	kinds []ast.DeclKind
	fn    func(MatchResult)
}

type exprMatcher struct {
	kinds []ast.ExprKind
	fn    func(MatchResult)
}

type stmtMatcher struct {
	kinds []ast.StmtKind
	fn    func(MatchResult)
}

// MatchFinder dispatches AST nodes to registered callbacks.
type MatchFinder struct {
	decls []declMatcher
	exprs []exprMatcher
	stmts []stmtMatcher
}

// OnDecl registers fn for declarations of the given kinds; no kinds means
// every declaration.
func (f *MatchFinder) OnDecl(fn func(MatchResult), kinds ...ast.DeclKind) {
	f.decls = append(f.decls, declMatcher{kinds: kinds, fn: fn})
}

func (f *MatchFinder) OnExpr(fn func(MatchResult), kinds ...ast.ExprKind) {
	f.exprs = append(f.exprs, exprMatcher{kinds: kinds, fn: fn})
}

func (f *MatchFinder) OnStmt(fn func(MatchResult), kinds ...ast.StmtKind) {
	f.stmts = append(f.stmts, stmtMatcher{kinds: kinds, fn: fn})
}

// Empty reports whether nothing was registered.
func (f *MatchFinder) Empty() bool {
	return len(f.decls) == 0 && len(f.exprs) == 0 && len(f.stmts) == 0
}

// MatchAST runs every matcher over the traversal scope of ctx.
func (f *MatchFinder) MatchAST(ctx *ast.Context) {
	if f.Empty() {
		return
	}
	for _, root := range ctx.TraversalScope() {
		ctx.InspectWithParents(root, func(n ast.Node, parents []ast.Node) bool {
			f.dispatch(ctx, n, parents)
			return true
		})
	}
}

func (f *MatchFinder) dispatch(ctx *ast.Context, n ast.Node, parents []ast.Node) {
	res := MatchResult{Context: ctx, Node: n, Parents: parents}
	switch {
	case n.Decl.IsValid():
		d := ctx.Decl(n.Decl)
		for _, m := range f.decls {
			if len(m.kinds) == 0 || slices.Contains(m.kinds, d.Kind) {
				m.fn(res)
			}
		}
	case n.Expr.IsValid():
		e := ctx.Expr(n.Expr)
		for _, m := range f.exprs {
			if len(m.kinds) == 0 || slices.Contains(m.kinds, e.Kind) {
				m.fn(res)
			}
		}
	case n.Stmt.IsValid():
		s := ctx.Stmt(n.Stmt)
		for _, m := range f.stmts {
			if len(m.kinds) == 0 || slices.Contains(m.kinds, s.Kind) {
				m.fn(res)
			}
		}
	}
}
