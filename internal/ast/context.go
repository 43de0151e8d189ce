package ast

import (
	"unsafe"

	"unitd/internal/source"
)

type Hints struct{ Decls, Stmts, Exprs, Types uint }

// Context owns every node of one translation unit.
type Context struct {
	Decls *Arena[Decl]
	Stmts *Arena[Stmt]
	Exprs *Arena[Expr]
	Types *Arena[TypeSpec]

	topLevel []DeclID
	scope    []DeclID
	scoped   bool
}

func NewContext(hints Hints) *Context {
	if hints.Decls == 0 {
		hints.Decls = 1 << 7
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	if hints.Types == 0 {
		hints.Types = 1 << 7
	}
	return &Context{
		Decls: NewArena[Decl](hints.Decls),
		Stmts: NewArena[Stmt](hints.Stmts),
		Exprs: NewArena[Expr](hints.Exprs),
		Types: NewArena[TypeSpec](hints.Types),
	}
}

func (c *Context) NewDecl(d Decl) DeclID { return DeclID(c.Decls.Allocate(d)) }
func (c *Context) NewStmt(s Stmt) StmtID { return StmtID(c.Stmts.Allocate(s)) }
func (c *Context) NewExpr(e Expr) ExprID { return ExprID(c.Exprs.Allocate(e)) }
func (c *Context) NewType(t TypeSpec) TypeID { return TypeID(c.Types.Allocate(t)) }
func (c *Context) Decl(id DeclID) *Decl { return c.Decls.Get(uint32(id)) }
func (c *Context) Stmt(id StmtID) *Stmt { return c.Stmts.Get(uint32(id)) }
func (c *Context) Expr(id ExprID) *Expr { return c.Exprs.Get(uint32(id)) }
func (c *Context) Type(id TypeID) *TypeSpec { return c.Types.Get(uint32(id)) }
func (c *Context) AddTopLevel(id DeclID) { c.topLevel = append(c.topLevel, id) }
func (c *Context) TopLevel() []DeclID { return c.topLevel }
func (c *Context) DeclSpan(id DeclID) source.Span {
	if d := c.Decl(id); d != nil {
		return d.Span
	}
	return source.Span{}
}

// SetTraversalScope restricts whole-unit traversals to decls.
func (c *Context) SetTraversalScope(decls []DeclID) {
	c.scope = append([]DeclID(nil), decls...)
	c.scoped = true
}

// TraversalScope is the set of roots a whole-unit traversal visits: the
// scope set by SetTraversalScope, else every top-level declaration.
func (c *Context) TraversalScope() []DeclID {
	if c.scoped {
		return c.scope
	}
	return c.topLevel
}

// MemoryUsage sums arena capacities.
func (c *Context) MemoryUsage() uint64 {
	total := c.Decls.Bytes() + c.Stmts.Bytes() + c.Exprs.Bytes() + c.Types.Bytes()
	total += uint64(cap(c.topLevel)+cap(c.scope)) * uint64(unsafe.Sizeof(DeclID(0)))
	return total
}

// Release drops all nodes. The context must not be used afterwards.
func (c *Context) Release() {
	c.Decls.Release()
	c.Stmts.Release()
	c.Exprs.Release()
	c.Types.Release()
	c.topLevel = nil
	c.scope = nil
}
