package ast

import (
	"fmt"
	"io"
	"strings"

	"unitd/internal/source"
)

// Dump writes an indented tree of the traversal scope, one node per line.
func (c *Context) Dump(w io.Writer, files *source.FileSet) error {
	var werr error
	depth := map[Node]int{}
	for _, root := range c.TraversalScope() {
		depth[Node{Decl: root}] = 0
		c.Inspect(root, func(n Node) bool {
			if werr != nil {
				return false
			}
			d := depth[n]
			line := c.describe(n, files)
			if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", d), line); err != nil {
				werr = err
				return false
			}
			c.children(n, func(child Node) { depth[child] = d + 1 })
			return true
		})
	}
	return werr
}

func (c *Context) children(n Node, fn func(Node)) {
	switch {
	case n.Decl.IsValid():
		d := c.Decl(n.Decl)
		fn(Node{Type: d.Type})
		for _, p := range d.Params {
			fn(Node{Decl: p})
		}
		for _, f := range d.Fields {
			fn(Node{Decl: f})
		}
		fn(Node{Expr: d.Init})
		fn(Node{Stmt: d.Body})
	case n.Stmt.IsValid():
		s := c.Stmt(n.Stmt)
		for _, b := range s.Body {
			fn(Node{Stmt: b})
		}
		for _, d := range s.Decls {
			fn(Node{Decl: d})
		}
		fn(Node{Stmt: s.Init})
		fn(Node{Expr: s.Expr})
		fn(Node{Expr: s.Post})
		fn(Node{Stmt: s.Then})
		fn(Node{Stmt: s.Else})
	case n.Expr.IsValid():
		e := c.Expr(n.Expr)
		fn(Node{Type: e.Type})
		fn(Node{Expr: e.X})
		fn(Node{Expr: e.Y})
		fn(Node{Expr: e.Z})
		for _, a := range e.Args {
			fn(Node{Expr: a})
		}
	case n.Type.IsValid():
		t := c.Type(n.Type)
		if t.Owned {
			fn(Node{Decl: t.Decl})
		}
		fn(Node{Type: t.Elem})
		fn(Node{Expr: t.Size})
		for _, p := range t.Params {
			fn(Node{Type: p})
		}
	}
}

func (c *Context) describe(n Node, files *source.FileSet) string {
	pos := func(sp source.Span) string {
		if files == nil {
			return sp.String()
		}
		start, _ := files.Resolve(sp)
		return fmt.Sprintf("line:%d:%d", start.Line, start.Col)
	}
	switch {
	case n.Decl.IsValid():
		d := c.Decl(n.Decl)
		return fmt.Sprintf("%s <%s> %s", d.Kind, pos(d.Span), d.Name)
	case n.Stmt.IsValid():
		s := c.Stmt(n.Stmt)
		return fmt.Sprintf("%s <%s>", s.Kind, pos(s.Span))
	case n.Expr.IsValid():
		e := c.Expr(n.Expr)
		if e.Text != "" {
			return fmt.Sprintf("%s <%s> %s", e.Kind, pos(e.Span), e.Text)
		}
		if e.Op != 0 {
			return fmt.Sprintf("%s <%s> '%s'", e.Kind, pos(e.Span), e.Op)
		}
		return fmt.Sprintf("%s <%s>", e.Kind, pos(e.Span))
	case n.Type.IsValid():
		return fmt.Sprintf("Type %s", c.TypeString(n.Type))
	}
	return "?"
}

// TypeString renders a written type the way C spells it, approximately.
func (c *Context) TypeString(id TypeID) string {
	t := c.Type(id)
	if t == nil {
		return "int"
	}
	prefix := ""
	if t.Const {
		prefix = "const "
	}
	switch t.Kind {
	case TypeBuiltin, TypeNamed:
		return prefix + t.Name
	case TypeRecord:
		kw := "struct"
		if d := c.Decl(t.Decl); d != nil && d.Has(DeclUnion) {
			kw = "union"
		}
		return prefix + kw + " " + t.Name
	case TypeEnum:
		return prefix + "enum " + t.Name
	case TypePointer:
		return c.TypeString(t.Elem) + " *" + strings.TrimSpace(prefix)
	case TypeArray:
		return c.TypeString(t.Elem) + " []"
	case TypeFunc:
		params := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, c.TypeString(p))
		}
		return c.TypeString(t.Elem) + " (" + strings.Join(params, ", ") + ")"
	}
	return "<invalid>"
}
