package ast

// Node is one visited node; exactly one ID is set.
type Node struct {
	Decl DeclID
	Stmt StmtID
	Expr ExprID
	Type TypeID
}

// Inspect walks the subtree rooted at the declaration in depth-first
// order. When fn returns false the children of that node are skipped.
func (c *Context) Inspect(root DeclID, fn func(Node) bool) {
	w := walker{c: c, fn: func(n Node, _ []Node) bool { return fn(n) }}
	w.decl(root)
}

// InspectWithParents is Inspect with the chain of ancestors of each node,
// outermost first. The slice is reused between calls.
func (c *Context) InspectWithParents(root DeclID, fn func(n Node, parents []Node) bool) {
	w := walker{c: c, fn: fn}
	w.decl(root)
}

// InspectScope walks every root of the traversal scope.
func (c *Context) InspectScope(fn func(Node) bool) {
	for _, id := range c.TraversalScope() {
		c.Inspect(id, fn)
	}
}

type walker struct {
	c       *Context
	fn      func(Node, []Node) bool
	parents []Node
}

func (w *walker) enter(n Node) bool {
	if !w.fn(n, w.parents) {
		return false
	}
	w.parents = append(w.parents, n)
	return true
}

func (w *walker) leave() { w.parents = w.parents[:len(w.parents)-1] }

func (w *walker) decl(id DeclID) {
	d := w.c.Decl(id)
	if d == nil || !w.enter(Node{Decl: id}) {
		return
	}
	defer w.leave()
	w.typ(d.Type)
	for _, p := range d.Params {
		w.decl(p)
	}
	for _, f := range d.Fields {
		w.decl(f)
	}
	w.expr(d.Init)
	w.stmt(d.Body)
}

func (w *walker) typ(id TypeID) {
	t := w.c.Type(id)
	if t == nil || !w.enter(Node{Type: id}) {
		return
	}
	defer w.leave()
	if t.Owned {
		w.decl(t.Decl)
	}
	w.typ(t.Elem)
	w.expr(t.Size)
	for _, p := range t.Params {
		w.typ(p)
	}
}

func (w *walker) stmt(id StmtID) {
	s := w.c.Stmt(id)
	if s == nil || !w.enter(Node{Stmt: id}) {
		return
	}
	defer w.leave()
	for _, b := range s.Body {
		w.stmt(b)
	}
	for _, d := range s.Decls {
		w.decl(d)
	}
	w.stmt(s.Init)
	w.expr(s.Expr)
	w.expr(s.Post)
	w.stmt(s.Then)
	w.stmt(s.Else)
}

func (w *walker) expr(id ExprID) {
	e := w.c.Expr(id)
	if e == nil || !w.enter(Node{Expr: id}) {
		return
	}
	defer w.leave()
	w.typ(e.Type)
	w.expr(e.X)
	w.expr(e.Y)
	w.expr(e.Z)
	for _, a := range e.Args {
		w.expr(a)
	}
}
