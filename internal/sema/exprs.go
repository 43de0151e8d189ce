package sema

import (
	"unitd/internal/ast"
	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/token"
)

// checkCompound checks a block in sc itself; function bodies share the
// scope of their parameters.
func (s *Sema) checkCompound(id ast.StmtID, sc *Scope) {
	st := s.ctx.Stmt(id)
	if st == nil {
		return
	}
	for _, b := range st.Body {
		s.checkStmt(b, sc)
	}
}

func (s *Sema) checkStmt(id ast.StmtID, sc *Scope) {
	st := s.ctx.Stmt(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case ast.StmtCompound:
		s.checkCompound(id, newScope(ScopeBlock, sc))
	case ast.StmtDecl:
		for _, d := range st.Decls {
			s.actOnDecl(d, sc)
		}
	case ast.StmtFor:
		inner := newScope(ScopeBlock, sc)
		s.checkStmt(st.Init, inner)
		s.checkExpr(st.Expr, inner)
		s.checkExpr(st.Post, inner)
		s.checkStmt(st.Then, inner)
	default:
		s.checkExpr(st.Expr, sc)
		s.checkStmt(st.Then, sc)
		s.checkStmt(st.Else, sc)
	}
}

// checkExpr resolves identifiers and returns the expression's type.
func (s *Sema) checkExpr(id ast.ExprID, sc *Scope) TypeRef {
	e := s.ctx.Expr(id)
	if e == nil {
		return unknownType
	}
	switch e.Kind {
	case ast.ExprIdent:
		return s.checkIdent(e, sc, false)
	case ast.ExprIntLit, ast.ExprCharLit, ast.ExprFloatLit:
		return TypeRef{Base: BaseScalar}
	case ast.ExprStringLit:
		return TypeRef{Base: BaseScalar, Name: "char", Ptr: 1}
	case ast.ExprParen:
		return s.checkExpr(e.X, sc)
	case ast.ExprUnary:
		x := s.checkExpr(e.X, sc)
		switch e.Op {
		case token.Amp:
			if x.IsUnknown() {
				return x
			}
			return x.pointerTo()
		case token.Star:
			if x.IsUnknown() {
				return x
			}
			return x.deref()
		case token.PlusPlus, token.MinusMinus:
			return x
		}
		return TypeRef{Base: BaseScalar}
	case ast.ExprPostfix:
		return s.checkExpr(e.X, sc)
	case ast.ExprBinary:
		x := s.checkExpr(e.X, sc)
		y := s.checkExpr(e.Y, sc)
		switch {
		case e.Op == token.Comma:
			return y
		case (e.Op == token.Plus || e.Op == token.Minus) && x.Ptr > 0:
			return x
		case e.Op == token.Plus && y.Ptr > 0:
			return y
		}
		return TypeRef{Base: BaseScalar}
	case ast.ExprAssign:
		x := s.checkExpr(e.X, sc)
		s.checkExpr(e.Y, sc)
		return x
	case ast.ExprCond:
		s.checkExpr(e.X, sc)
		y := s.checkExpr(e.Y, sc)
		s.checkExpr(e.Z, sc)
		return y
	case ast.ExprCall:
		return s.checkCall(e, sc)
	case ast.ExprMember:
		return s.checkMember(e, sc)
	case ast.ExprIndex:
		x := s.checkExpr(e.X, sc)
		s.checkExpr(e.Y, sc)
		if x.IsUnknown() {
			return x
		}
		return x.deref()
	case ast.ExprCast:
		t := s.resolveType(e.Type, sc)
		s.checkExpr(e.X, sc)
		return t
	case ast.ExprSizeofType:
		t := s.resolveType(e.Type, sc)
		if t.IsRecordObject() {
			if info := sc.lookupTag(t.Tag); info != nil && !info.complete {
				s.requireComplete(t, info, s.ctx.Type(e.Type).Span, "invalid application of 'sizeof' to an incomplete type '%s'")
			}
		}
		return TypeRef{Base: BaseScalar, Name: "unsigned long"}
	case ast.ExprInitList:
		for _, a := range e.Args {
			s.checkExpr(a, sc)
		}
		return unknownType
	}
	return unknownType
}

// checkIdent binds an identifier to its declaration. Callee position
// changes the diagnostic: C99 dropped implicit function declarations.
func (s *Sema) checkIdent(e *ast.Expr, sc *Scope, callee bool) TypeRef {
	sym := sc.lookup(e.Text)
	if sym == nil {
		s.notFound(e.Text, e.Span, LookupOrdinary)
		switch {
		case callee && s.opts.Lang.Std == config.StdC89:
			s.warnf(diag.SemaUndeclaredIdentifier, e.Span, "implicit declaration of function '%s'", e.Text).Emit()
		case callee:
			s.errorf(diag.SemaUndeclaredIdentifier, e.Span,
				"call to undeclared function '%s'; ISO C99 and later do not support implicit function declarations", e.Text).Emit()
		default:
			s.errorf(diag.SemaUndeclaredIdentifier, e.Span, "use of undeclared identifier '%s'", e.Text).Emit()
		}
		return unknownType
	}
	if sym.kind == SymTypedef {
		s.errorf(diag.SemaUndeclaredIdentifier, e.Span, "unexpected type name '%s': expected expression", e.Text).Emit()
		return unknownType
	}
	e.Ref = sym.decl
	return sym.typ
}

func (s *Sema) checkCall(e *ast.Expr, sc *Scope) TypeRef {
	var callee TypeRef
	var calleeSym *symbol
	if x := s.ctx.Expr(e.X); x != nil && x.Kind == ast.ExprIdent {
		callee = s.checkIdent(x, sc, true)
		calleeSym = sc.lookup(x.Text)
	} else {
		callee = s.checkExpr(e.X, sc)
	}
	for _, a := range e.Args {
		s.checkExpr(a, sc)
	}
	if callee.IsUnknown() {
		return unknownType
	}
	if callee.Func == nil || callee.Func.Ptr > 1 {
		s.errorf(diag.SemaNotAFunction, s.ctx.Expr(e.X).Span,
			"called object type '%s' is not a function or function pointer", callee).Emit()
		return unknownType
	}
	sig := callee.Func
	n := len(e.Args)
	if !sig.NoProto && (n < sig.Params || (n > sig.Params && !sig.Variadic)) {
		var b *diag.ReportBuilder
		if n < sig.Params {
			b = s.errorf(diag.SemaArgCount, e.Span, "too few arguments to function call, expected %d, have %d", sig.Params, n)
		} else {
			b = s.errorf(diag.SemaArgCount, s.ctx.Expr(e.Args[sig.Params]).Span, "too many arguments to function call, expected %d, have %d", sig.Params, n)
		}
		if calleeSym != nil && calleeSym.kind == SymFunc {
			s.withPrev(b, calleeSym.span, calleeSym.loc, "'"+calleeSym.name+"' declared here")
		}
		b.Emit()
	}
	return callee.result()
}

func (s *Sema) checkMember(e *ast.Expr, sc *Scope) TypeRef {
	base := s.checkExpr(e.X, sc)
	if base.IsUnknown() {
		return unknownType
	}
	if e.Arrow {
		if base.Ptr == 0 || base.Func != nil {
			s.errorf(diag.SemaNoMember, e.Span, "member reference type '%s' is not a pointer", base).Emit()
			return unknownType
		}
		base = base.deref()
	}
	if base.Base != BaseRecord || base.Ptr != 0 || base.Func != nil {
		msg := "member reference base type '%s' is not a structure or union"
		if base.Base == BaseRecord && base.Ptr == 1 && !e.Arrow {
			msg = "member reference type '%s' is a pointer; did you mean to use '->'?"
		}
		s.errorf(diag.SemaNoMember, e.Span, msg, base).Emit()
		return unknownType
	}
	info := sc.lookupTag(base.Tag)
	if info == nil {
		return unknownType
	}
	if !info.complete {
		s.requireComplete(base, info, s.ctx.Expr(e.X).Span, "incomplete definition of type '%s'")
		return unknownType
	}
	ft, ok := info.fields[nameKey(e.Text)]
	if !ok {
		sp := e.Span
		if name := s.ctx.Expr(e.Y); name != nil {
			sp = name.Span
		}
		s.errorf(diag.SemaNoMember, sp, "no member named '%s' in '%s'", e.Text, base).Emit()
		return unknownType
	}
	return ft
}
