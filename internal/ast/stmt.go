package ast

import "unitd/internal/source"

type StmtKind uint8

const (
	StmtCompound StmtKind = iota
	StmtDecl
	StmtExpr
	StmtReturn
	StmtIf
	StmtWhile
	StmtDo
	StmtFor
	StmtBreak
	StmtContinue
	StmtEmpty
)

var stmtKindNames = [...]string{
	StmtCompound: "CompoundStmt", StmtDecl: "DeclStmt", StmtExpr: "ExprStmt",
	StmtReturn: "ReturnStmt", StmtIf: "IfStmt", StmtWhile: "WhileStmt", StmtDo: "DoStmt",
	StmtFor: "ForStmt", StmtBreak: "BreakStmt", StmtContinue: "ContinueStmt", StmtEmpty: "NullStmt",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "Stmt"
}

type Stmt struct {
	Kind  StmtKind
	Span  source.Span
	Body  []StmtID // compound
	Decls []DeclID // decl stmt
	Expr  ExprID   // expr stmt, return value, condition
	Init  StmtID   // for
	Post  ExprID   // for
	Then  StmtID   // if; loop body
	Else  StmtID
}
