package ast

import (
	"unitd/internal/source"
	"unitd/internal/token"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprIntLit
	ExprFloatLit
	ExprCharLit
	ExprStringLit
	ExprUnary   // prefix op X
	ExprPostfix // X op
	ExprBinary
	ExprAssign
	ExprCond
	ExprCall
	ExprMember
	ExprIndex
	ExprCast
	ExprSizeofType
	ExprParen
	ExprInitList // { a, b }
	ExprInvalid
)

var exprKindNames = [...]string{
	ExprIdent: "DeclRefExpr", ExprIntLit: "IntegerLiteral", ExprFloatLit: "FloatingLiteral",
	ExprCharLit: "CharacterLiteral", ExprStringLit: "StringLiteral", ExprUnary: "UnaryOperator",
	ExprPostfix: "UnaryOperator", ExprBinary: "BinaryOperator", ExprAssign: "BinaryOperator",
	ExprCond: "ConditionalOperator", ExprCall: "CallExpr", ExprMember: "MemberExpr",
	ExprIndex: "ArraySubscriptExpr", ExprCast: "CStyleCastExpr", ExprSizeofType: "UnaryExprOrTypeTraitExpr",
	ExprParen: "ParenExpr", ExprInitList: "InitListExpr", ExprInvalid: "RecoveryExpr",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Expr"
}

type Expr struct {
	Kind  ExprKind
	Op    token.Kind
	Span  source.Span
	Text  string // identifier, literal spelling, member name
	X     ExprID
	Y     ExprID
	Z     ExprID
	Args  []ExprID
	Type  TypeID // cast, sizeof(type)
	Arrow bool   // member via ->
	Ref   DeclID // filled by sema for identifiers
}
