package parser

import (
	"unitd/internal/ast"
	"unitd/internal/diag"
	"unitd/internal/source"
	"unitd/internal/token"
)

// Таблица приоритетов для бинарных операторов.
// Чем больше число, тем выше приоритет.
const (
	precLogicalOr      = 1 // ||
	precLogicalAnd     = 2 // &&
	precBitwiseOr      = 3 // |
	precBitwiseXor     = 4 // ^
	precBitwiseAnd     = 5 // &
	precEquality       = 6 // == !=
	precComparison     = 7 // < <= > >=
	precShift          = 8 // << >>
	precAdditive       = 9 // + -
	precMultiplicative = 10
)

func binaryPrec(k token.Kind) int {
	switch k {
	case token.OrOr:
		return precLogicalOr
	case token.AndAnd:
		return precLogicalAnd
	case token.Pipe:
		return precBitwiseOr
	case token.Caret:
		return precBitwiseXor
	case token.Amp:
		return precBitwiseAnd
	case token.EqEq, token.BangEq:
		return precEquality
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precComparison
	case token.Shl, token.Shr:
		return precShift
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	}
	return -1 // не бинарный оператор
}

func isAssignOp(k token.Kind) bool {
	switch k {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign,
		token.PercentAssign, token.AmpAssign, token.PipeAssign, token.CaretAssign,
		token.ShlAssign, token.ShrAssign:
		return true
	}
	return false
}

func (p *Parser) span(id ast.ExprID) source.Span {
	if e := p.ctx.Expr(id); e != nil {
		return e.Span
	}
	return p.lastSpan
}

// parseExpr: выражение с оператором запятой.
func (p *Parser) parseExpr() ast.ExprID {
	x := p.parseAssign()
	for p.at(token.Comma) {
		op := p.advance()
		y := p.parseAssign()
		x = p.ctx.NewExpr(ast.Expr{Kind: ast.ExprBinary, Op: op.Kind, Span: p.span(x).Cover(p.span(y)), X: x, Y: y})
	}
	return x
}

func (p *Parser) parseAssign() ast.ExprID {
	x := p.parseCond()
	if !isAssignOp(p.peek().Kind) {
		return x
	}
	op := p.advance()
	y := p.parseAssign()
	return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprAssign, Op: op.Kind, Span: p.span(x).Cover(p.span(y)), X: x, Y: y})
}

func (p *Parser) parseCond() ast.ExprID {
	c := p.parseBinary(precLogicalOr)
	if !p.at(token.Question) {
		return c
	}
	q := p.advance()
	then := p.parseExpr()
	if !p.at(token.Colon) {
		if p.countError() {
			diag.ReportError(p.opts.Reporter, diag.SynUnexpectedToken, p.diagSpan(), "expected ':'").
				WithNote(q.Span, "to match this '?'").
				Emit()
		}
		return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprCond, Span: p.span(c).Cover(p.lastSpan), X: c, Y: then})
	}
	p.advance()
	els := p.parseCond()
	return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprCond, Span: p.span(c).Cover(p.span(els)), X: c, Y: then, Z: els})
}

func (p *Parser) parseBinary(minPrec int) ast.ExprID {
	x := p.parseCast()
	for {
		prec := binaryPrec(p.peek().Kind)
		if prec < minPrec {
			return x
		}
		op := p.advance()
		y := p.parseBinary(prec + 1)
		x = p.ctx.NewExpr(ast.Expr{Kind: ast.ExprBinary, Op: op.Kind, Span: p.span(x).Cover(p.span(y)), X: x, Y: y})
	}
}

func (p *Parser) parseCast() ast.ExprID {
	if !p.at(token.LParen) || !p.startsTypeName(1) {
		return p.parseUnary()
	}
	open := p.advance()
	typ := p.parseTypeName()
	p.expectClose(token.RParen, open)
	if p.at(token.LBrace) {
		// составной литерал
		init := p.parseInitializer()
		lit := p.ctx.NewExpr(ast.Expr{Kind: ast.ExprCast, Span: open.Span.Cover(p.lastSpan), Type: typ, X: init})
		return p.parsePostfix(lit)
	}
	x := p.parseCast()
	return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprCast, Span: open.Span.Cover(p.span(x)), Type: typ, X: x})
}

func (p *Parser) parseUnary() ast.ExprID {
	tok := p.peek()
	switch tok.Kind {
	case token.PlusPlus, token.MinusMinus:
		p.advance()
		x := p.parseUnary()
		return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprUnary, Op: tok.Kind, Span: tok.Span.Cover(p.span(x)), X: x})
	case token.Amp, token.Star, token.Plus, token.Minus, token.Tilde, token.Bang:
		p.advance()
		x := p.parseCast()
		return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprUnary, Op: tok.Kind, Span: tok.Span.Cover(p.span(x)), X: x})
	case token.KwSizeof:
		p.advance()
		if p.at(token.LParen) && p.startsTypeName(1) {
			open := p.advance()
			typ := p.parseTypeName()
			p.expectClose(token.RParen, open)
			return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprSizeofType, Op: tok.Kind, Span: tok.Span.Cover(p.lastSpan), Type: typ})
		}
		x := p.parseUnary()
		return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprUnary, Op: tok.Kind, Span: tok.Span.Cover(p.span(x)), X: x})
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(x ast.ExprID) ast.ExprID {
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			p.expectClose(token.RBracket, tok)
			x = p.ctx.NewExpr(ast.Expr{Kind: ast.ExprIndex, Span: p.span(x).Cover(p.lastSpan), X: x, Y: idx})
		case token.LParen:
			p.advance()
			var args []ast.ExprID
			for !p.at(token.RParen) && !p.at(token.EOF) && !p.at(token.Semicolon) {
				args = append(args, p.parseAssign())
				if !p.at(token.Comma) {
					break
				}
				p.advance()
			}
			p.expectClose(token.RParen, tok)
			x = p.ctx.NewExpr(ast.Expr{Kind: ast.ExprCall, Span: p.span(x).Cover(p.lastSpan), X: x, Args: args})
		case token.Dot, token.Arrow:
			p.advance()
			name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected member name")
			if !ok {
				return x
			}
			x = p.ctx.NewExpr(ast.Expr{
				Kind:  ast.ExprMember,
				Span:  p.span(x).Cover(name.Span),
				X:     x,
				Text:  name.Text,
				Arrow: tok.Kind == token.Arrow,
				Y:     p.ctx.NewExpr(ast.Expr{Kind: ast.ExprIdent, Span: name.Span, Text: name.Text}),
			})
		case token.PlusPlus, token.MinusMinus:
			p.advance()
			x = p.ctx.NewExpr(ast.Expr{Kind: ast.ExprPostfix, Op: tok.Kind, Span: p.span(x).Cover(tok.Span), X: x})
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.ExprID {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprIdent, Span: tok.Span, Text: tok.Text})
	case token.IntLit, token.CharLit, token.FloatLit:
		p.advance()
		kind := ast.ExprIntLit
		switch tok.Kind {
		case token.CharLit:
			kind = ast.ExprCharLit
		case token.FloatLit:
			kind = ast.ExprFloatLit
		}
		return p.ctx.NewExpr(ast.Expr{Kind: kind, Span: tok.Span, Text: tok.Text})
	case token.StringLit:
		p.advance()
		text, sp := tok.Text, tok.Span
		for p.at(token.StringLit) {
			next := p.advance()
			text += " " + next.Text
			sp = sp.Cover(next.Span)
		}
		return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprStringLit, Span: sp, Text: text})
	case token.LParen:
		p.advance()
		x := p.parseExpr()
		p.expectClose(token.RParen, tok)
		return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprParen, Span: tok.Span.Cover(p.lastSpan), X: x})
	}
	sp := p.diagSpan()
	p.err(diag.SynExpectExpression, "expected expression")
	switch tok.Kind {
	case token.Semicolon, token.RParen, token.RBrace, token.RBracket, token.Comma, token.EOF:
	default:
		p.advance()
	}
	return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprInvalid, Span: sp})
}
