package parser

import (
	"unitd/internal/ast"
	"unitd/internal/diag"
	"unitd/internal/token"
)

// isDeclStart reports whether a block item at the cursor is a declaration.
func (p *Parser) isDeclStart() bool {
	tok := p.peek()
	if isSpecifierKeyword(tok.Kind) {
		return true
	}
	if tok.Kind != token.Ident {
		return false
	}
	if p.isTypeName(tok.Text) {
		// `T: ...` would be a label; labels are not supported, so any
		// typedef name starts a declaration.
		return true
	}
	return p.guessUnknownType(specBlock)
}

// parseCompound parses '{' block-item* '}'. newScope is false for function
// bodies whose scope already holds the parameters.
func (p *Parser) parseCompound(newScope bool) ast.StmtID {
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'")
	if !ok {
		return p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtCompound, Span: open.Span})
	}
	if newScope {
		p.pushScope()
		defer p.popScope()
	}
	var body []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.opts.Enough() {
			break
		}
		if id := p.parseBlockItem(); id.IsValid() {
			body = append(body, id)
		}
	}
	p.expectClose(token.RBrace, open)
	return p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtCompound, Span: open.Span.Cover(p.lastSpan), Body: body})
}

func (p *Parser) parseBlockItem() ast.StmtID {
	if p.isDeclStart() {
		return p.parseDeclStmt()
	}
	return p.parseStatement()
}

func (p *Parser) parseDeclStmt() ast.StmtID {
	spec := p.parseDeclSpecs(specBlock)
	decls := p.finishDeclaration(spec, false)
	return p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Span: spec.start.Cover(p.lastSpan), Decls: decls})
}

func (p *Parser) parseStatement() ast.StmtID {
	tok := p.peek()
	switch tok.Kind {
	case token.LBrace:
		return p.parseCompound(true)
	case token.Semicolon:
		p.advance()
		return p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtEmpty, Span: tok.Span})
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		p.advance()
		cond := p.parseParenCond()
		body := p.parseStatement()
		return p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtWhile, Span: tok.Span.Cover(p.lastSpan), Expr: cond, Then: body})
	case token.KwDo:
		p.advance()
		body := p.parseStatement()
		p.expect(token.KwWhile, diag.SynUnexpectedToken, "expected 'while' in do/while loop")
		cond := p.parseParenCond()
		if !p.expectSemi("expected ';' after do/while statement") {
			p.resyncStmt()
		}
		return p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtDo, Span: tok.Span.Cover(p.lastSpan), Expr: cond, Then: body})
	case token.KwFor:
		return p.parseFor()
	case token.KwReturn:
		p.advance()
		var val ast.ExprID
		if !p.at(token.Semicolon) {
			val = p.parseExpr()
		}
		if !p.expectSemi("expected ';' after return statement") {
			p.resyncStmt()
		}
		return p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtReturn, Span: tok.Span.Cover(p.lastSpan), Expr: val})
	case token.KwBreak, token.KwContinue:
		p.advance()
		kind := ast.StmtBreak
		if tok.Kind == token.KwContinue {
			kind = ast.StmtContinue
		}
		if !p.expectSemi("expected ';' after " + tok.Text + " statement") {
			p.resyncStmt()
		}
		return p.ctx.NewStmt(ast.Stmt{Kind: kind, Span: tok.Span.Cover(p.lastSpan)})
	case token.KwSwitch, token.KwCase, token.KwDefault, token.KwGoto:
		p.err(diag.SynUnexpectedToken, "'"+tok.Text+"' statements are not supported")
		p.resyncStmt()
		return ast.NoStmtID
	case token.RBrace, token.EOF:
		p.err(diag.SynExpectExpression, "expected statement")
		return ast.NoStmtID
	}

	x := p.parseExpr()
	if !p.expectSemi("expected ';' after expression") {
		p.resyncStmt()
	}
	return p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtExpr, Span: p.ctx.Expr(x).Span.Cover(p.lastSpan), Expr: x})
}

func (p *Parser) parseParenCond() ast.ExprID {
	open, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after keyword")
	if !ok {
		return p.parseExpr()
	}
	cond := p.parseExpr()
	p.expectClose(token.RParen, open)
	return cond
}

func (p *Parser) parseIf() ast.StmtID {
	kw := p.advance()
	s := ast.Stmt{Kind: ast.StmtIf, Expr: p.parseParenCond()}
	s.Then = p.parseStatement()
	if p.at(token.KwElse) {
		p.advance()
		s.Else = p.parseStatement()
	}
	s.Span = kw.Span.Cover(p.lastSpan)
	return p.ctx.NewStmt(s)
}

func (p *Parser) parseFor() ast.StmtID {
	kw := p.advance()
	p.pushScope()
	defer p.popScope()
	s := ast.Stmt{Kind: ast.StmtFor}
	open, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'for'")
	if !ok {
		p.resyncStmt()
		return ast.NoStmtID
	}
	switch {
	case p.at(token.Semicolon):
		p.advance()
	case p.isDeclStart():
		s.Init = p.parseDeclStmt()
	default:
		x := p.parseExpr()
		s.Init = p.ctx.NewStmt(ast.Stmt{Kind: ast.StmtExpr, Span: p.ctx.Expr(x).Span, Expr: x})
		p.expectSemi("expected ';' in 'for' statement specifier")
	}
	if !p.at(token.Semicolon) {
		s.Expr = p.parseExpr()
	}
	p.expectSemi("expected ';' in 'for' statement specifier")
	if !p.at(token.RParen) {
		s.Post = p.parseExpr()
	}
	p.expectClose(token.RParen, open)
	s.Then = p.parseStatement()
	s.Span = kw.Span.Cover(p.lastSpan)
	return p.ctx.NewStmt(s)
}
