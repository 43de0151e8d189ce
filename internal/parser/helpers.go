package parser

import (
	"unitd/internal/diag"
	"unitd/internal/source"
	"unitd/internal/token"
)

// diagSpan picks the span to report at: at EOF it points just past the
// last consumed token.
func (p *Parser) diagSpan() source.Span {
	peek := p.peek()
	if peek.Kind == token.EOF && p.lastSpan.IsValid() {
		return source.Point(p.lastSpan.File, p.lastSpan.End)
	}
	return peek.Span
}

// afterLast points just past the previous token, where clang puts
// "expected ';'" diagnostics.
func (p *Parser) afterLast() source.Span {
	if !p.lastSpan.IsValid() {
		return p.peek().Span
	}
	return source.Point(p.lastSpan.File, p.lastSpan.End)
}

// expect consumes a token of kind k, or reports and returns (invalid, false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	sp := p.diagSpan()
	p.report(code, diag.SevError, sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp}, false
}

// expectSemi reports a missing ';' just after the previous token.
func (p *Parser) expectSemi(msg string) bool {
	if p.at(token.Semicolon) {
		p.advance()
		return true
	}
	p.report(diag.SynExpectSemicolon, diag.SevError, p.afterLast(), msg)
	return false
}

// expectClose consumes the closing delimiter or reports it together with
// a note at the opening one.
func (p *Parser) expectClose(k token.Kind, open token.Token) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	if !p.countError() {
		return false
	}
	diag.ReportError(p.opts.Reporter, diag.SynUnclosedDelimiter, p.diagSpan(), "expected '"+k.String()+"'").
		WithNote(open.Span, "to match this '"+open.Text+"'").
		Emit()
	return false
}

// reports an error at the current token
func (p *Parser) err(code diag.Code, msg string) bool {
	return p.report(code, diag.SevError, p.diagSpan(), msg)
}

func (p *Parser) countError() bool {
	if p.opts.Reporter == nil {
		return false
	}
	p.opts.CurrentErrors++
	return !p.opts.Enough()
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if p.opts.Reporter == nil {
		return false
	}
	if sev.IsError() && code != diag.SynTooManyErrors {
		if !p.countError() {
			return false
		}
	}
	p.opts.Reporter.Report(diag.New(sev, code, sp, msg))
	return true
}

// resyncStmt skips to the end of the current statement: past the next
// ';' at this nesting level, or up to the '}' closing the enclosing block.
func (p *Parser) resyncStmt() {
	depth := 0
	for {
		switch p.peek().Kind {
		case token.EOF:
			return
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				if p.at(token.Semicolon) {
					p.advance()
				}
				return
			}
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// resyncTop recovers from an error at file scope. A stray '}' is
// consumed, otherwise the top-level loop would not advance.
func (p *Parser) resyncTop() {
	if p.at(token.RBrace) {
		p.advance()
		return
	}
	p.resyncStmt()
}
