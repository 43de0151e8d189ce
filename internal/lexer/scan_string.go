package lexer

import (
	"unitd/internal/diag"
	"unitd/internal/token"
)

// scanQuoted сканирует "..." и '...'. Escape-последовательности не
// валидируются: '\' просто съедает следующий байт.
func (lx *Lexer) scanQuoted(quote byte, kind token.Kind) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	code, what := diag.LexUnterminatedString, "string literal"
	if kind == token.CharLit {
		code, what = diag.LexUnterminatedChar, "character constant"
	}
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == quote {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
		}
		if b == '\\' {
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if b == '\n' {
			break
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(code, sp, "missing terminating "+string(quote)+" in "+what)
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
