package lexer

import (
	"unitd/internal/diag"
	"unitd/internal/token"
)

// Поддержка: 0, 123, 0x..., 017, 1.0, .5, 1e-3, 0x1p3, суффиксы u/l/f.
// Суффиксы остаются в Token.Text; Kind ставим как IntLit/FloatLit по факту.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit
	hex := false

	if lx.cursor.Peek() == '0' {
		if _, b1, ok := lx.cursor.Peek2(); ok && (b1 == 'x' || b1 == 'X') {
			lx.cursor.Bump()
			lx.cursor.Bump()
			hex = true
			if !isHex(lx.cursor.Peek()) && lx.cursor.Peek() != '.' {
				sp := lx.cursor.SpanFrom(start)
				lx.errLex(diag.LexBadNumber, sp, "expected hexadecimal digit")
				return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
			}
		}
	}

	digit := isDec
	if hex {
		digit = isHex
	}
	for digit(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		kind = token.FloatLit
		for digit(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}

	exp := lx.cursor.Peek()
	if (!hex && (exp == 'e' || exp == 'E')) || (hex && (exp == 'p' || exp == 'P')) {
		kind = token.FloatLit
		lx.cursor.Bump()
		if lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexBadNumber, sp, "exponent has no digits")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}

	// суффиксы: u, l, ll, f (в любом регистре и порядке)
	for {
		switch lx.cursor.Peek() {
		case 'u', 'U', 'l', 'L':
			lx.cursor.Bump()
			continue
		case 'f', 'F':
			if kind == token.FloatLit {
				lx.cursor.Bump()
				continue
			}
		}
		break
	}

	if isIdentContinueByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexBadNumber, sp, "invalid suffix on numeric literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}

	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
