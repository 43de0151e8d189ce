package lexer

import (
	"unitd/internal/diag"
	"unitd/internal/token"
)

// longest first: maximal munch
var multiPunct = []struct {
	text string
	kind token.Kind
}{
	{"...", token.Ellipsis},
	{"<<=", token.ShlAssign},
	{">>=", token.ShrAssign},
	{"##", token.HashHash},
	{"->", token.Arrow},
	{"++", token.PlusPlus},
	{"--", token.MinusMinus},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"==", token.EqEq},
	{"!=", token.BangEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"<<", token.Shl},
	{">>", token.Shr},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"&=", token.AmpAssign},
	{"|=", token.PipeAssign},
	{"^=", token.CaretAssign},
}

var singlePunct = [256]token.Kind{
	'#': token.Hash,
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	'[': token.LBracket,
	']': token.RBracket,
	';': token.Semicolon,
	',': token.Comma,
	'.': token.Dot,
	'?': token.Question,
	':': token.Colon,
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'&': token.Amp,
	'|': token.Pipe,
	'^': token.Caret,
	'~': token.Tilde,
	'!': token.Bang,
	'=': token.Assign,
	'<': token.Lt,
	'>': token.Gt,
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	kind := token.Invalid
	for _, p := range multiPunct {
		if lx.eatPunct(p.text) {
			kind = p.kind
			break
		}
	}
	if kind == token.Invalid {
		kind = singlePunct[lx.cursor.Bump()]
	}

	sp := lx.cursor.SpanFrom(start)
	if kind == token.Invalid {
		lx.errLex(diag.LexUnknownChar, sp, "unknown character")
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
