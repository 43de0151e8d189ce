package lexer

import (
	"unitd/internal/source"
	"unitd/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // one-token lookahead
	hold   []token.Trivia // leading trivia collected so far
	bol    bool           // next token starts a line
	quiet  bool
}

func New(file *source.File, opts Options) *Lexer {
	cur := NewCursor(file)
	if opts.Start > cur.Limit {
		opts.Start = cur.Limit
	}
	cur.Off = opts.Start
	return &Lexer{
		file:   file,
		cursor: cur,
		opts:   opts,
		bol:    opts.Start == 0 || file.Content[opts.Start-1] == '\n',
	}
}

// File returns the buffer being lexed.
func (lx *Lexer) File() *source.File { return lx.file }

// Offset is the byte offset of the next unread character.
func (lx *Lexer) Offset() uint32 {
	if lx.look != nil {
		return lx.look.Span.Start
	}
	return lx.cursor.Off
}

// SetQuiet disables error reporting. The preprocessor lexes skipped
// conditional blocks in quiet mode.
func (lx *Lexer) SetQuiet(q bool) { lx.quiet = q }

// Next returns the next significant token with Leading filled in.
// After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		tok := token.Token{
			Kind:  token.EOF,
			Span:  lx.emptySpan(),
			Flags: token.FlagStartOfLine,
		}
		tok.Leading = lx.hold
		lx.hold = nil
		return tok
	}

	ch := lx.cursor.Peek()
	var tok token.Token

	switch {
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()

	case isDec(ch):
		tok = lx.scanNumber()

	case ch == '.' && lx.isNumberAfterDot():
		tok = lx.scanNumber()

	case ch == '"':
		tok = lx.scanQuoted('"', token.StringLit)

	case ch == '\'':
		tok = lx.scanQuoted('\'', token.CharLit)

	default:
		tok = lx.scanOperatorOrPunct()
	}

	if lx.bol {
		tok.Flags |= token.FlagStartOfLine
	}
	if len(lx.hold) > 0 {
		tok.Flags |= token.FlagLeadingSpace
	}
	lx.bol = false
	tok.Leading = lx.hold
	lx.hold = nil
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// NextHeaderName scans an angle-bracketed header name on the current line.
// It reports false and consumes nothing when the next token is not '<'.
func (lx *Lexer) NextHeaderName() (token.Token, bool) {
	if lx.look != nil {
		return token.Token{}, false
	}
	save := lx.cursor.Mark()
	for b := lx.cursor.Peek(); b == ' ' || b == '\t'; b = lx.cursor.Peek() {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() != '<' {
		lx.cursor.Reset(save)
		return token.Token{}, false
	}
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\n' {
			break
		}
		lx.cursor.Bump()
		if b == '>' {
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.HeaderName, Span: sp, Text: lx.text(sp), Flags: token.FlagLeadingSpace}, true
		}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diagUnterminatedHeader, sp, "expected '>' after header name")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}, true
}

// SkipLine consumes the rest of the current logical line, honouring line
// splices. Used for #error text and ignored directive tails.
func (lx *Lexer) SkipLine() source.Span {
	lx.look = nil
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		b0, b1, ok := lx.cursor.Peek2()
		if ok && b0 == '\\' && b1 == '\n' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		}
		if lx.cursor.Peek() == '\n' {
			break
		}
		lx.cursor.Bump()
	}
	return lx.cursor.SpanFrom(start)
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}
