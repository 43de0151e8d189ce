package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"

	"unitd/internal/diag"
)

const (
	utf8RuneSelf           = utf8.RuneSelf
	diagUnterminatedHeader = diag.LexUnterminatedHeaderName
)

// peekRune decodes the rune at the cursor; size 0 at the end.
func (lx *Lexer) peekRune() (rune, int) {
	b, ok := lx.cursor.PeekAt(0)
	switch {
	case !ok:
		return utf8.RuneError, 0
	case b < utf8.RuneSelf:
		return rune(b), 1
	}
	return utf8.DecodeRune(lx.file.Content[lx.cursor.Off:lx.cursor.Limit])
}

// bumpRune skips one (possibly multi-byte) rune.
func (lx *Lexer) bumpRune() {
	_, sz := lx.peekRune()
	n, err := safecast.Conv[uint32](sz)
	if err != nil {
		panic(fmt.Errorf("rune size: %w", err))
	}
	lx.cursor.Off += n
}

// identifiers: ASCII fast path, the rest through unicode
func isIdentStartByte(b byte) bool {
	return b == '_' || ('a' <= b|0x20 && b|0x20 <= 'z')
}

func isIdentContinueByte(b byte) bool { return isIdentStartByte(b) || isDec(b) }

func isIdentStartRune(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentContinueRune(r rune) bool {
	return isIdentStartRune(r) || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc)
}

func isDec(b byte) bool { return '0' <= b && b <= '9' }

func isHex(b byte) bool { return isDec(b) || ('a' <= b|0x20 && b|0x20 <= 'f') }

// ".5" starts a number, "." alone does not.
func (lx *Lexer) isNumberAfterDot() bool {
	b0, b1, ok := lx.cursor.Peek2()
	return ok && b0 == '.' && isDec(b1)
}

// eatPunct consumes s when the input continues with it.
func (lx *Lexer) eatPunct(s string) bool {
	if !lx.cursor.HasPrefix(s) {
		return false
	}
	lx.cursor.Off += uint32(len(s))
	return true
}
