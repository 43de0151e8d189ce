package unit

import (
	"unitd/internal/lexer"
	"unitd/internal/pp"
	"unitd/internal/source"
	"unitd/internal/token"
)

// TokenBuffer holds the main-file tokens seen by the parser and, on
// demand, the raw spelled tokens of the main file.
type TokenBuffer struct {
	main     *source.File
	expanded []token.Token
	spelled  []token.Token
	lexed    bool
}

// collectTokens installs a watcher on p recording tokens that come from
// the main file, macro expansions included. Call stop to detach it.
func collectTokens(p *pp.Preprocessor, main *source.File) (buf *TokenBuffer, stop func()) {
	buf = &TokenBuffer{main: main}
	p.SetTokenWatcher(func(t token.Token) {
		if t.Kind == token.EOF || t.Span.File != main.ID {
			return
		}
		buf.expanded = append(buf.expanded, t)
	})
	return buf, func() { p.SetTokenWatcher(nil) }
}

// Expanded returns tokens after preprocessing, in parse order. Tokens
// of a cached prefix are not included.
func (b *TokenBuffer) Expanded() []token.Token {
	if b == nil {
		return nil
	}
	return b.expanded
}

// Spelled lexes the whole main file without preprocessing.
func (b *TokenBuffer) Spelled() []token.Token {
	if b == nil || b.main == nil {
		return nil
	}
	if !b.lexed {
		b.lexed = true
		lx := lexer.New(b.main, lexer.Options{})
		for t := lx.Next(); t.Kind != token.EOF; t = lx.Next() {
			b.spelled = append(b.spelled, t)
		}
	}
	return b.spelled
}

func (b *TokenBuffer) memoryUsage() uint64 {
	if b == nil {
		return 0
	}
	return uint64(cap(b.expanded)+cap(b.spelled)) * tokenSize
}
