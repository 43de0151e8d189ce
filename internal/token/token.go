package token

import (
	"unitd/internal/source"
)

// Flags carries lexer-level facts about a token's surroundings.
type Flags uint8

const (
	// FlagStartOfLine is set on the first token of a physical line.
	FlagStartOfLine Flags = 1 << iota
	// FlagLeadingSpace is set when whitespace or a comment precedes the token.
	FlagLeadingSpace
	// FlagFromMacro marks tokens produced by macro expansion.
	FlagFromMacro
	// FlagNoExpand marks an identifier that named a macro while that macro
	// was being expanded. It is never expanded again.
	FlagNoExpand
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind     Kind
	Span     source.Span
	Text     string
	Flags    Flags
	Spelling source.Span // for macro tokens: location inside the definition
	Leading  []Trivia
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// AtStartOfLine reports whether the token begins a physical line.
func (t Token) AtStartOfLine() bool { return t.Flags&FlagStartOfLine != 0 }

// FromMacro reports whether the token came out of a macro expansion.
func (t Token) FromMacro() bool { return t.Flags&FlagFromMacro != 0 }
