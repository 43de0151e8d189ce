package canonical

import (
	"strings"

	"unitd/internal/pp"
	"unitd/internal/token"
)

const iwyuPrivate = "IWYU pragma: private, include "

// PragmaHandler records `// IWYU pragma: private, include "x.h"` comments:
// the header carrying the comment maps to the named public header.
type PragmaHandler struct {
	out *Includes
}

func NewPragmaHandler(out *Includes) *PragmaHandler {
	return &PragmaHandler{out: out}
}

func (h *PragmaHandler) HandleComment(p *pp.Preprocessor, c token.Trivia) {
	text := c.Text
	switch c.Kind {
	case token.TriviaLineComment:
		text = strings.TrimPrefix(text, "//")
	case token.TriviaBlockComment:
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	default:
		return
	}
	text = strings.TrimSpace(text)
	spelled, ok := strings.CutPrefix(text, iwyuPrivate)
	if !ok {
		return
	}
	spelled = strings.TrimSpace(spelled)
	if !validSpelling(spelled) {
		return
	}
	f := p.Files().Get(c.Span.File)
	if f == nil {
		return
	}
	h.out.AddMapping(f.Path, spelled)
}

func validSpelling(s string) bool {
	if len(s) < 3 {
		return false
	}
	return (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '<' && s[len(s)-1] == '>')
}
