package lexer

import (
	"unitd/internal/diag"
	"unitd/internal/source"
)

type Options struct {
	Reporter diag.Reporter // may be nil: errors are dropped, lexing goes on
	// Start is the byte offset lexing begins at. The preprocessor uses it to
	// resume the main file after a cached preamble.
	Start uint32
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter == nil || lx.quiet {
		return
	}
	diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
}
