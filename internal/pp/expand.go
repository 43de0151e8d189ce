package pp

import (
	"fmt"
	"strings"

	"unitd/internal/diag"
	"unitd/internal/lexer"
	"unitd/internal/source"
	"unitd/internal/token"
)

// scratchName names the buffers holding pasted tokens.
const scratchName = "<scratch space>"

// expand replaces nameTok with the expansion of mi. It returns false when a
// function-like macro name is not followed by '(' and must stay an
// identifier.
func (pp *Preprocessor) expand(nameTok token.Token, mi *MacroInfo) bool {
	rng := nameTok.Span
	var args [][]token.Token
	if mi.FunctionLike {
		lp := pp.next()
		if lp.Kind != token.LParen {
			pp.pushBack(lp)
			return false
		}
		var (
			rp token.Token
			ok bool
		)
		args, rp, ok = pp.collectArgs(nameTok, mi)
		if !ok {
			return true
		}
		if !nameTok.FromMacro() && !rp.FromMacro() && rp.Span.File == rng.File {
			rng = rng.Cover(rp.Span)
		}
		if args, ok = pp.checkArgCount(nameTok, mi, args); !ok {
			return true
		}
	}
	pp.dispatch(func(cb Callbacks) { cb.MacroExpands(nameTok, mi, rng) })
	body := pp.substitute(mi, args, rng)
	if len(body) > 0 {
		body[0].Flags = body[0].Flags&^token.FlagLeadingSpace | nameTok.Flags&token.FlagLeadingSpace
	}
	pp.frames = append(pp.frames, &expFrame{toks: body, macro: mi})
	return true
}

func (pp *Preprocessor) collectArgs(nameTok token.Token, mi *MacroInfo) ([][]token.Token, token.Token, bool) {
	args := [][]token.Token{nil}
	depth := 0
	for {
		t := pp.next()
		switch t.Kind {
		case token.EOF:
			pp.pushBack(t)
			pp.report(diag.SevError, diag.PPUnterminatedMacroCall, nameTok.Span, "unterminated function-like macro invocation").Emit()
			return nil, t, false
		case token.LParen:
			depth++
		case token.RParen:
			if depth == 0 {
				return args, t, true
			}
			depth--
		case token.Comma:
			if depth == 0 && !(mi.Variadic && len(args) == len(mi.Params)) {
				args = append(args, nil)
				continue
			}
		}
		args[len(args)-1] = append(args[len(args)-1], t)
	}
}

func (pp *Preprocessor) checkArgCount(nameTok token.Token, mi *MacroInfo, args [][]token.Token) ([][]token.Token, bool) {
	if len(mi.Params) == 0 && len(args) == 1 && len(args[0]) == 0 {
		return nil, true
	}
	if mi.Variadic && len(args) == len(mi.Params)-1 {
		return append(args, nil), true
	}
	if len(args) == len(mi.Params) {
		return args, true
	}
	msg := "too few arguments provided to function-like macro invocation"
	if len(args) > len(mi.Params) {
		msg = "too many arguments provided to function-like macro invocation"
	}
	pp.report(diag.SevError, diag.PPMacroArgCount, nameTok.Span, msg).
		WithNote(mi.NameSpan, fmt.Sprintf("macro '%s' defined here", mi.Name)).Emit()
	return nil, false
}

// markExpanded relocates t to the expansion range, keeping its spelling.
func markExpanded(t token.Token, rng source.Span) token.Token {
	spelling := t.Span
	if t.FromMacro() {
		spelling = t.Spelling
	}
	t.Spelling = spelling
	t.Span = rng
	t.Flags = t.Flags&^token.FlagStartOfLine | token.FlagFromMacro
	t.Leading = nil
	return t
}

func (pp *Preprocessor) substitute(mi *MacroInfo, args [][]token.Token, rng source.Span) []token.Token {
	body := mi.Body
	out := make([]token.Token, 0, len(body))
	expanded := make([][]token.Token, len(args))
	done := make([]bool, len(args))
	pasteNext := false

	emit := func(toks []token.Token, lead token.Flags) {
		if len(toks) > 0 {
			toks[0].Flags = toks[0].Flags&^token.FlagLeadingSpace | lead
		}
		if pasteNext && len(toks) > 0 && len(out) > 0 {
			out[len(out)-1] = pp.paste(out[len(out)-1], toks[0], rng)
			toks = toks[1:]
		}
		pasteNext = false
		out = append(out, toks...)
	}
	param := func(t token.Token) int {
		if !mi.FunctionLike || !isMacroName(t) {
			return -1
		}
		return mi.paramIndex(t.Text)
	}

	for i := 0; i < len(body); i++ {
		t := body[i]
		lead := t.Flags & token.FlagLeadingSpace
		if t.Kind == token.HashHash && i > 0 && i < len(body)-1 {
			pasteNext = true
			continue
		}
		if mi.FunctionLike && t.Kind == token.Hash && i+1 < len(body) {
			if idx := param(body[i+1]); idx >= 0 {
				str := stringify(args[idx])
				str.Span = t.Span
				emit([]token.Token{markExpanded(str, rng)}, lead)
				i++
				continue
			}
		}
		if idx := param(t); idx >= 0 {
			adjPaste := (i+1 < len(body) && body[i+1].Kind == token.HashHash) || (i > 0 && body[i-1].Kind == token.HashHash)
			var src []token.Token
			if adjPaste {
				src = args[idx]
			} else {
				if !done[idx] {
					expanded[idx] = pp.expandArg(args[idx])
					done[idx] = true
				}
				src = expanded[idx]
			}
			toks := make([]token.Token, 0, len(src))
			for _, a := range src {
				toks = append(toks, markExpanded(a, rng))
			}
			emit(toks, lead)
			continue
		}
		emit([]token.Token{markExpanded(t, rng)}, lead)
	}
	return out
}

// expandArg fully macro-expands one argument in isolation.
func (pp *Preprocessor) expandArg(arg []token.Token) []token.Token {
	if len(arg) == 0 {
		return nil
	}
	pp.frames = append(pp.frames, &expFrame{toks: arg})
	out := make([]token.Token, 0, len(arg))
	for {
		t := pp.lexExpanded()
		if t.Kind == token.EOF {
			return out
		}
		out = append(out, t)
	}
}

func stringify(arg []token.Token) token.Token {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.Flags&token.FlagLeadingSpace != 0 {
			sb.WriteByte(' ')
		}
		if t.Kind == token.StringLit || t.Kind == token.CharLit {
			sb.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t.Text))
			continue
		}
		sb.WriteString(t.Text)
	}
	sb.WriteByte('"')
	return token.Token{Kind: token.StringLit, Text: sb.String()}
}

// paste implements '##' by lexing the concatenation in a scratch buffer.
func (pp *Preprocessor) paste(lhs, rhs token.Token, rng source.Span) token.Token {
	text := lhs.Text + rhs.Text
	id := pp.files.Add(scratchName, []byte(text), source.FileVirtual)
	lx := lexer.New(pp.files.Get(id), lexer.Options{})
	t := lx.Next()
	if t.Kind == token.EOF || t.Kind == token.Invalid || lx.Next().Kind != token.EOF {
		pp.report(diag.SevError, diag.PPInvalidPaste, rng,
			fmt.Sprintf("pasting formed '%s', an invalid preprocessing token", text)).Emit()
		return lhs
	}
	t.Spelling = t.Span
	t.Span = rng
	t.Flags = lhs.Flags&token.FlagLeadingSpace | token.FlagFromMacro
	t.Leading = nil
	return t
}
