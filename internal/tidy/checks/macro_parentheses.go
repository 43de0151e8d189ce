package checks

import (
	"slices"

	"unitd/internal/pp"
	"unitd/internal/tidy"
	"unitd/internal/token"
)

// macroParentheses flags macro arguments used as operands without
// parentheses, and object-like macros whose expression body is bare.
type macroParentheses struct {
	tidy.Base
}

func newMacroParentheses(name string, ctx *tidy.Context) tidy.Check {
	return &macroParentheses{Base: tidy.NewBase(name, ctx)}
}

func (c *macroParentheses) RegisterPPCallbacks(ctx *tidy.Context, p *pp.Preprocessor) pp.Callbacks {
	return &macroParenthesesCallbacks{check: c, ctx: ctx, p: p}
}

type macroParenthesesCallbacks struct {
	pp.NopCallbacks
	check *macroParentheses
	ctx   *tidy.Context
	p     *pp.Preprocessor
}

func (cb *macroParenthesesCallbacks) MacroDefined(name token.Token, mi *pp.MacroInfo) {
	if mi == nil || mi.Builtin || !cb.p.IsMainFile(name.Span.File) {
		return
	}
	if mi.FunctionLike {
		cb.checkArguments(mi)
		return
	}
	cb.checkReplacement(mi)
}

func (cb *macroParenthesesCallbacks) checkArguments(mi *pp.MacroInfo) {
	body := mi.Body
	for i, tok := range body {
		if !tok.IsIdent() || !slices.Contains(mi.Params, tok.Text) {
			continue
		}
		var prev, next token.Token
		if i > 0 {
			prev = body[i-1]
		}
		if i+1 < len(body) {
			next = body[i+1]
		}
		switch {
		case prev.Kind == token.Hash || prev.Kind == token.HashHash || next.Kind == token.HashHash:
			continue
		case prev.Kind == token.Dot || prev.Kind == token.Arrow:
			continue
		}
		if isOperator(prev.Kind) || isOperator(next.Kind) {
			cb.ctx.Diag(cb.check.Name(), tok.Span, "macro argument should be enclosed in parentheses").Emit()
		}
	}
}

// checkReplacement wants the whole body in one pair of parentheses when it
// has a binary operator at depth zero.
func (cb *macroParenthesesCallbacks) checkReplacement(mi *pp.MacroInfo) {
	body := mi.Body
	if len(body) < 2 || enclosed(body) {
		return
	}
	depth := 0
	for i, tok := range body {
		switch tok.Kind {
		case token.LParen, token.LBracket, token.LBrace:
			depth++
		case token.RParen, token.RBracket, token.RBrace:
			depth--
		default:
			if depth == 0 && i > 0 && isOperator(tok.Kind) && !isOperator(body[i-1].Kind) {
				cb.ctx.Diag(cb.check.Name(), body[0].Span.Cover(body[len(body)-1].Span),
					"macro replacement list should be enclosed in parentheses").Emit()
				return
			}
		}
	}
}

// enclosed: the first '(' closes at the last token.
func enclosed(body []token.Token) bool {
	if body[0].Kind != token.LParen || body[len(body)-1].Kind != token.RParen {
		return false
	}
	depth := 0
	for i, tok := range body {
		switch tok.Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 && i != len(body)-1 {
				return false
			}
		}
	}
	return true
}

func isOperator(k token.Kind) bool {
	return k >= token.Question && k <= token.MinusMinus
}
