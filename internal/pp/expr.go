package pp

import (
	"strconv"
	"strings"

	"unitd/internal/diag"
	"unitd/internal/token"
)

// evalIfLine evaluates the controlling expression of #if / #elif.
func (pp *Preprocessor) evalIfLine(f *fileFrame, hash token.Token) bool {
	raw := readLine(f)
	if len(raw) == 0 {
		pp.report(diag.SevError, diag.PPBadExpression, hash.Span, "#if with no expression").Emit()
		return false
	}
	toks := make([]token.Token, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		if t.Kind != token.Ident || t.Text != "defined" {
			toks = append(toks, t)
			continue
		}
		j := i + 1
		paren := j < len(raw) && raw[j].Kind == token.LParen
		if paren {
			j++
		}
		if j >= len(raw) || !isMacroName(raw[j]) {
			pp.report(diag.SevError, diag.PPExpectedMacroName, t.Span, "macro name missing after 'defined'").Emit()
			return false
		}
		name := raw[j]
		j++
		if paren {
			if j >= len(raw) || raw[j].Kind != token.RParen {
				pp.report(diag.SevError, diag.PPBadExpression, name.Span, "missing ')' after 'defined'").Emit()
				return false
			}
			j++
		}
		mi := pp.macros.Lookup(name.Text)
		pp.dispatch(func(cb Callbacks) { cb.Defined(name, mi) })
		val := "0"
		if mi != nil {
			val = "1"
		}
		toks = append(toks, token.Token{Kind: token.IntLit, Text: val, Span: t.Span})
		i = j - 1
	}

	expanded := pp.expandArg(toks)
	ev := ifEval{toks: expanded, pp: pp, hash: hash}
	v := ev.expr(0)
	if !ev.bad && ev.pos < len(ev.toks) {
		ev.fail(ev.toks[ev.pos], "token is not a valid binary operator in a preprocessor subexpression")
	}
	return !ev.bad && v != 0
}

type ifEval struct {
	toks []token.Token
	pos  int
	pp   *Preprocessor
	hash token.Token
	bad  bool
}

func (e *ifEval) fail(t token.Token, msg string) {
	if e.bad {
		return
	}
	e.bad = true
	sp := t.Span
	if !sp.IsValid() {
		sp = e.hash.Span
	}
	e.pp.report(diag.SevError, diag.PPBadExpression, sp, msg).Emit()
}

func (e *ifEval) peek() (token.Token, bool) {
	if e.pos >= len(e.toks) {
		return token.Token{}, false
	}
	return e.toks[e.pos], true
}

var binaryPrec = map[token.Kind]int{
	token.OrOr: 1, token.AndAnd: 2, token.Pipe: 3, token.Caret: 4, token.Amp: 5,
	token.EqEq: 6, token.BangEq: 6,
	token.Lt: 7, token.Gt: 7, token.LtEq: 7, token.GtEq: 7,
	token.Shl: 8, token.Shr: 8,
	token.Plus: 9, token.Minus: 9,
	token.Star: 10, token.Slash: 10, token.Percent: 10,
}

func (e *ifEval) expr(minPrec int) int64 {
	lhs := e.unary()
	for !e.bad {
		t, ok := e.peek()
		if !ok {
			return lhs
		}
		if t.Kind == token.Question && minPrec == 0 {
			e.pos++
			a := e.expr(0)
			if c, ok := e.peek(); !ok || c.Kind != token.Colon {
				e.fail(t, "expected ':' in conditional expression")
				return 0
			}
			e.pos++
			b := e.expr(0)
			if lhs != 0 {
				return a
			}
			return b
		}
		prec, isOp := binaryPrec[t.Kind]
		if !isOp || prec <= minPrec {
			return lhs
		}
		e.pos++
		rhs := e.expr(prec)
		lhs = e.apply(t, lhs, rhs)
	}
	return 0
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (e *ifEval) apply(op token.Token, a, b int64) int64 {
	switch op.Kind {
	case token.OrOr:
		return boolInt(a != 0 || b != 0)
	case token.AndAnd:
		return boolInt(a != 0 && b != 0)
	case token.Pipe:
		return a | b
	case token.Caret:
		return a ^ b
	case token.Amp:
		return a & b
	case token.EqEq:
		return boolInt(a == b)
	case token.BangEq:
		return boolInt(a != b)
	case token.Lt:
		return boolInt(a < b)
	case token.Gt:
		return boolInt(a > b)
	case token.LtEq:
		return boolInt(a <= b)
	case token.GtEq:
		return boolInt(a >= b)
	case token.Shl:
		return a << uint64(b&63)
	case token.Shr:
		return a >> uint64(b&63)
	case token.Plus:
		return a + b
	case token.Minus:
		return a - b
	case token.Star:
		return a * b
	case token.Slash, token.Percent:
		if b == 0 {
			e.fail(op, "division by zero in preprocessor expression")
			return 0
		}
		if op.Kind == token.Slash {
			return a / b
		}
		return a % b
	}
	return 0
}

func (e *ifEval) unary() int64 {
	t, ok := e.peek()
	if !ok {
		last := e.hash
		if len(e.toks) > 0 {
			last = e.toks[len(e.toks)-1]
		}
		e.fail(last, "expected value in expression")
		return 0
	}
	e.pos++
	switch t.Kind {
	case token.Bang:
		return boolInt(e.unary() == 0)
	case token.Tilde:
		return ^e.unary()
	case token.Minus:
		return -e.unary()
	case token.Plus:
		return e.unary()
	case token.LParen:
		v := e.expr(0)
		if c, ok := e.peek(); !ok || c.Kind != token.RParen {
			e.fail(t, "expected ')' in preprocessor expression")
			return 0
		}
		e.pos++
		return v
	case token.IntLit:
		text := strings.TrimRight(t.Text, "uUlL")
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(text, 0, 64)
			if uerr != nil {
				e.fail(t, "integer literal is too large")
				return 0
			}
			v = int64(u) // #nosec G115 -- wraps like the C preprocessor does
		}
		return v
	case token.CharLit:
		body := strings.Trim(t.Text, "'")
		if s, err := strconv.Unquote("'" + body + "'"); err == nil && s != "" {
			return int64(s[0])
		}
		if len(body) > 0 {
			return int64(body[0])
		}
		return 0
	case token.Ident:
		return 0
	}
	if t.Kind.IsKeyword() {
		return 0
	}
	e.fail(t, "invalid token at start of a preprocessor expression")
	return 0
}
