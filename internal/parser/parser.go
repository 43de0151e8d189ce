package parser

import (
	"unitd/internal/ast"
	"unitd/internal/diag"
	"unitd/internal/source"
	"unitd/internal/token"
)

// TokenSource yields preprocessed tokens. After EOF it keeps returning EOF.
type TokenSource interface {
	Lex() token.Token
}

// Actions is the semantic layer driving the parse. The parser asks it
// whether an identifier names a file-scope type and hands it every
// complete top-level declaration before the next one is parsed.
type Actions interface {
	IsTypeName(name string) bool
	HandleTopLevelDecl(group []ast.DeclID)
}

// Consumer observes top-level declarations after sema has seen them.
// Returning false stops the parse.
type Consumer interface {
	HandleTopLevelDecl(group []ast.DeclID) bool
}

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
	Actions       Actions
	Consumers     []Consumer
	// Stop is polled between top-level declarations.
	Stop func() bool
}

// Enough reports whether the error limit has been reached
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	Decls   int  // top-level declarations handed to consumers
	Errors  uint // syntax errors reported
	Stopped bool // stopped before EOF
}

// Parser holds the state for one translation unit
type Parser struct {
	src      TokenSource
	ctx      *ast.Context
	opts     Options
	buf      []token.Token // lookahead
	lastSpan source.Span   // span of the last consumed token
	// scopes holds block-scope names: true for typedef names, false for
	// ordinary identifiers shadowing an outer typedef.
	scopes []map[string]bool
}

// ParseTranslationUnit parses tokens until EOF, building nodes in ctx.
func ParseTranslationUnit(src TokenSource, ctx *ast.Context, opts Options) Result {
	p := Parser{src: src, ctx: ctx, opts: opts}
	var res Result
	for !p.at(token.EOF) {
		if p.opts.Stop != nil && p.opts.Stop() {
			res.Stopped = true
			break
		}
		if p.opts.Enough() {
			p.report(diag.SynTooManyErrors, diag.SevFatal, p.peek().Span, "too many errors emitted, stopping now")
			res.Stopped = true
			break
		}
		group := p.parseExternalDeclaration()
		if len(group) == 0 {
			continue
		}
		res.Decls += len(group)
		if !p.handle(group) {
			res.Stopped = true
			break
		}
	}
	res.Errors = p.opts.CurrentErrors
	return res
}

func (p *Parser) handle(group []ast.DeclID) bool {
	for _, id := range group {
		p.ctx.AddTopLevel(id)
	}
	if p.opts.Actions != nil {
		p.opts.Actions.HandleTopLevelDecl(group)
	}
	for _, c := range p.opts.Consumers {
		if !c.HandleTopLevelDecl(group) {
			return false
		}
	}
	return true
}

func (p *Parser) peekN(n int) token.Token {
	for len(p.buf) <= n {
		if len(p.buf) > 0 && p.buf[len(p.buf)-1].Kind == token.EOF {
			return p.buf[len(p.buf)-1]
		}
		p.buf = append(p.buf, p.src.Lex())
	}
	return p.buf[n]
}

func (p *Parser) peek() token.Token { return p.peekN(0) }

func (p *Parser) at(k token.Kind) bool { return p.peek().Kind == k }

// advance consumes the next token and updates lastSpan. EOF is never consumed.
func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Kind == token.EOF {
		return tok
	}
	p.buf = p.buf[1:]
	p.lastSpan = tok.Span
	return tok
}

func (p *Parser) pushScope() { p.scopes = append(p.scopes, map[string]bool{}) }
func (p *Parser) popScope()  { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *Parser) declareLocal(name string, isType bool) {
	if len(p.scopes) == 0 || name == "" {
		return
	}
	p.scopes[len(p.scopes)-1][name] = isType
}

func (p *Parser) isTypeName(name string) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if isType, ok := p.scopes[i][name]; ok {
			return isType
		}
	}
	return p.opts.Actions != nil && p.opts.Actions.IsTypeName(name)
}
