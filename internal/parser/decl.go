package parser

import (
	"strings"

	"unitd/internal/ast"
	"unitd/internal/diag"
	"unitd/internal/source"
	"unitd/internal/token"
)

// declSpec collects the specifiers in front of a declarator list.
type declSpec struct {
	start    source.Span
	storage  ast.StorageClass
	typedef  bool
	inline   bool
	konst    bool
	typ      ast.TypeID
	tagDecl  ast.DeclID // record/enum declared by the specifier itself
	forward  bool       // tag written without a body
	consumed bool
}

// specContext tells parseDeclSpecs how eagerly an unknown identifier may
// be taken as a type name.
type specContext uint8

const (
	// specFile: file scope and parameters. `foo x` and `foo *x` declare.
	specFile specContext = iota
	// specBlock: only `foo x` declares, `foo *x` stays a multiplication.
	specBlock
	// specTypeName: casts, sizeof, fields never guess.
	specTypeName
)

func isTypeKeyword(k token.Kind) bool {
	switch k {
	case token.KwVoid, token.KwChar, token.KwShort, token.KwInt, token.KwLong,
		token.KwFloat, token.KwDouble, token.KwSigned, token.KwUnsigned, token.KwBool:
		return true
	}
	return false
}

func isSpecifierKeyword(k token.Kind) bool {
	switch k {
	case token.KwTypedef, token.KwExtern, token.KwStatic, token.KwAuto, token.KwRegister,
		token.KwConst, token.KwVolatile, token.KwInline,
		token.KwStruct, token.KwUnion, token.KwEnum:
		return true
	}
	return isTypeKeyword(k)
}

// startsTypeName reports whether the token at n begins a type name.
func (p *Parser) startsTypeName(n int) bool {
	tok := p.peekN(n)
	if tok.Kind == token.Ident {
		return p.isTypeName(tok.Text)
	}
	return isSpecifierKeyword(tok.Kind) && tok.Kind != token.KwTypedef
}

func (p *Parser) parseDeclSpecs(sc specContext) declSpec {
	var (
		spec    declSpec
		words   []string
		wordsSp source.Span
		hasType bool
	)
	note := func(sp source.Span) {
		if !spec.consumed {
			spec.start = sp
			spec.consumed = true
		}
	}
loop:
	for {
		tok := p.peek()
		switch {
		case tok.Kind == token.KwTypedef:
			spec.typedef = true
		case tok.Kind == token.KwExtern:
			spec.storage = ast.StorageExtern
		case tok.Kind == token.KwStatic:
			spec.storage = ast.StorageStatic
		case tok.Kind == token.KwAuto:
			spec.storage = ast.StorageAuto
		case tok.Kind == token.KwRegister:
			spec.storage = ast.StorageRegister
		case tok.Kind == token.KwConst:
			spec.konst = true
		case tok.Kind == token.KwVolatile:
		case tok.Kind == token.KwInline:
			spec.inline = true
		case isTypeKeyword(tok.Kind):
			if len(words) == 0 {
				wordsSp = tok.Span
			}
			words = append(words, tok.Text)
			wordsSp = wordsSp.Cover(tok.Span)
			hasType = true
		case tok.Kind == token.KwStruct || tok.Kind == token.KwUnion || tok.Kind == token.KwEnum:
			if hasType {
				break loop
			}
			note(tok.Span)
			p.parseTagSpecifier(&spec)
			hasType = true
			continue
		case tok.Kind == token.Ident:
			if hasType {
				break loop
			}
			if !p.isTypeName(tok.Text) && !p.guessUnknownType(sc) {
				break loop
			}
			spec.typ = p.ctx.NewType(ast.TypeSpec{Kind: ast.TypeNamed, Name: tok.Text, Span: tok.Span})
			hasType = true
		default:
			break loop
		}
		note(tok.Span)
		p.advance()
	}
	if len(words) > 0 {
		spec.typ = p.ctx.NewType(ast.TypeSpec{Kind: ast.TypeBuiltin, Name: strings.Join(words, " "), Span: wordsSp})
	}
	if spec.typ.IsValid() && spec.konst {
		p.ctx.Type(spec.typ).Const = true
	}
	if spec.consumed && !spec.typ.IsValid() {
		// `static x;` is implicit int, as in C89.
		spec.typ = p.ctx.NewType(ast.TypeSpec{Kind: ast.TypeBuiltin, Name: "int", Span: spec.start, Const: spec.konst})
	}
	return spec
}

// guessUnknownType decides whether the identifier at the cursor, which is
// not a known type, is meant as one: `foo x;` declares x of unknown type
// foo, which sema then diagnoses.
func (p *Parser) guessUnknownType(sc specContext) bool {
	next := p.peekN(1)
	switch sc {
	case specFile:
		if next.Kind == token.Star {
			return true
		}
		fallthrough
	case specBlock:
		return next.Kind == token.Ident && !p.isTypeName(next.Text)
	}
	return false
}

// parseTagSpecifier parses struct/union/enum, with or without a body.
func (p *Parser) parseTagSpecifier(spec *declSpec) {
	kw := p.advance()
	var name token.Token
	if p.at(token.Ident) {
		name = p.advance()
	}
	kind := ast.TypeRecord
	declKind := ast.DeclRecord
	if kw.Kind == token.KwEnum {
		kind = ast.TypeEnum
		declKind = ast.DeclEnum
	}
	ts := ast.TypeSpec{Kind: kind, Name: name.Text, Span: kw.Span.Cover(name.Span)}
	if !p.at(token.LBrace) {
		if name.Kind != token.Ident {
			p.err(diag.SynExpectIdentifier, "declaration of anonymous "+kw.Text+" must be a definition")
		}
		spec.typ = p.ctx.NewType(ts)
		spec.forward = true
		return
	}
	var flags ast.DeclFlags = ast.DeclDefinition
	if kw.Kind == token.KwUnion {
		flags |= ast.DeclUnion
	}
	id := p.ctx.NewDecl(ast.Decl{Kind: declKind, Name: name.Text, NameSpan: name.Span, Span: kw.Span, Flags: flags})
	if !name.Span.IsValid() {
		p.ctx.Decl(id).NameSpan = kw.Span
	}
	open := p.advance()
	var fields []ast.DeclID
	if declKind == ast.DeclEnum {
		fields = p.parseEnumBody(id)
	} else {
		fields = p.parseRecordBody(id)
	}
	p.expectClose(token.RBrace, open)
	d := p.ctx.Decl(id)
	d.Fields = fields
	d.Span = d.Span.Cover(p.lastSpan)
	ts.Span = d.Span
	ts.Decl = id
	ts.Owned = true
	spec.typ = p.ctx.NewType(ts)
	spec.tagDecl = id
}

func (p *Parser) parseRecordBody(parent ast.DeclID) []ast.DeclID {
	var fields []ast.DeclID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.at(token.Semicolon) {
			p.advance()
			continue
		}
		spec := p.parseDeclSpecs(specBlock)
		if !spec.consumed {
			p.err(diag.SynExpectType, "type name requires a specifier or qualifier")
			p.resyncStmt()
			continue
		}
		if p.at(token.Semicolon) {
			// anonymous struct/union member
			if spec.tagDecl.IsValid() {
				p.ctx.Decl(spec.tagDecl).Parent = parent
				fields = append(fields, spec.tagDecl)
			}
			p.advance()
			continue
		}
		for {
			d := p.parseDeclarator(spec.typ, false)
			if p.at(token.Colon) {
				p.advance()
				p.parseCond()
			}
			if d.name.Kind == token.Ident {
				fields = append(fields, p.ctx.NewDecl(ast.Decl{
					Kind:     ast.DeclField,
					Name:     d.name.Text,
					NameSpan: d.name.Span,
					Span:     spec.start.Cover(p.lastSpan),
					Type:     d.typ,
					Parent:   parent,
				}))
			}
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if !p.expectSemi("expected ';' at end of declaration list") {
			p.resyncStmt()
		}
	}
	return fields
}

func (p *Parser) parseEnumBody(parent ast.DeclID) []ast.DeclID {
	var consts []ast.DeclID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier")
		if !ok {
			p.resyncEnum()
			continue
		}
		d := ast.Decl{Kind: ast.DeclEnumConst, Name: name.Text, NameSpan: name.Span, Span: name.Span, Parent: parent}
		if p.at(token.Assign) {
			p.advance()
			d.Init = p.parseCond()
			d.Span = d.Span.Cover(p.lastSpan)
		}
		consts = append(consts, p.ctx.NewDecl(d))
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	return consts
}

func (p *Parser) resyncEnum() {
	for !p.at(token.Comma) && !p.at(token.RBrace) && !p.at(token.EOF) {
		p.advance()
	}
	if p.at(token.Comma) {
		p.advance()
	}
}

// declarator is the result of one (possibly abstract) declarator.
type declarator struct {
	name   token.Token // Kind Invalid for abstract declarators
	typ    ast.TypeID
	params []ast.DeclID // parameters when the name is declared as a function
}

type suffix struct {
	fn     bool
	span   source.Span
	size   ast.ExprID
	params []ast.DeclID
	types  []ast.TypeID
	vararg bool
	noProt bool
}

// parseDeclarator parses pointers, the name (or a parenthesized inner
// declarator) and array/function suffixes around base.
func (p *Parser) parseDeclarator(base ast.TypeID, abstract bool) declarator {
	for p.at(token.Star) {
		star := p.advance()
		ptr := ast.TypeSpec{Kind: ast.TypePointer, Elem: base, Span: star.Span}
		for p.at(token.KwConst) || p.at(token.KwVolatile) {
			if p.advance().Kind == token.KwConst {
				ptr.Const = true
			}
		}
		base = p.ctx.NewType(ptr)
	}

	var (
		d    declarator
		hole ast.TypeID
	)
	switch {
	case p.at(token.LParen) && p.nestedDeclarator(abstract):
		open := p.advance()
		hole = p.ctx.NewType(ast.TypeSpec{Kind: ast.TypeInvalid})
		d = p.parseDeclarator(hole, abstract)
		p.expectClose(token.RParen, open)
	case p.at(token.Ident):
		d.name = p.advance()
	case !abstract:
		p.err(diag.SynExpectDeclarator, "expected identifier or '('")
	}

	var sfx []suffix
	for {
		if p.at(token.LBracket) {
			open := p.advance()
			s := suffix{span: open.Span}
			if !p.at(token.RBracket) {
				s.size = p.parseAssign()
			}
			p.expectClose(token.RBracket, open)
			s.span = s.span.Cover(p.lastSpan)
			sfx = append(sfx, s)
			continue
		}
		if p.at(token.LParen) && (d.name.Kind == token.Ident || hole.IsValid() || abstract) {
			sfx = append(sfx, p.parseParams())
			continue
		}
		break
	}

	t := base
	for i := len(sfx) - 1; i >= 0; i-- {
		s := sfx[i]
		if s.fn {
			t = p.ctx.NewType(ast.TypeSpec{Kind: ast.TypeFunc, Elem: t, Span: s.span, Params: s.types, Variadic: s.vararg, NoProto: s.noProt})
		} else {
			t = p.ctx.NewType(ast.TypeSpec{Kind: ast.TypeArray, Elem: t, Span: s.span, Size: s.size})
		}
	}
	if hole.IsValid() {
		*p.ctx.Type(hole) = *p.ctx.Type(t)
		return d
	}
	d.typ = t
	if len(sfx) > 0 && sfx[0].fn {
		d.params = sfx[0].params
	}
	return d
}

// nestedDeclarator reports whether the '(' at the cursor opens an inner
// declarator rather than a parameter list.
func (p *Parser) nestedDeclarator(abstract bool) bool {
	next := p.peekN(1)
	switch next.Kind {
	case token.Star:
		return true
	case token.Ident:
		return !abstract && !p.isTypeName(next.Text)
	}
	return false
}

func (p *Parser) parseParams() suffix {
	open := p.advance()
	s := suffix{fn: true, span: open.Span}
	switch {
	case p.at(token.RParen):
		s.noProt = true
	case p.at(token.KwVoid) && p.peekN(1).Kind == token.RParen:
		p.advance()
	default:
		for {
			if p.at(token.Ellipsis) {
				p.advance()
				s.vararg = true
				break
			}
			spec := p.parseDeclSpecs(specFile)
			if !spec.consumed {
				p.err(diag.SynExpectType, "expected parameter declarator")
				break
			}
			d := p.parseDeclarator(spec.typ, true)
			id := p.ctx.NewDecl(ast.Decl{
				Kind:     ast.DeclParam,
				Name:     d.name.Text,
				NameSpan: d.name.Span,
				Span:     spec.start.Cover(p.lastSpan),
				Type:     d.typ,
				Storage:  spec.storage,
			})
			if !d.name.Span.IsValid() {
				p.ctx.Decl(id).NameSpan = spec.start
			}
			s.params = append(s.params, id)
			s.types = append(s.types, d.typ)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
	}
	if !p.expectClose(token.RParen, open) {
		for !p.at(token.RParen) && !p.at(token.Semicolon) && !p.at(token.LBrace) && !p.at(token.EOF) {
			p.advance()
		}
		if p.at(token.RParen) {
			p.advance()
		}
	}
	s.span = s.span.Cover(p.lastSpan)
	return s
}

// parseTypeName parses specifiers plus an abstract declarator (casts, sizeof).
func (p *Parser) parseTypeName() ast.TypeID {
	spec := p.parseDeclSpecs(specTypeName)
	if !spec.consumed {
		p.err(diag.SynExpectType, "expected a type")
		return p.ctx.NewType(ast.TypeSpec{Kind: ast.TypeInvalid, Span: p.diagSpan()})
	}
	return p.parseDeclarator(spec.typ, true).typ
}

// parseExternalDeclaration parses one declaration or function definition at
// file scope and returns the declarations it introduced.
func (p *Parser) parseExternalDeclaration() []ast.DeclID {
	if p.at(token.Semicolon) {
		p.advance()
		return nil
	}
	spec := p.parseDeclSpecs(specFile)
	if !spec.consumed {
		tok := p.peek()
		if tok.Kind == token.Ident {
			p.err(diag.SynExpectType, "type specifier missing, defaults to 'int'")
			spec.start = tok.Span
			spec.consumed = true
			spec.typ = p.ctx.NewType(ast.TypeSpec{Kind: ast.TypeBuiltin, Name: "int", Span: tok.Span})
		} else {
			p.err(diag.SynUnexpectedToken, "expected external declaration")
			p.resyncTop()
			return nil
		}
	}
	return p.finishDeclaration(spec, true)
}

// finishDeclaration parses the init-declarator list after spec. At file
// scope a function declarator followed by '{' is a definition.
func (p *Parser) finishDeclaration(spec declSpec, fileScope bool) []ast.DeclID {
	var group []ast.DeclID
	if spec.tagDecl.IsValid() {
		group = append(group, spec.tagDecl)
	}
	if p.at(token.Semicolon) {
		p.advance()
		if spec.forward && !spec.tagDecl.IsValid() {
			// `struct S;`
			ts := p.ctx.Type(spec.typ)
			kind := ast.DeclRecord
			if ts.Kind == ast.TypeEnum {
				kind = ast.DeclEnum
			}
			id := p.ctx.NewDecl(ast.Decl{Kind: kind, Name: ts.Name, NameSpan: ts.Span, Span: spec.start.Cover(p.lastSpan)})
			ts.Decl = id
			ts.Owned = true
			group = append(group, id)
		}
		return group
	}

	first := true
	for {
		d := p.parseDeclarator(spec.typ, false)
		if d.name.Kind != token.Ident {
			p.resyncStmt()
			return group
		}
		decl := ast.Decl{
			Kind:     ast.DeclVar,
			Name:     d.name.Text,
			NameSpan: d.name.Span,
			Type:     d.typ,
			Storage:  spec.storage,
			Params:   d.params,
		}
		ft := p.ctx.Type(d.typ)
		switch {
		case spec.typedef:
			decl.Kind = ast.DeclTypedef
		case ft != nil && ft.Kind == ast.TypeFunc:
			decl.Kind = ast.DeclFunc
			if ft.Variadic {
				decl.Flags |= ast.DeclVariadic
			}
		}
		if spec.inline {
			decl.Flags |= ast.DeclInline
		}
		if spec.konst {
			decl.Flags |= ast.DeclConst
		}

		if decl.Kind == ast.DeclFunc && fileScope && first && p.at(token.LBrace) {
			decl.Flags |= ast.DeclDefinition
			id := p.ctx.NewDecl(decl)
			body := p.parseFunctionBody(d.params)
			fd := p.ctx.Decl(id)
			fd.Body = body
			fd.Span = spec.start.Cover(p.lastSpan)
			for _, param := range d.params {
				p.ctx.Decl(param).Parent = id
			}
			return append(group, id)
		}

		if p.at(token.Assign) {
			p.advance()
			decl.Init = p.parseInitializer()
		}
		if decl.Kind == ast.DeclVar && (decl.Init.IsValid() || spec.storage != ast.StorageExtern) {
			decl.Flags |= ast.DeclDefinition
		}
		decl.Span = spec.start.Cover(p.lastSpan)
		id := p.ctx.NewDecl(decl)
		for _, param := range d.params {
			p.ctx.Decl(param).Parent = id
		}
		group = append(group, id)
		p.declareLocal(decl.Name, decl.Kind == ast.DeclTypedef)
		first = false

		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	msg := "expected ';' at end of declaration"
	if fileScope {
		msg = "expected ';' after top level declarator"
	}
	if !p.expectSemi(msg) && !p.atDeclBoundary() {
		p.resyncStmt()
	}
	return group
}

// atDeclBoundary reports whether the cursor sits on a line that starts a
// new declaration; recovery after a missing ';' stops there.
func (p *Parser) atDeclBoundary() bool {
	tok := p.peek()
	if !tok.AtStartOfLine() {
		return false
	}
	return isSpecifierKeyword(tok.Kind) || (tok.Kind == token.Ident && p.isTypeName(tok.Text))
}

func (p *Parser) parseFunctionBody(params []ast.DeclID) ast.StmtID {
	p.pushScope()
	defer p.popScope()
	for _, id := range params {
		p.declareLocal(p.ctx.Decl(id).Name, false)
	}
	return p.parseCompound(false)
}

// parseInitializer parses an assignment expression or a braced list.
func (p *Parser) parseInitializer() ast.ExprID {
	if !p.at(token.LBrace) {
		return p.parseAssign()
	}
	open := p.advance()
	var args []ast.ExprID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		// designators: .field = / [index] =
		for p.at(token.Dot) || p.at(token.LBracket) {
			if p.advance().Kind == token.Dot {
				p.expect(token.Ident, diag.SynExpectIdentifier, "expected a field designator")
			} else {
				p.parseCond()
				p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'")
			}
			if p.at(token.Assign) {
				p.advance()
			}
		}
		args = append(args, p.parseInitializer())
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	p.expectClose(token.RBrace, open)
	return p.ctx.NewExpr(ast.Expr{Kind: ast.ExprInitList, Span: open.Span.Cover(p.lastSpan), Args: args})
}
