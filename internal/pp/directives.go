package pp

import (
	"fmt"
	"strings"

	"unitd/internal/diag"
	"unitd/internal/source"
	"unitd/internal/token"
)

// readLine returns the remaining tokens of the directive line.
func readLine(f *fileFrame) []token.Token {
	var out []token.Token
	for {
		t := f.lx.Peek()
		if t.Kind == token.EOF || t.AtStartOfLine() {
			return out
		}
		out = append(out, f.lx.Next())
	}
}

func (pp *Preprocessor) extraTokens(rest []token.Token, directive string) {
	if len(rest) == 0 {
		return
	}
	sp := rest[0].Span.Cover(rest[len(rest)-1].Span)
	pp.report(diag.SevWarning, diag.PPExtraTokens, sp, fmt.Sprintf("extra tokens at end of #%s directive", directive)).Emit()
}

func (pp *Preprocessor) handleDirective(f *fileFrame, hash token.Token) {
	name := f.lx.Peek()
	if name.Kind == token.EOF || name.AtStartOfLine() {
		return // null directive
	}
	f.lx.Next()
	skipping := f.skipping()

	// anything but the #ifndef guard candidate itself spoils guard detection
	guardCandidate := name.Text == "ifndef" && !f.sawToken && len(f.conds) == 0 && f.guardName == ""
	if !guardCandidate && len(f.conds) == 0 {
		if f.guardClosed {
			f.afterGuard = true
		}
		if name.Text != "endif" {
			f.sawToken = true
		}
	}

	switch name.Text {
	case "if", "ifdef", "ifndef":
		pp.handleIf(f, hash, name, guardCandidate)
		return
	case "elif":
		pp.handleElif(f, hash)
		return
	case "else":
		pp.handleElse(f, hash)
		return
	case "endif":
		pp.handleEndif(f, hash)
		return
	}

	if skipping {
		f.lx.SkipLine()
		return
	}

	switch name.Text {
	case "include", "include_next", "import":
		pp.handleInclude(f, hash, name)
	case "define":
		pp.handleDefine(f)
	case "undef":
		pp.handleUndef(f)
	case "pragma":
		pp.handlePragma(f, hash)
	case "error", "warning":
		sp := f.lx.SkipLine()
		text := strings.TrimSpace(string(f.file.Content[sp.Start:sp.End]))
		sev, code := diag.SevError, diag.PPUserError
		if name.Text == "warning" {
			sev, code = diag.SevWarning, diag.PPUserWarning
		}
		pp.report(sev, code, hash.Span.Cover(name.Span), text).Emit()
	case "line":
		f.lx.SkipLine()
	default:
		pp.report(diag.SevError, diag.PPInvalidDirective, name.Span, fmt.Sprintf("invalid preprocessing directive '#%s'", name.Text)).Emit()
		f.lx.SkipLine()
	}
}

func (pp *Preprocessor) handleInclude(f *fileFrame, hash, dirTok token.Token) {
	fnTok, ok := f.lx.NextHeaderName()
	if !ok {
		fnTok = f.lx.Peek()
		if fnTok.Kind == token.EOF || fnTok.AtStartOfLine() {
			pp.report(diag.SevError, diag.PPExpectedFilename, dirTok.Span, "expected \"FILENAME\" or <FILENAME>").Emit()
			return
		}
		f.lx.Next()
		if fnTok.Kind != token.StringLit {
			pp.report(diag.SevError, diag.PPExpectedFilename, fnTok.Span, "expected \"FILENAME\" or <FILENAME>").Emit()
			f.lx.SkipLine()
			return
		}
	}
	if fnTok.Kind == token.Invalid {
		readLine(f)
		return
	}
	pp.extraTokens(readLine(f), dirTok.Text)

	written := fnTok.Text
	angled := written[0] == '<'
	name := written[1 : len(written)-1]
	if name == "" {
		pp.report(diag.SevError, diag.PPExpectedFilename, fnTok.Span, "empty filename").Emit()
		return
	}

	from := -2
	if dirTok.Text == "include_next" && len(pp.stack) > 1 {
		from = f.dirIdx
	}
	res, found := pp.opts.Search.Lookup(name, angled, pp.includerDir(), f.kind, from)
	if !found {
		pp.dispatch(func(cb Callbacks) { cb.FileNotFound(name) })
	}
	ev := InclusionEvent{
		HashLoc:       hash.Span,
		IncludeTok:    dirTok,
		Written:       written,
		FileName:      name,
		IsAngled:      angled,
		FilenameRange: fnTok.Span,
		Kind:          res.Kind,
	}
	if found {
		ev.Resolved = res.Entry.Path
	}
	pp.dispatch(func(cb Callbacks) { cb.InclusionDirective(ev) })
	if !found {
		pp.report(diag.SevError, diag.PPFileNotFound, fnTok.Span, fmt.Sprintf("'%s' file not found", name)).Emit()
		return
	}

	if pp.once[res.Entry.Path] {
		pp.dispatch(func(cb Callbacks) { cb.FileSkipped(res.Entry, fnTok, res.Kind) })
		return
	}
	if guard, ok := pp.guards[res.Entry.Path]; ok && pp.macros.Lookup(guard) != nil {
		pp.dispatch(func(cb Callbacks) { cb.FileSkipped(res.Entry, fnTok, res.Kind) })
		return
	}
	if len(pp.stack) > pp.opts.MaxIncludeDepth {
		pp.report(diag.SevFatal, diag.PPIncludeTooDeep, fnTok.Span, "#include nested too deeply").Emit()
		return
	}
	content, err := pp.opts.FS.ReadFile(res.Entry.Path)
	if err != nil {
		pp.report(diag.SevError, diag.PPFileNotFound, fnTok.Span, fmt.Sprintf("cannot open '%s': %v", name, err)).Emit()
		return
	}
	pp.enterInclude(res, content)
}

func isMacroName(t token.Token) bool {
	return t.Kind == token.Ident || t.Kind.IsKeyword()
}

func (pp *Preprocessor) handleDefine(f *fileFrame) {
	nameTok := f.lx.Peek()
	if nameTok.Kind == token.EOF || nameTok.AtStartOfLine() || !isMacroName(nameTok) {
		pp.report(diag.SevError, diag.PPExpectedMacroName, nameTok.Span, "macro name must be an identifier").Emit()
		readLine(f)
		return
	}
	f.lx.Next()
	if nameTok.Text == "defined" {
		pp.report(diag.SevError, diag.PPExpectedMacroName, nameTok.Span, "'defined' cannot be used as a macro name").Emit()
		readLine(f)
		return
	}
	mi := &MacroInfo{Name: nameTok.Text, NameSpan: nameTok.Span, Builtin: f.file.Flags&source.FileBuiltin != 0}
	rest := readLine(f)

	if len(rest) > 0 && rest[0].Kind == token.LParen && rest[0].Flags&token.FlagLeadingSpace == 0 {
		mi.FunctionLike = true
		i := 1
		closed := false
		for i < len(rest) {
			t := rest[i]
			i++
			switch {
			case t.Kind == token.RParen:
				closed = true
			case t.Kind == token.Ellipsis:
				mi.Variadic = true
				mi.Params = append(mi.Params, "__VA_ARGS__")
				continue
			case isMacroName(t):
				mi.Params = append(mi.Params, t.Text)
				continue
			case t.Kind == token.Comma && len(mi.Params) > 0 && !mi.Variadic:
				continue
			default:
				pp.report(diag.SevError, diag.PPExpectedMacroName, t.Span, "invalid token in macro parameter list").Emit()
				return
			}
			break
		}
		if !closed {
			pp.report(diag.SevError, diag.PPExpectedMacroName, rest[0].Span, "missing ')' in macro parameter list").Emit()
			return
		}
		rest = rest[i:]
	}
	body := make([]token.Token, len(rest))
	copy(body, rest)
	for i := range body {
		body[i].Flags &^= token.FlagStartOfLine
		body[i].Leading = nil
	}
	if len(body) > 0 {
		body[0].Flags &^= token.FlagLeadingSpace
	}
	mi.Body = body

	if prev := pp.macros.Lookup(mi.Name); prev != nil && !prev.Equal(mi) {
		pp.report(diag.SevWarning, diag.PPMacroRedefined, nameTok.Span, fmt.Sprintf("'%s' macro redefined", mi.Name)).
			WithNote(prev.NameSpan, "previous definition is here").Emit()
	}
	pp.macros.Define(mi)
	pp.dispatch(func(cb Callbacks) { cb.MacroDefined(nameTok, mi) })
}

func (pp *Preprocessor) handleUndef(f *fileFrame) {
	nameTok := f.lx.Peek()
	if nameTok.Kind == token.EOF || nameTok.AtStartOfLine() || !isMacroName(nameTok) {
		pp.report(diag.SevError, diag.PPExpectedMacroName, nameTok.Span, "macro name must be an identifier").Emit()
		readLine(f)
		return
	}
	f.lx.Next()
	pp.extraTokens(readLine(f), "undef")
	mi := pp.macros.Lookup(nameTok.Text)
	pp.dispatch(func(cb Callbacks) { cb.MacroUndefined(nameTok, mi) })
	pp.macros.Undefine(nameTok.Text)
}

func (pp *Preprocessor) handlePragma(f *fileFrame, hash token.Token) {
	rest := readLine(f)
	parts := make([]string, 0, len(rest))
	for _, t := range rest {
		parts = append(parts, t.Text)
	}
	text := strings.Join(parts, " ")
	switch {
	case len(rest) == 1 && rest[0].Text == "once":
		if !pp.IsMainFile(f.file.ID) {
			pp.once[f.file.Path] = true
		}
	case len(rest) >= 2 && rest[0].Text == "GCC" && rest[1].Text == "system_header":
		if !pp.IsMainFile(f.file.ID) && f.kind != SystemFile {
			f.kind = SystemFile
			pp.dispatch(func(cb Callbacks) {
				cb.FileChanged(hash.Span, SystemHeaderPragma, SystemFile, source.NoFileID)
			})
		}
	}
	pp.dispatch(func(cb Callbacks) { cb.PragmaDirective(hash.Span, text) })
}

// ===== conditionals =====

func (pp *Preprocessor) pushCond(f *fileFrame, hash token.Token, cond bool, guard string) {
	outer := f.skipping()
	f.conds = append(f.conds, condFrame{
		hash:      hash.Span,
		taken:     cond && !outer,
		skipping:  outer || !cond,
		outerSkip: outer,
		guard:     guard,
	})
	f.lx.SetQuiet(f.skipping())
}

func (pp *Preprocessor) handleIf(f *fileFrame, hash, name token.Token, guardCandidate bool) {
	if f.skipping() {
		f.lx.SkipLine()
		pp.pushCond(f, hash, false, "")
		return
	}
	if name.Text == "if" {
		pp.pushCond(f, hash, pp.evalIfLine(f, hash), "")
		return
	}
	mtok := f.lx.Peek()
	if mtok.Kind == token.EOF || mtok.AtStartOfLine() || !isMacroName(mtok) {
		pp.report(diag.SevError, diag.PPExpectedMacroName, name.Span, "macro name missing").Emit()
		readLine(f)
		pp.pushCond(f, hash, false, "")
		return
	}
	f.lx.Next()
	pp.extraTokens(readLine(f), name.Text)
	mi := pp.macros.Lookup(mtok.Text)
	loc := hash.Span.Cover(name.Span)
	if name.Text == "ifdef" {
		pp.dispatch(func(cb Callbacks) { cb.Ifdef(loc, mtok, mi) })
		pp.pushCond(f, hash, mi != nil, "")
		return
	}
	pp.dispatch(func(cb Callbacks) { cb.Ifndef(loc, mtok, mi) })
	guard := ""
	if guardCandidate {
		guard = mtok.Text
	}
	pp.pushCond(f, hash, mi == nil, guard)
}

func (pp *Preprocessor) handleElif(f *fileFrame, hash token.Token) {
	if len(f.conds) == 0 {
		pp.report(diag.SevError, diag.PPElseWithoutIf, hash.Span, "#elif without #if").Emit()
		f.lx.SkipLine()
		return
	}
	c := &f.conds[len(f.conds)-1]
	c.guard = ""
	if c.sawElse {
		pp.report(diag.SevError, diag.PPElseWithoutIf, hash.Span, "#elif after #else").Emit()
	}
	if c.outerSkip || c.taken {
		f.lx.SkipLine()
		c.skipping = true
		f.lx.SetQuiet(true)
		return
	}
	f.lx.SetQuiet(false)
	cond := pp.evalIfLine(f, hash)
	c = &f.conds[len(f.conds)-1]
	c.skipping = !cond
	c.taken = cond
	f.lx.SetQuiet(c.skipping)
}

func (pp *Preprocessor) handleElse(f *fileFrame, hash token.Token) {
	if len(f.conds) == 0 {
		pp.report(diag.SevError, diag.PPElseWithoutIf, hash.Span, "#else without #if").Emit()
		f.lx.SkipLine()
		return
	}
	rest := readLine(f)
	c := &f.conds[len(f.conds)-1]
	c.guard = ""
	if c.sawElse {
		pp.report(diag.SevError, diag.PPElseWithoutIf, hash.Span, "#else after #else").Emit()
	}
	c.sawElse = true
	c.skipping = c.outerSkip || c.taken
	c.taken = true
	f.lx.SetQuiet(c.skipping)
	if !c.skipping {
		pp.extraTokens(rest, "else")
	}
}

func (pp *Preprocessor) handleEndif(f *fileFrame, hash token.Token) {
	if len(f.conds) == 0 {
		pp.report(diag.SevError, diag.PPEndifWithoutIf, hash.Span, "#endif without #if").Emit()
		f.lx.SkipLine()
		return
	}
	rest := readLine(f)
	c := f.conds[len(f.conds)-1]
	f.conds = f.conds[:len(f.conds)-1]
	f.lx.SetQuiet(f.skipping())
	if !c.outerSkip {
		pp.extraTokens(rest, "endif")
	}
	if len(f.conds) == 0 && c.guard != "" {
		f.guardName = c.guard
		f.guardClosed = true
	}
}
