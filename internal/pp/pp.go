package pp

import (
	"path"
	"slices"
	"unsafe"

	"unitd/internal/diag"
	"unitd/internal/lexer"
	"unitd/internal/source"
	"unitd/internal/token"
	"unitd/internal/vfs"
)

// DefaultMaxIncludeDepth matches the usual compiler limit.
const DefaultMaxIncludeDepth = 200

type Options struct {
	FS              vfs.FileSystem
	Files           *source.FileSet
	Search          *HeaderSearch
	Reporter        diag.Reporter
	MaxIncludeDepth int
}

type condFrame struct {
	hash      source.Span
	taken     bool // some branch was already taken
	sawElse   bool
	skipping  bool
	outerSkip bool
	guard     string // #ifndef include guard candidate
}

type fileFrame struct {
	lx     *lexer.Lexer
	file   *source.File
	kind   FileKind
	dirIdx int
	conds  []condFrame

	// include guard detection
	guardName   string
	guardClosed bool
	afterGuard  bool
	sawToken    bool
}

func (f *fileFrame) skipping() bool {
	return len(f.conds) > 0 && f.conds[len(f.conds)-1].skipping
}

// expansion frame: tokens of one macro expansion or one pre-expanded argument.
type expFrame struct {
	toks  []token.Token
	pos   int
	macro *MacroInfo // nil for argument frames
}

type Preprocessor struct {
	opts     Options
	files    *source.FileSet
	macros   *MacroTable
	stack    []*fileFrame
	frames   []*expFrame
	pending  []token.Token
	mainID   source.FileID
	builtin  source.FileID
	once     map[string]bool
	guards   map[string]string
	cbs      []Callbacks
	comments []CommentHandler
	watcher  func(token.Token)
	fatal    bool
	eofSent  bool
	detached bool
}

func New(opts Options) *Preprocessor {
	if opts.MaxIncludeDepth <= 0 {
		opts.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	if opts.Files == nil {
		opts.Files = source.NewFileSet()
	}
	if opts.Search == nil {
		opts.Search = NewHeaderSearch(opts.FS, nil)
	}
	return &Preprocessor{
		opts:   opts,
		files:  opts.Files,
		macros: NewMacroTable(),
		once:   make(map[string]bool),
		guards: make(map[string]string),
	}
}

// AddCallbacks appends cb to the listener list.
func (pp *Preprocessor) AddCallbacks(cb Callbacks) {
	if cb == nil || pp.detached {
		return
	}
	pp.cbs = append(pp.cbs, cb)
}

// Callbacks returns a snapshot of the listener list in delivery order.
func (pp *Preprocessor) Callbacks() []Callbacks {
	return slices.Clone(pp.cbs)
}

func (pp *Preprocessor) AddCommentHandler(h CommentHandler) {
	if h == nil || pp.detached {
		return
	}
	pp.comments = append(pp.comments, h)
}

// SetTokenWatcher installs fn to observe every token returned by Lex.
func (pp *Preprocessor) SetTokenWatcher(fn func(token.Token)) {
	pp.watcher = fn
}

func (pp *Preprocessor) Macros() *MacroTable          { return pp.macros }
func (pp *Preprocessor) Files() *source.FileSet       { return pp.files }
func (pp *Preprocessor) Search() *HeaderSearch        { return pp.opts.Search }
func (pp *Preprocessor) MainFileID() source.FileID    { return pp.mainID }
func (pp *Preprocessor) BuiltinFileID() source.FileID { return pp.builtin }
func (pp *Preprocessor) IsMainFile(id source.FileID) bool {
	return id.IsValid() && id == pp.mainID
}

// Fatal reports whether a fatal error stopped preprocessing.
func (pp *Preprocessor) Fatal() bool { return pp.fatal }

// EnterMainFile starts preprocessing main at byte offset start, after the
// prologue text has been processed.
func (pp *Preprocessor) EnterMainFile(main *source.File, start uint32, prologue string) {
	pp.mainID = main.ID
	pp.push(main, UserFile, -1, start)
	pp.dispatch(func(cb Callbacks) {
		cb.FileChanged(source.Point(main.ID, start), EnterFile, UserFile, source.NoFileID)
	})
	pp.builtin = pp.files.Add(source.BuiltinName, []byte(prologue), source.FileBuiltin|source.FileVirtual)
	bf := pp.files.Get(pp.builtin)
	pp.push(bf, UserFile, -1, 0)
	pp.dispatch(func(cb Callbacks) {
		cb.FileChanged(source.Point(bf.ID, 0), EnterFile, UserFile, main.ID)
	})
}

// EndOfMainFile notifies listeners once that the main file is finished.
func (pp *Preprocessor) EndOfMainFile() {
	if pp.eofSent {
		return
	}
	pp.eofSent = true
	pp.dispatch(func(cb Callbacks) { cb.EndOfMainFile() })
}

// Detach drops every listener and lexer state without notifying anyone.
// Lex returns EOF afterwards.
func (pp *Preprocessor) Detach() {
	pp.detached = true
	pp.cbs = nil
	pp.comments = nil
	pp.watcher = nil
	pp.stack = nil
	pp.frames = nil
	pp.pending = nil
}

// MemoryUsage estimates bytes held by macro and header-search bookkeeping.
func (pp *Preprocessor) MemoryUsage() uint64 {
	total := pp.macros.MemoryUsage() + pp.opts.Search.MemoryUsage()
	for p := range pp.once {
		total += uint64(len(p))
	}
	for p, g := range pp.guards {
		total += uint64(len(p) + len(g))
	}
	for _, f := range pp.frames {
		total += uint64(cap(f.toks)) * uint64(unsafe.Sizeof(token.Token{}))
	}
	return total
}

func (pp *Preprocessor) dispatch(fn func(Callbacks)) {
	for _, cb := range pp.cbs {
		fn(cb)
	}
}

func (pp *Preprocessor) report(sev diag.Severity, code diag.Code, sp source.Span, msg string) *diag.ReportBuilder {
	if sev == diag.SevFatal {
		pp.fatal = true
	}
	return diag.NewReportBuilder(pp.opts.Reporter, sev, code, sp, msg)
}

func (pp *Preprocessor) push(f *source.File, kind FileKind, dirIdx int, start uint32) {
	if f.Flags&source.FileSystemHeader != 0 {
		kind = SystemFile
	}
	pp.stack = append(pp.stack, &fileFrame{
		lx:     lexer.New(f, lexer.Options{Reporter: pp.opts.Reporter, Start: start}),
		file:   f,
		kind:   kind,
		dirIdx: dirIdx,
	})
}

func (pp *Preprocessor) top() *fileFrame {
	if len(pp.stack) == 0 {
		return nil
	}
	return pp.stack[len(pp.stack)-1]
}

// Loc is the current position in the innermost file.
func (pp *Preprocessor) Loc() source.Span {
	if f := pp.top(); f != nil {
		return source.Point(f.file.ID, f.lx.Offset())
	}
	return source.Span{}
}

func (pp *Preprocessor) eofToken() token.Token {
	return token.Token{Kind: token.EOF, Span: pp.Loc(), Flags: token.FlagStartOfLine}
}

// Lex returns the next macro-expanded token. After the main file is
// exhausted it keeps returning EOF.
func (pp *Preprocessor) Lex() token.Token {
	tok := pp.lexExpanded()
	if pp.watcher != nil && tok.Kind != token.EOF {
		pp.watcher(tok)
	}
	return tok
}

func (pp *Preprocessor) lexExpanded() token.Token {
	for {
		tok := pp.next()
		if tok.Kind == token.Ident && tok.Flags&token.FlagNoExpand == 0 {
			if mi := pp.macros.Lookup(tok.Text); mi != nil {
				if pp.expanding(mi) {
					tok.Flags |= token.FlagNoExpand
					return tok
				}
				if pp.expand(tok, mi) {
					continue
				}
			}
		}
		return tok
	}
}

// next returns the next unexpanded token: pushed-back tokens first, then
// active expansion frames, then the file stack. An exhausted argument frame
// yields a single EOF.
func (pp *Preprocessor) next() token.Token {
	if n := len(pp.pending); n > 0 {
		tok := pp.pending[n-1]
		pp.pending = pp.pending[:n-1]
		return tok
	}
	for len(pp.frames) > 0 {
		f := pp.frames[len(pp.frames)-1]
		if f.pos < len(f.toks) {
			tok := f.toks[f.pos]
			f.pos++
			return tok
		}
		pp.frames = pp.frames[:len(pp.frames)-1]
		if f.macro == nil {
			return pp.eofToken()
		}
	}
	return pp.lexFile()
}

func (pp *Preprocessor) pushBack(tok token.Token) {
	pp.pending = append(pp.pending, tok)
}

func (pp *Preprocessor) expanding(mi *MacroInfo) bool {
	for _, f := range pp.frames {
		if f.macro == mi {
			return true
		}
	}
	return false
}

func (pp *Preprocessor) lexFile() token.Token {
	for {
		if pp.fatal || pp.detached {
			return pp.eofToken()
		}
		top := pp.top()
		if top == nil {
			return token.Token{Kind: token.EOF}
		}
		tok := top.lx.Next()
		if tok.Kind == token.EOF {
			if pp.exitFile(tok) {
				continue
			}
			return tok
		}
		skipping := top.skipping()
		if !skipping {
			pp.handleComments(tok.Leading)
		}
		if tok.Kind == token.Hash && tok.AtStartOfLine() {
			pp.handleDirective(top, tok)
			continue
		}
		if skipping {
			continue
		}
		if len(top.conds) == 0 && top.guardClosed {
			top.afterGuard = true
		}
		top.sawToken = true
		return tok
	}
}

func (pp *Preprocessor) handleComments(trivia []token.Trivia) {
	if len(pp.comments) == 0 {
		return
	}
	for _, tr := range trivia {
		if !tr.IsComment() {
			continue
		}
		for _, h := range pp.comments {
			h.HandleComment(pp, tr)
		}
	}
}

// exitFile handles EOF of the innermost file. It returns false for the
// main file, which is never popped.
func (pp *Preprocessor) exitFile(eof token.Token) bool {
	top := pp.top()
	pp.handleComments(eof.Leading)
	for i := len(top.conds) - 1; i >= 0; i-- {
		pp.report(diag.SevError, diag.PPUnterminatedConditional, top.conds[i].hash, "unterminated conditional directive").Emit()
	}
	top.conds = nil
	if top.guardName != "" && top.guardClosed && !top.afterGuard {
		pp.guards[top.file.Path] = top.guardName
	}
	if len(pp.stack) == 1 {
		return false
	}
	pp.stack = pp.stack[:len(pp.stack)-1]
	parent := pp.top()
	prev := top.file.ID
	pp.dispatch(func(cb Callbacks) {
		cb.FileChanged(pp.Loc(), ExitFile, parent.kind, prev)
	})
	return true
}

func (pp *Preprocessor) enterInclude(res LookupResult, content []byte) {
	flags := source.FileFlags(0)
	if res.Kind == SystemFile {
		flags |= source.FileSystemHeader
	}
	id, ok := pp.files.GetLatest(res.Entry.Path)
	if !ok || pp.files.Get(id).Flags&source.FileVirtual != 0 {
		id = pp.files.AddLoaded(res.Entry.Path, content, flags)
	}
	f := pp.files.Get(id)
	prev := pp.top().file.ID
	pp.push(f, res.Kind, res.DirIdx, 0)
	pp.dispatch(func(cb Callbacks) {
		cb.FileChanged(source.Point(id, 0), EnterFile, res.Kind, prev)
	})
}

func (pp *Preprocessor) includerDir() string {
	top := pp.top()
	if top == nil || top.file.Flags&source.FileBuiltin != 0 {
		if pp.mainID.IsValid() {
			return path.Dir(pp.files.Get(pp.mainID).Path)
		}
		return ""
	}
	return path.Dir(top.file.Path)
}
