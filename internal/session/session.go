// Package session drives one compilation of a main file.
//
// A Session owns the file set, the preprocessor, the AST context and sema.
// Its lifecycle is New, BeginSourceFile, Execute, EndOfMainFile and
// finally Close. Close tears down in a fixed order: the preprocessor is
// detached first (no second end-of-file notification reaches listeners),
// then the action ends and sema and the AST are released, then the
// preprocessor itself is dropped.
package session

import (
	"errors"
	"fmt"

	"unitd/internal/ast"
	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/parser"
	"unitd/internal/pp"
	"unitd/internal/sema"
	"unitd/internal/source"
	"unitd/internal/vfs"
)

var (
	// ErrFatal is returned by Execute when a fatal diagnostic stopped it.
	ErrFatal = errors.New("fatal error while executing")
	// ErrState rejects lifecycle calls out of order.
	ErrState = errors.New("session: call out of order")
)

// Options describe one session. Start and Prologue come from a compiled
// prefix: lexing of the main file resumes at Start, and Prologue (the
// prefix macro table) runs after the predefines.
type Options struct {
	Invocation *config.Invocation
	FS         vfs.FileSystem
	Contents   []byte // nil: read Invocation.MainFile from FS
	Start      uint32
	Prologue   string
	External   *sema.Symbols
}

type state uint8

const (
	stateNew state = iota
	stateBegun
	stateExecuted
	stateClosed
)

var stateNames = [...]string{"new", "begun", "executed", "closed"}

func (s state) String() string { return stateNames[s] }

type Session struct {
	opts    Options
	inv     *config.Invocation
	fs      vfs.FileSystem
	files   *source.FileSet
	main    *source.File
	engine  *Engine
	pp      *pp.Preprocessor
	actx    *ast.Context
	sema    *sema.Sema
	locator *includeLocator
	parsed  parser.Result
	state   state

	// teardown observes Close steps; tests only.
	teardown func(step string)
}

// New validates the invocation and loads the main buffer. The main file is
// the first file of the set, so its FileID is stable across sessions.
func New(opts Options) (*Session, error) {
	if err := opts.Invocation.Validate(); err != nil {
		return nil, err
	}
	inv := opts.Invocation
	fsys := opts.FS
	if fsys == nil {
		fsys = vfs.OS{Dir: inv.Directory}
	}
	contents := opts.Contents
	if contents == nil {
		data, err := fsys.ReadFile(inv.MainFile)
		if err != nil {
			return nil, fmt.Errorf("read main file: %w", err)
		}
		contents = data
	}
	if int(opts.Start) > len(contents) {
		return nil, fmt.Errorf("prefix ends at %d but %s has %d bytes", opts.Start, inv.MainFile, len(contents))
	}
	files := source.NewFileSet()
	main := files.Get(files.Add(inv.MainFile, contents, 0))
	return &Session{
		opts:   opts,
		inv:    inv,
		fs:     fsys,
		files:  files,
		main:   main,
		engine: NewEngine(inv),
	}, nil
}

// BeginSourceFile creates the preprocessor, the AST context and sema.
func (s *Session) BeginSourceFile() error {
	if s.state != stateNew {
		return fmt.Errorf("%w: BeginSourceFile in state %s", ErrState, s.state)
	}
	s.actx = ast.NewContext(ast.Hints{})
	s.pp = pp.New(pp.Options{
		FS:       s.fs,
		Files:    s.files,
		Search:   pp.NewHeaderSearch(s.fs, s.inv),
		Reporter: s.engine,
	})
	s.sema = sema.New(s.actx, sema.Options{
		Reporter: s.engine,
		Files:    s.files,
		Lang:     s.inv.Lang,
		External: s.opts.External,
	})
	s.locator = newIncludeLocator(s.pp)
	s.pp.AddCallbacks(s.locator)
	s.state = stateBegun
	return nil
}

// Execute preprocesses and parses the main file from Start to the end.
// Partial results stay available when it fails.
func (s *Session) Execute() error {
	if s.state != stateBegun {
		return fmt.Errorf("%w: Execute in state %s", ErrState, s.state)
	}
	s.state = stateExecuted
	s.pp.EnterMainFile(s.main, s.opts.Start, pp.Predefines(s.inv)+s.opts.Prologue)
	s.parsed = parser.ParseTranslationUnit(s.pp, s.actx, parser.Options{
		Reporter: s.engine,
		Actions:  s.sema,
		Stop:     func() bool { return s.engine.Fatal() || s.pp.Fatal() },
	})
	if s.engine.Fatal() || s.pp.Fatal() {
		return fmt.Errorf("%s: %w", s.inv.MainFile, ErrFatal)
	}
	return nil
}

// EndOfMainFile signals end of input to the preprocessor listeners.
// The semantic context stays alive.
func (s *Session) EndOfMainFile() {
	if s.pp != nil && s.state == stateExecuted {
		s.pp.EndOfMainFile()
	}
}

// Close performs the ordered teardown. It is idempotent.
func (s *Session) Close() {
	if s == nil || s.state == stateClosed {
		return
	}
	s.state = stateClosed
	if s.pp != nil {
		s.pp.Detach()
		s.step("detach")
	}
	if s.sema != nil {
		s.sema.Release()
	}
	if s.actx != nil {
		s.actx.Release()
	}
	s.step("end-action")
	s.pp = nil
	s.locator = nil
	s.step("release-pp")
}

func (s *Session) step(name string) {
	if s.teardown != nil {
		s.teardown(name)
	}
}

func (s *Session) Invocation() *config.Invocation { return s.inv }
func (s *Session) FS() vfs.FileSystem             { return s.fs }
func (s *Session) Files() *source.FileSet         { return s.files }
func (s *Session) Main() *source.File             { return s.main }
func (s *Session) Engine() *Engine                { return s.engine }
func (s *Session) PP() *pp.Preprocessor           { return s.pp }
func (s *Session) AST() *ast.Context              { return s.actx }
func (s *Session) Sema() *sema.Sema               { return s.sema }
func (s *Session) Start() uint32                  { return s.opts.Start }

// Parsed is the parser's summary of the last Execute.
func (s *Session) Parsed() parser.Result { return s.parsed }

// Closed reports whether Close ran.
func (s *Session) Closed() bool { return s.state == stateClosed }

// MemoryUsage estimates bytes held by file buffers and line tables, AST
// arenas, sema scopes, the macro table and header search.
func (s *Session) MemoryUsage() uint64 {
	if s == nil {
		return 0
	}
	total := s.files.MemoryUsage()
	if s.state == stateClosed {
		return total
	}
	if s.actx != nil {
		total += s.actx.MemoryUsage()
	}
	if s.sema != nil {
		total += s.sema.MemoryUsage()
	}
	if s.pp != nil {
		total += s.pp.MemoryUsage()
	}
	return total
}

// Fold moves a diagnostic raised in an included file onto the main-file
// #include that brought the file in, keeping the original as a note.
// ok is false for main-file diagnostics and for files never entered from
// the main file.
func (s *Session) Fold(d diag.Diagnostic) (folded diag.Diagnostic, ok bool) {
	if s.locator == nil || d.Primary.File == s.main.ID || !d.Primary.File.IsValid() {
		return d, false
	}
	at, found := s.locator.locate(d.Primary.File)
	if !found {
		return d, false
	}
	folded = diag.Diagnostic{
		Severity: d.Severity,
		Code:     diag.PPInIncludedFile,
		Message:  "in included file: " + d.Message,
		Primary:  at,
		Check:    d.Check,
		Notes:    append([]diag.Note{{Span: d.Primary, Msg: d.Message}}, d.Notes...),
	}
	return folded, true
}
