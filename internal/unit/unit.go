// Package unit builds a ParsedUnit: one translation unit preprocessed,
// parsed and analysed, with its diagnostics, tokens and collected facts.
//
// A build optionally reuses a compiled prefix (preamble.Data). Lexing then
// resumes after the prefix, the prefix's main-file includes are replayed to
// the listeners that need them, and the prefix's facts seed the unit's own.
//
// Diagnostics of a unit come in three segments that never interleave:
// configuration diagnostics, prefix diagnostics (only when a prefix was
// used), then diagnostics of the build itself.
package unit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"unitd/internal/ast"
	"unitd/internal/canonical"
	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/headers"
	"unitd/internal/includefixer"
	"unitd/internal/index"
	"unitd/internal/macros"
	"unitd/internal/observ"
	"unitd/internal/pp"
	"unitd/internal/preamble"
	"unitd/internal/session"
	"unitd/internal/source"
	"unitd/internal/tidy"
	"unitd/internal/trace"
	"unitd/internal/vfs"
)

var (
	// ErrSessionStart is the only error Build returns: the front end could
	// not be set up for the file.
	ErrSessionStart = errors.New("unit: cannot start session")
	// ErrClosed is returned by operations on a closed unit.
	ErrClosed = errors.New("unit: closed")
)

// ParseOptions toggle optional parts of a build.
type ParseOptions struct {
	SuggestMissingIncludes bool
	Checks                 tidy.Options
}

// Inputs of one build. They are not modified.
type Inputs struct {
	FileName    string
	Contents    []byte // nil: read FileName from FS
	Invocation  *config.Invocation
	ConfigDiags []diag.Diagnostic
	FS          vfs.FileSystem
	Index       index.SymbolIndex // optional
	Opts        ParseOptions
	Checks      *tidy.Registry
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// ParsedUnit is the result of Build. It owns its session until Close.
type ParsedUnit struct {
	noCopy noCopy

	session    *session.Session
	tokens     *TokenBuffer
	localDecls []ast.DeclID
	includes   *headers.IncludeStructure
	macros     *macros.MainFileMacros
	canon      *canonical.Includes
	diags      []diag.Diagnostic
	timer      *observ.Timer
	preamble   bool

	replay *replayer
	fixer  *includefixer.Fixer
}

// Build runs the front end over in and returns the unit. Failures after the
// session started are logged and leave a partial unit; only a session that
// cannot start is an error.
func Build(ctx context.Context, in Inputs, pre *preamble.Data) (*ParsedUnit, error) {
	ctx, span := trace.Start(ctx, trace.ScopeUnit, "unit.build")
	defer span.End("")
	span.WithExtra("file", in.FileName)

	timer := observ.NewTimer()
	done := timer.Track(observ.PhaseSession)
	opts := session.Options{
		Invocation: invocationFor(in),
		FS:         in.FS,
		Contents:   in.Contents,
	}
	if pre != nil {
		opts.Start = pre.Bounds
		opts.Prologue = pre.MacroDefs
		opts.External = pre.Symbols
	}
	s, err := session.New(opts)
	if err == nil {
		if err = s.BeginSourceFile(); err != nil {
			s.Close()
		}
	}
	if err != nil {
		trace.Log(ctx, trace.ScopeUnit, "unit.session-start-failed", err.Error(), "file", in.FileName)
		return nil, fmt.Errorf("%s: %w: %w", in.FileName, ErrSessionStart, err)
	}
	done("")

	done = timer.Track(observ.PhaseSetup)
	p, main := s.PP(), s.Main()
	u := &ParsedUnit{session: s, timer: timer, preamble: pre != nil}
	u.seed(pre)

	tctx := tidy.NewContext(in.Opts.Checks, s.Invocation().Lang)
	_, initSpan := trace.Start(ctx, trace.ScopePhase, "tidy.init")
	host := tidy.NewHost(in.Checks, tctx)
	initSpan.WithExtra("checks", strconv.Itoa(len(host.Checks()))).End("")
	tctx.SetDiagnosticsEngine(s.Engine())

	store := &diagStore{s: s, tidy: tctx}
	if in.Opts.SuggestMissingIncludes && in.Index != nil {
		if _, err := s.FS().Getwd(); err == nil {
			ins := headers.NewInserter(main, p.Search(), u.includes)
			store.fixer = includefixer.New(ctx, ins, in.Index, u.canon)
			s.Sema().SetExternalSource(store.fixer)
			u.fixer = store.fixer
		}
	}
	s.Engine().SetConsumer(store)

	// Replay goes to the check listeners only. The session's include
	// locator needs no replayed events, and the collectors below are
	// already seeded with the prefix facts.
	base := len(p.Callbacks())
	host.RegisterPPCallbacks(p)
	if pre != nil && pre.Includes != nil {
		u.replay = attachReplay(ctx, p, s.FS(), main, pre.Includes.MainFileIncludes, p.Callbacks()[base:])
	}
	p.AddCallbacks(headers.Collect(p, u.includes))
	p.AddCallbacks(macros.Collect(p, u.macros))
	p.AddCommentHandler(canonical.NewPragmaHandler(u.canon))

	tokens, stopTokens := collectTokens(p, main)
	u.tokens = tokens
	done("")

	done = timer.Track(observ.PhaseExecute)
	note := ""
	if err := s.Execute(); err != nil {
		trace.Log(ctx, trace.ScopeUnit, "unit.execute-failed", err.Error(), "file", main.Path)
		note = "stopped: " + err.Error()
	}
	stopTokens()
	done(note)

	done = timer.Track(observ.PhaseChecks)
	actx := s.AST()
	u.localDecls = localTopLevelDecls(actx, main.ID)
	actx.SetTraversalScope(u.localDecls)
	_, matchSpan := trace.Start(ctx, trace.ScopePhase, "tidy.match")
	host.Match(actx)
	matchSpan.End("")
	done("")

	done = timer.Track(observ.PhaseFinalize)
	s.EndOfMainFile()
	built := store.Diagnostics()
	var preDiags []diag.Diagnostic
	if pre != nil {
		preDiags = pre.Diags
	}
	u.diags = make([]diag.Diagnostic, 0, len(in.ConfigDiags)+len(preDiags)+len(built))
	u.diags = append(u.diags, in.ConfigDiags...)
	u.diags = append(u.diags, preDiags...)
	u.diags = append(u.diags, built...)
	done("")
	return u, nil
}

func invocationFor(in Inputs) *config.Invocation {
	inv := in.Invocation
	if inv == nil || in.FileName == "" || inv.MainFile == in.FileName {
		return inv
	}
	inv = inv.Clone()
	inv.MainFile = in.FileName
	return inv
}

// seed starts the unit's facts from the prefix, or from defaults.
func (u *ParsedUnit) seed(pre *preamble.Data) {
	if pre == nil {
		u.includes = headers.NewIncludeStructure()
		u.macros = macros.New()
		u.canon = canonical.New()
		u.canon.AddSystemHeadersMapping()
		return
	}
	u.includes = pre.Includes.Clone()
	u.macros = pre.Macros.Clone()
	u.canon = pre.CanonIncludes.Clone()
	if pre.CanonIncludes == nil {
		u.canon.AddSystemHeadersMapping()
	}
}

// localTopLevelDecls keeps top-level declarations written in the main
// file. Instantiations and binding methods are not written anywhere.
func localTopLevelDecls(actx *ast.Context, main source.FileID) []ast.DeclID {
	var out []ast.DeclID
	for _, id := range actx.TopLevel() {
		d := actx.Decl(id)
		if d == nil || d.Span.File != main {
			continue
		}
		if d.Has(ast.DeclImplicitInstantiation | ast.DeclBindingMethod) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (u *ParsedUnit) Session() *session.Session              { return u.session }
func (u *ParsedUnit) Main() *source.File                     { return u.session.Main() }
func (u *ParsedUnit) Files() *source.FileSet                 { return u.session.Files() }
func (u *ParsedUnit) AST() *ast.Context                      { return u.session.AST() }
func (u *ParsedUnit) PP() *pp.Preprocessor                   { return u.session.PP() }
func (u *ParsedUnit) Tokens() *TokenBuffer                   { return u.tokens }
func (u *ParsedUnit) LocalTopLevelDecls() []ast.DeclID       { return u.localDecls }
func (u *ParsedUnit) Includes() *headers.IncludeStructure    { return u.includes }
func (u *ParsedUnit) Macros() *macros.MainFileMacros         { return u.macros }
func (u *ParsedUnit) CanonicalIncludes() *canonical.Includes { return u.canon }
func (u *ParsedUnit) Diagnostics() []diag.Diagnostic         { return u.diags }
func (u *ParsedUnit) Timings() *observ.Timer                 { return u.timer }

// HasPreamble reports whether the build reused a compiled prefix.
func (u *ParsedUnit) HasPreamble() bool { return u.preamble }

// IndexQueries counts symbol index lookups made by the include fixer.
func (u *ParsedUnit) IndexQueries() int {
	if u.fixer == nil {
		return 0
	}
	return u.fixer.Queries()
}

// Dump writes the local declarations as an indented tree.
func (u *ParsedUnit) Dump(w io.Writer) error {
	if u.session.Closed() {
		return ErrClosed
	}
	return u.session.AST().Dump(w, u.session.Files())
}

// Close tears the unit down in order: preprocessor listeners are dropped
// without a second end-of-file event, then sema and the AST go, then the
// preprocessor. Safe to call more than once.
func (u *ParsedUnit) Close() {
	if u == nil {
		return
	}
	u.session.Close()
}
