package pp

import (
	"unitd/internal/source"
	"unitd/internal/token"
	"unitd/internal/vfs"
)

// FileChangeReason says why the current lexer file changed.
type FileChangeReason uint8

const (
	EnterFile FileChangeReason = iota
	ExitFile
	SystemHeaderPragma
)

func (r FileChangeReason) String() string {
	switch r {
	case EnterFile:
		return "enter"
	case ExitFile:
		return "exit"
	case SystemHeaderPragma:
		return "system-header-pragma"
	}
	return "unknown"
}

// FileKind tells user headers from system headers.
type FileKind uint8

const (
	UserFile FileKind = iota
	SystemFile
)

func (k FileKind) String() string {
	if k == SystemFile {
		return "system"
	}
	return "user"
}

// InclusionEvent describes one #include, #include_next or #import.
type InclusionEvent struct {
	HashLoc       source.Span // the '#'
	IncludeTok    token.Token // directive name
	Written       string      // exact spelling incl. quotes or brackets
	FileName      string      // spelling without delimiters
	IsAngled      bool
	FilenameRange source.Span
	Resolved      string // absolute path, "" when not found
	Kind          FileKind
}

// Callbacks observes preprocessor events. Embed NopCallbacks to implement
// only the events of interest.
type Callbacks interface {
	FileChanged(loc source.Span, reason FileChangeReason, kind FileKind, prev source.FileID)
	// FileSkipped fires when an #include resolves but the file is not
	// entered (include guard, #pragma once, preamble replay).
	FileSkipped(entry vfs.Entry, filenameTok token.Token, kind FileKind)
	FileNotFound(fileName string)
	InclusionDirective(ev InclusionEvent)
	MacroDefined(name token.Token, mi *MacroInfo)
	MacroUndefined(name token.Token, mi *MacroInfo)
	MacroExpands(name token.Token, mi *MacroInfo, rng source.Span)
	Ifdef(loc source.Span, name token.Token, mi *MacroInfo)
	Ifndef(loc source.Span, name token.Token, mi *MacroInfo)
	Defined(name token.Token, mi *MacroInfo)
	PragmaDirective(loc source.Span, text string)
	EndOfMainFile()
}

// NopCallbacks implements Callbacks with empty methods.
type NopCallbacks struct{}

func (NopCallbacks) FileChanged(source.Span, FileChangeReason, FileKind, source.FileID) {}
func (NopCallbacks) FileSkipped(vfs.Entry, token.Token, FileKind)                       {}
func (NopCallbacks) FileNotFound(string)                                                {}
func (NopCallbacks) InclusionDirective(InclusionEvent)                                  {}
func (NopCallbacks) MacroDefined(token.Token, *MacroInfo)                               {}
func (NopCallbacks) MacroUndefined(token.Token, *MacroInfo)                             {}
func (NopCallbacks) MacroExpands(token.Token, *MacroInfo, source.Span)                  {}
func (NopCallbacks) Ifdef(source.Span, token.Token, *MacroInfo)                         {}
func (NopCallbacks) Ifndef(source.Span, token.Token, *MacroInfo)                        {}
func (NopCallbacks) Defined(token.Token, *MacroInfo)                                    {}
func (NopCallbacks) PragmaDirective(source.Span, string)                                {}
func (NopCallbacks) EndOfMainFile()                                                     {}

// CommentHandler sees every comment in non-skipped regions.
type CommentHandler interface {
	HandleComment(pp *Preprocessor, c token.Trivia)
}

// CommentHandlerFunc adapts a function to CommentHandler.
type CommentHandlerFunc func(pp *Preprocessor, c token.Trivia)

func (f CommentHandlerFunc) HandleComment(pp *Preprocessor, c token.Trivia) { f(pp, c) }
