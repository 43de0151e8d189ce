package session

import (
	"unitd/internal/pp"
	"unitd/internal/source"
)

// includeLocator remembers, for every entered file, the main-file #include
// through which it was reached. Files entered from the prologue (forced
// includes) map to the start of the main file.
type includeLocator struct {
	pp.NopCallbacks
	p       *pp.Preprocessor
	pending source.Span
	current source.Span
	byFile  map[source.FileID]source.Span
}

func newIncludeLocator(p *pp.Preprocessor) *includeLocator {
	return &includeLocator{p: p, byFile: make(map[source.FileID]source.Span)}
}

func (l *includeLocator) InclusionDirective(ev pp.InclusionEvent) {
	switch ev.HashLoc.File {
	case l.p.MainFileID():
		l.pending = ev.HashLoc.Cover(ev.FilenameRange)
	case l.p.BuiltinFileID():
		l.pending = source.Point(l.p.MainFileID(), 0)
	}
}

func (l *includeLocator) FileChanged(loc source.Span, reason pp.FileChangeReason, _ pp.FileKind, prev source.FileID) {
	if reason != pp.EnterFile || loc.File == l.p.BuiltinFileID() || loc.File == l.p.MainFileID() {
		return
	}
	if prev == l.p.MainFileID() || prev == l.p.BuiltinFileID() {
		l.current = l.pending
	}
	l.byFile[loc.File] = l.current
}

func (l *includeLocator) locate(id source.FileID) (source.Span, bool) {
	sp, ok := l.byFile[id]
	return sp, ok
}
