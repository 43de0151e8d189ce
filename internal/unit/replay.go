package unit

import (
	"context"
	"fmt"

	"fortio.org/safecast"

	"unitd/internal/headers"
	"unitd/internal/pp"
	"unitd/internal/source"
	"unitd/internal/token"
	"unitd/internal/trace"
	"unitd/internal/vfs"
)

// replayer re-announces the main-file includes of a compiled prefix to
// listeners that never saw the prefix being preprocessed. It fires once,
// when the built-in prologue is left and the main file resumes.
type replayer struct {
	pp.NopCallbacks
	ctx      context.Context
	p        *pp.Preprocessor
	fs       vfs.FileSystem
	main     *source.File
	includes []headers.Inclusion
	targets  []pp.Callbacks

	done     bool
	replayed int
	missing  int
}

// attachReplay registers a replayer delivering to targets only. Listeners
// added later do not receive replayed events. Returns nil when there is
// nobody to replay to.
func attachReplay(ctx context.Context, p *pp.Preprocessor, fs vfs.FileSystem, main *source.File, includes []headers.Inclusion, targets []pp.Callbacks) *replayer {
	if len(targets) == 0 {
		return nil
	}
	r := &replayer{
		ctx:      ctx,
		p:        p,
		fs:       fs,
		main:     main,
		includes: includes,
		targets:  targets,
	}
	p.AddCallbacks(r)
	return r
}

func (r *replayer) FileChanged(_ source.Span, reason pp.FileChangeReason, _ pp.FileKind, prev source.FileID) {
	if r.done || reason != pp.ExitFile || prev != r.p.BuiltinFileID() {
		return
	}
	r.done = true
	for _, inc := range r.includes {
		r.replay(inc)
	}
}

func (r *replayer) replay(inc headers.Inclusion) {
	id := r.main.ID
	dir := inc.Directive.String()
	filename := source.Span{File: id, Start: inc.WrittenOffset, End: inc.WrittenOffset + width(inc.Written)}
	ev := pp.InclusionEvent{
		HashLoc: source.Span{File: id, Start: inc.HashOffset, End: inc.HashOffset + 1},
		IncludeTok: token.Token{
			Kind: token.Ident,
			Span: source.Span{File: id, Start: inc.DirectiveOffset, End: inc.DirectiveOffset + width(dir)},
			Text: dir,
		},
		Written:       inc.Written,
		FileName:      inc.Name(),
		IsAngled:      inc.Angled(),
		FilenameRange: filename,
		Kind:          inc.FileKind,
	}

	var entry vfs.Entry
	found := false
	if inc.Resolved != "" {
		if e, err := r.fs.Stat(inc.Resolved); err == nil {
			entry, found = e, true
			ev.Resolved = e.Path
		}
	}
	kind := token.StringLit
	if ev.IsAngled {
		kind = token.HeaderName
	}
	fnTok := token.Token{Kind: kind, Span: filename, Text: inc.Written}

	for _, cb := range r.targets {
		cb.InclusionDirective(ev)
	}
	r.replayed++
	if found {
		for _, cb := range r.targets {
			cb.FileSkipped(entry, fnTok, inc.FileKind)
		}
		return
	}
	r.missing++
	trace.Log(r.ctx, trace.ScopeUnit, "unit.replay-file-not-found", inc.Written, "file", r.main.Path)
	for _, cb := range r.targets {
		cb.FileNotFound(inc.Name())
	}
}

func width(s string) uint32 {
	n, err := safecast.Conv[uint32](len(s))
	if err != nil {
		panic(fmt.Errorf("token width overflow: %w", err))
	}
	return n
}
