package checks

import (
	"unitd/internal/fix"
	"unitd/internal/pp"
	"unitd/internal/tidy"
	"unitd/internal/token"
)

// duplicateInclude flags a second #include of the same spelling in the
// main file. A macro (un)definition between the two resets the set: the
// header may depend on it.
type duplicateInclude struct {
	tidy.Base
}

func newDuplicateInclude(name string, ctx *tidy.Context) tidy.Check {
	return &duplicateInclude{Base: tidy.NewBase(name, ctx)}
}

func (c *duplicateInclude) RegisterPPCallbacks(ctx *tidy.Context, p *pp.Preprocessor) pp.Callbacks {
	return &duplicateIncludeCallbacks{check: c, ctx: ctx, p: p, seen: make(map[string]bool)}
}

type duplicateIncludeCallbacks struct {
	pp.NopCallbacks
	check *duplicateInclude
	ctx   *tidy.Context
	p     *pp.Preprocessor
	seen  map[string]bool
}

func (cb *duplicateIncludeCallbacks) InclusionDirective(ev pp.InclusionEvent) {
	if !cb.p.IsMainFile(ev.HashLoc.File) {
		return
	}
	if !cb.seen[ev.Written] {
		cb.seen[ev.Written] = true
		return
	}
	b := cb.ctx.Diag(cb.check.Name(), ev.HashLoc, "duplicate include of "+ev.FileName)
	if f := cb.p.Files().Get(ev.HashLoc.File); f != nil {
		b.WithFixSuggestion(fix.DeleteLine("remove duplicate include", f, ev.HashLoc.Start,
			fix.WithID(cb.check.Name()), fix.Preferred()))
	}
	b.Emit()
}

func (cb *duplicateIncludeCallbacks) MacroDefined(name token.Token, _ *pp.MacroInfo) {
	if cb.p.IsMainFile(name.Span.File) {
		clear(cb.seen)
	}
}

func (cb *duplicateIncludeCallbacks) MacroUndefined(name token.Token, _ *pp.MacroInfo) {
	if cb.p.IsMainFile(name.Span.File) {
		clear(cb.seen)
	}
}
