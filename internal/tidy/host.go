package tidy

import (
	"unitd/internal/ast"
	"unitd/internal/pp"
)

// Host owns the checks of one build.
type Host struct {
	ctx    *Context
	checks []Check
	finder MatchFinder
}

// NewHost instantiates the enabled checks and collects their matchers.
// A nil registry yields an empty host.
func NewHost(reg *Registry, ctx *Context) *Host {
	h := &Host{ctx: ctx}
	if reg == nil {
		return h
	}
	h.checks = reg.CreateChecks(ctx)
	for _, c := range h.checks {
		if mc, ok := c.(MatcherCheck); ok {
			mc.RegisterMatchers(&h.finder)
		}
	}
	return h
}

func (h *Host) Context() *Context { return h.ctx }

func (h *Host) Checks() []Check { return h.checks }

// RegisterPPCallbacks attaches preprocessor listeners of PP checks.
func (h *Host) RegisterPPCallbacks(p *pp.Preprocessor) {
	for _, c := range h.checks {
		if pc, ok := c.(PPCheck); ok {
			p.AddCallbacks(pc.RegisterPPCallbacks(h.ctx, p))
		}
	}
}

// Match runs the matchers over the traversal scope of actx.
func (h *Host) Match(actx *ast.Context) {
	h.finder.MatchAST(actx)
}
