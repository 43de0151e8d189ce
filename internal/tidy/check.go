// Package tidy hosts pluggable checks over one translation unit.
//
// Checks come from a Registry of factories owned by the caller. A check
// may observe preprocessor events of the freshly parsed region (PPCheck)
// and register AST matchers (MatcherCheck); matchers only ever see the
// traversal scope of the AST context, which the unit builder restricts to
// the main file's top-level declarations.
package tidy

import (
	"fmt"
	"slices"

	"unitd/internal/config"
	"unitd/internal/pp"
)

// Check is one named static analysis.
type Check interface {
	Name() string
	SupportsLanguage(lang config.LangOptions) bool
}

// PPCheck observes preprocessor events.
type PPCheck interface {
	Check
	RegisterPPCallbacks(ctx *Context, p *pp.Preprocessor) pp.Callbacks
}

// MatcherCheck matches AST nodes.
type MatcherCheck interface {
	Check
	RegisterMatchers(f *MatchFinder)
}

// Factory creates a check bound to ctx.
type Factory func(name string, ctx *Context) Check

// Registry maps check names to factories. It is filled during setup and
// read-only afterwards, so concurrent builds may share it.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Names are unique.
func (r *Registry) Register(name string, f Factory) error {
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("check %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Names lists registered checks in lexical order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// CreateChecks instantiates every check enabled in ctx that supports the
// unit's language, in name order.
func (r *Registry) CreateChecks(ctx *Context) []Check {
	var out []Check
	for _, name := range r.Names() {
		if !ctx.IsCheckEnabled(name) {
			continue
		}
		c := r.factories[name](name, ctx)
		if c == nil || !c.SupportsLanguage(ctx.Lang()) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Base carries the name of a check; embed it.
type Base struct {
	name string
	ctx  *Context
}

func NewBase(name string, ctx *Context) Base { return Base{name: name, ctx: ctx} }

func (b Base) Name() string { return b.name }

func (b Base) Context() *Context { return b.ctx }

// SupportsLanguage accepts every language; override to narrow.
func (b Base) SupportsLanguage(config.LangOptions) bool { return true }

// Option reads a check-local option.
func (b Base) Option(key, def string) string { return b.ctx.GetOption(b.name, key, def) }
