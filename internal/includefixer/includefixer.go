// Package includefixer repairs unresolved-name diagnostics by suggesting the
// #include that declares the name.
//
// Sema reports every failed lookup through sema.ExternalSource before it
// emits the matching diagnostic. The fixer remembers the last such name and,
// when the diagnostic arrives, asks the symbol index where the name is
// declared. Index queries are bounded per build.
package includefixer

import (
	"context"
	"fmt"

	"unitd/internal/canonical"
	"unitd/internal/diag"
	"unitd/internal/fix"
	"unitd/internal/headers"
	"unitd/internal/index"
	"unitd/internal/sema"
)

// MaxIndexQueries bounds the index lookups of one build.
const MaxIndexQueries = 5

// Fixer is created per build and is not safe for concurrent use.
type Fixer struct {
	ctx      context.Context
	inserter *headers.Inserter
	index    index.SymbolIndex
	canon    *canonical.Includes

	queries int
	cache   map[string][]index.Symbol
	last    *sema.Unresolved
}

var _ sema.ExternalSource = (*Fixer)(nil)

func New(ctx context.Context, ins *headers.Inserter, idx index.SymbolIndex, canon *canonical.Includes) *Fixer {
	return &Fixer{
		ctx:      ctx,
		inserter: ins,
		index:    idx,
		canon:    canon,
		cache:    make(map[string][]index.Symbol),
	}
}

// NameNotFound records the unresolved name for the next diagnostic.
func (f *Fixer) NameNotFound(u sema.Unresolved) {
	f.last = &u
}

// Queries counts index lookups issued so far.
func (f *Fixer) Queries() int { return f.queries }

// Fix returns include fixes for d, or nil.
func (f *Fixer) Fix(d diag.Diagnostic) []diag.Fix {
	switch d.Code {
	case diag.SemaUndeclaredIdentifier, diag.SemaUnknownTypeName, diag.SemaIncompleteType:
	default:
		return nil
	}
	if f.last == nil || f.last.Span != d.Primary {
		return nil
	}
	name := f.last.Name
	syms, ok := f.lookup(name)
	if !ok {
		return nil
	}
	return f.fixesFor(name, syms)
}

// lookup consults the cache first; a new name costs one query while the
// budget lasts.
func (f *Fixer) lookup(name string) ([]index.Symbol, bool) {
	if syms, ok := f.cache[name]; ok {
		return syms, true
	}
	if f.queries >= MaxIndexQueries {
		return nil, false
	}
	f.queries++
	var syms []index.Symbol
	err := f.index.Lookup(f.ctx, name, func(s index.Symbol) { syms = append(syms, s) })
	if err != nil {
		return nil, false
	}
	f.cache[name] = syms
	return syms, true
}

func (f *Fixer) fixesFor(name string, syms []index.Symbol) []diag.Fix {
	var fixes []diag.Fix
	seen := make(map[string]bool)
	for _, s := range syms {
		for _, h := range f.candidates(s) {
			if !f.inserter.ShouldInsert(h) {
				continue
			}
			spelled, ok := f.inserter.Spell(h)
			if !ok || seen[spelled] {
				continue
			}
			if !f.inserter.ShouldInsert(headers.Header{File: spelled, Verbatim: true}) {
				continue
			}
			seen[spelled] = true
			edit := f.inserter.Insert(spelled)
			opts := []fix.Option{
				fix.WithID("include-fixer:" + spelled),
				fix.WithApplicability(diag.FixApplicabilitySafeWithHeuristics),
			}
			if len(fixes) == 0 {
				opts = append(opts, fix.Preferred())
			}
			fixes = append(fixes, fix.InsertText(fmt.Sprintf("Include %s for symbol %s", spelled, name),
				edit.Span.File, edit.Span.Start, edit.NewText, opts...))
		}
	}
	return fixes
}

// candidates lists the headers to offer for s, canonical forms replacing
// implementation headers.
func (f *Fixer) candidates(s index.Symbol) []headers.Header {
	if c := f.canon.MapSymbol(s.Name); c != "" {
		return []headers.Header{{File: c, Verbatim: true}}
	}
	var out []headers.Header
	for _, h := range s.PreferredHeaders() {
		switch {
		case isSpelled(h):
			out = append(out, headers.Header{File: h, Verbatim: true})
		case f.canon.MapHeader(h) != "":
			out = append(out, headers.Header{File: f.canon.MapHeader(h), Verbatim: true})
		default:
			out = append(out, headers.Header{File: h})
		}
	}
	return out
}

func isSpelled(h string) bool {
	return len(h) > 1 && (h[0] == '<' || h[0] == '"')
}
