// Package macros collects macro definitions and references written in the
// main file.
package macros

import (
	"cmp"
	"maps"
	"slices"
	"unsafe"

	"unitd/internal/pp"
	"unitd/internal/source"
	"unitd/internal/token"
)

// RefKind says how a main-file token names a macro.
type RefKind uint8

const (
	RefDefinition RefKind = iota
	RefExpansion
	RefUndef
	RefCondition // #ifdef, #ifndef, defined()
)

func (k RefKind) String() string {
	switch k {
	case RefDefinition:
		return "definition"
	case RefExpansion:
		return "expansion"
	case RefUndef:
		return "undef"
	case RefCondition:
		return "condition"
	}
	return "unknown"
}

// Ref is one occurrence of a macro name. Offsets are bytes into the main
// file, so refs recorded by the preamble stay valid in later sessions.
type Ref struct {
	Name  string  `msgpack:"name"`
	Start uint32  `msgpack:"start"`
	End   uint32  `msgpack:"end"`
	Kind  RefKind `msgpack:"kind"`
}

// MainFileMacros is the set of macro names seen in the main file plus every
// occurrence.
type MainFileMacros struct {
	Names map[string]struct{} `msgpack:"names"`
	Refs  []Ref               `msgpack:"refs"`
}

func New() *MainFileMacros {
	return &MainFileMacros{Names: make(map[string]struct{})}
}

func (m *MainFileMacros) Add(r Ref) {
	if m.Names == nil {
		m.Names = make(map[string]struct{})
	}
	m.Names[r.Name] = struct{}{}
	m.Refs = append(m.Refs, r)
}

func (m *MainFileMacros) Has(name string) bool {
	_, ok := m.Names[name]
	return ok
}

// SortedNames returns the names in lexical order.
func (m *MainFileMacros) SortedNames() []string {
	return slices.Sorted(maps.Keys(m.Names))
}

// RefsOf returns the occurrences of name in source order.
func (m *MainFileMacros) RefsOf(name string) []Ref {
	var out []Ref
	for _, r := range m.Refs {
		if r.Name == name {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Ref) int { return cmp.Compare(a.Start, b.Start) })
	return out
}

func (m *MainFileMacros) Clone() *MainFileMacros {
	if m == nil {
		return New()
	}
	return &MainFileMacros{Names: maps.Clone(m.Names), Refs: slices.Clone(m.Refs)}
}

func (m *MainFileMacros) MemoryUsage() uint64 {
	if m == nil {
		return 0
	}
	n := uint64(cap(m.Refs)) * uint64(unsafe.Sizeof(Ref{}))
	for name := range m.Names {
		n += uint64(len(name)) + 16
	}
	return n
}

// Collector is a preprocessor listener recording main-file macro refs.
type Collector struct {
	pp.NopCallbacks
	p   *pp.Preprocessor
	out *MainFileMacros
}

func Collect(p *pp.Preprocessor, out *MainFileMacros) *Collector {
	return &Collector{p: p, out: out}
}

func (c *Collector) add(name token.Token, kind RefKind) {
	sp := name.Span
	if name.FromMacro() || !c.p.IsMainFile(sp.File) || name.Text == "" {
		return
	}
	c.out.Add(Ref{Name: name.Text, Start: sp.Start, End: sp.End, Kind: kind})
}

func (c *Collector) MacroDefined(name token.Token, _ *pp.MacroInfo) {
	c.add(name, RefDefinition)
}

func (c *Collector) MacroUndefined(name token.Token, _ *pp.MacroInfo) {
	c.add(name, RefUndef)
}

func (c *Collector) MacroExpands(name token.Token, _ *pp.MacroInfo, _ source.Span) {
	c.add(name, RefExpansion)
}

func (c *Collector) Ifdef(_ source.Span, name token.Token, _ *pp.MacroInfo) {
	c.add(name, RefCondition)
}

func (c *Collector) Ifndef(_ source.Span, name token.Token, _ *pp.MacroInfo) {
	c.add(name, RefCondition)
}

func (c *Collector) Defined(name token.Token, _ *pp.MacroInfo) {
	c.add(name, RefCondition)
}
