// Package index is the symbol index consulted by the include fixer.
//
// The index answers one question: which header declares a given name.
// MemIndex is an in-memory implementation safe for concurrent readers,
// loaded from a TOML file or filled programmatically.
package index

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// SymbolKind classifies an indexed symbol.
type SymbolKind uint8

const (
	KindUnknown SymbolKind = iota
	KindFunction
	KindVariable
	KindType // typedef
	KindStruct
	KindUnion
	KindEnum
	KindMacro
)

var kindNames = map[SymbolKind]string{
	KindUnknown:  "unknown",
	KindFunction: "function",
	KindVariable: "variable",
	KindType:     "type",
	KindStruct:   "struct",
	KindUnion:    "union",
	KindEnum:     "enum",
	KindMacro:    "macro",
}

func (k SymbolKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind maps a kind name to its value; unknown names map to KindUnknown.
func ParseKind(s string) SymbolKind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// HeaderRef is a header a symbol may be included through, with the number
// of references that include it.
type HeaderRef struct {
	Header     string // spelled ("<x.h>", "\"x.h\"") or an absolute path
	References uint32
}

// Symbol is one indexed declaration.
type Symbol struct {
	Name           string
	Kind           SymbolKind
	DeclaringFile  string // absolute path
	IncludeHeaders []HeaderRef
}

// PreferredHeaders returns the include candidates, most referenced first,
// falling back to the declaring file.
func (s Symbol) PreferredHeaders() []string {
	refs := slices.Clone(s.IncludeHeaders)
	slices.SortStableFunc(refs, func(a, b HeaderRef) int { return cmp.Compare(b.References, a.References) })
	out := make([]string, 0, len(refs)+1)
	for _, r := range refs {
		out = append(out, r.Header)
	}
	if len(out) == 0 && s.DeclaringFile != "" {
		out = append(out, s.DeclaringFile)
	}
	return out
}

// SymbolIndex is read-only for its consumers.
type SymbolIndex interface {
	// Lookup calls fn for every symbol named name.
	Lookup(ctx context.Context, name string, fn func(Symbol)) error
}

// MemIndex keeps symbols in a map guarded by a RWMutex.
type MemIndex struct {
	mu      sync.RWMutex
	symbols map[string][]Symbol
}

func NewMemIndex(symbols ...Symbol) *MemIndex {
	idx := &MemIndex{symbols: make(map[string][]Symbol)}
	for _, s := range symbols {
		idx.Add(s)
	}
	return idx
}

func (idx *MemIndex) Add(s Symbol) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.symbols[s.Name] = append(idx.symbols[s.Name], s)
}

func (idx *MemIndex) Lookup(ctx context.Context, name string, fn func(Symbol)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	idx.mu.RLock()
	found := slices.Clone(idx.symbols[name])
	idx.mu.RUnlock()
	for _, s := range found {
		fn(s)
	}
	return nil
}

// Len counts indexed symbols.
func (idx *MemIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := 0
	for _, v := range idx.symbols {
		n += len(v)
	}
	return n
}
