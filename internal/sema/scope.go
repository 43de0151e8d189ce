package sema

import (
	"golang.org/x/text/unicode/norm"

	"unitd/internal/ast"
	"unitd/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeFile ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

type symbol struct {
	name    string
	kind    SymbolKind
	typ     TypeRef
	decl    ast.DeclID // NoDeclID for symbols from the prefix
	defined bool
	span    source.Span // declaration name in this session
	loc     Location    // declaration site for prefix symbols
}

type tagInfo struct {
	key      string
	enum     bool
	union    bool
	complete bool
	fields   map[string]TypeRef
	order    []string
	decl     ast.DeclID
	span     source.Span
	loc      Location
}

func (t *tagInfo) ref() TypeRef {
	base := BaseRecord
	if t.enum {
		base = BaseEnum
	}
	return TypeRef{Base: base, Tag: t.key, Union: t.union}
}

// Scope models a lexical scope with a parent chain. Names are keyed in
// NFC so that differently composed spellings of one identifier collide.
type Scope struct {
	Kind   ScopeKind
	parent *Scope
	names  map[string]*symbol
	tags   map[string]*tagInfo
}

func newScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, parent: parent, names: map[string]*symbol{}, tags: map[string]*tagInfo{}}
}

func nameKey(name string) string {
	return norm.NFC.String(name)
}

func (s *Scope) lookup(name string) *symbol {
	key := nameKey(name)
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.names[key]; ok {
			return sym
		}
	}
	return nil
}

func (s *Scope) local(name string) *symbol {
	return s.names[nameKey(name)]
}

func (s *Scope) insert(sym *symbol) {
	s.names[nameKey(sym.name)] = sym
}

func (s *Scope) lookupTag(key string) *tagInfo {
	key = nameKey(key)
	for sc := s; sc != nil; sc = sc.parent {
		if t, ok := sc.tags[key]; ok {
			return t
		}
	}
	return nil
}

func (s *Scope) localTag(key string) *tagInfo {
	return s.tags[nameKey(key)]
}

func (s *Scope) insertTag(t *tagInfo) {
	s.tags[nameKey(t.key)] = t
}
