package sema

import "unitd/internal/source"

// LookupKind says which namespace a failed lookup searched.
type LookupKind uint8

const (
	LookupOrdinary LookupKind = iota // variables, functions, enum constants
	LookupType                       // typedef names in declaration specifiers
	LookupTag                        // struct/union/enum needing a definition
)

// Unresolved describes a lookup that failed, or a tag that had to be
// complete but was not. Span is the primary span of the diagnostic that
// follows.
type Unresolved struct {
	Name string
	Span source.Span
	Kind LookupKind
}

// ExternalSource is consulted right before sema reports an unresolved name.
type ExternalSource interface {
	NameNotFound(u Unresolved)
}

// SymbolKind classifies an ordinary identifier.
type SymbolKind uint8

const (
	SymVar SymbolKind = iota
	SymFunc
	SymTypedef
	SymEnumConst
	SymParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymVar:
		return "variable"
	case SymFunc:
		return "function"
	case SymTypedef:
		return "typedef"
	case SymEnumConst:
		return "enumerator"
	case SymParam:
		return "parameter"
	}
	return "symbol"
}

// Location is a declaration site kept by path so it survives the session
// that produced it.
type Location struct {
	Path  string `msgpack:"path"`
	Start uint32 `msgpack:"start"`
	End   uint32 `msgpack:"end"`
}

// ExternalDecl is a file-scope ordinary identifier from a precompiled prefix.
type ExternalDecl struct {
	Name    string     `msgpack:"name"`
	Kind    SymbolKind `msgpack:"kind"`
	Type    TypeRef    `msgpack:"type"`
	Defined bool       `msgpack:"defined,omitempty"`
	Loc     Location   `msgpack:"loc"`
}

type ExternalField struct {
	Name string  `msgpack:"name"`
	Type TypeRef `msgpack:"type"`
}

// ExternalTag is a file-scope struct/union/enum from a precompiled prefix.
type ExternalTag struct {
	Key      string          `msgpack:"key"`
	Enum     bool            `msgpack:"enum,omitempty"`
	Union    bool            `msgpack:"union,omitempty"`
	Complete bool            `msgpack:"complete,omitempty"`
	Fields   []ExternalField `msgpack:"fields,omitempty"`
	Loc      Location        `msgpack:"loc"`
}

// Symbols is everything visible at file scope after a prefix was compiled.
type Symbols struct {
	Decls []ExternalDecl `msgpack:"decls"`
	Tags  []ExternalTag  `msgpack:"tags"`
}

// Len is the number of entries.
func (s *Symbols) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Decls) + len(s.Tags)
}
