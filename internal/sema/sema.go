package sema

import (
	"cmp"
	"fmt"
	"slices"
	"unsafe"

	"unitd/internal/ast"
	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/source"
)

// Options configure a semantic context for one translation unit.
type Options struct {
	Reporter diag.Reporter
	Files    *source.FileSet
	Lang     config.LangOptions
	// External seeds file scope with declarations from a compiled prefix.
	External *Symbols
	Source   ExternalSource
}

// Sema checks top-level declarations as the parser completes them.
type Sema struct {
	ctx    *ast.Context
	opts   Options
	file   *Scope
	errors int

	resolved map[ast.TypeID]TypeRef
}

// New creates the semantic context. File scope is seeded from
// opts.External, so the prefix compiled earlier is visible as if parsed.
func New(ctx *ast.Context, opts Options) *Sema {
	s := &Sema{ctx: ctx, opts: opts, file: newScope(ScopeFile, nil), resolved: map[ast.TypeID]TypeRef{}}
	s.seed(opts.External)
	return s
}

// SetExternalSource installs the source consulted on failed lookups.
func (s *Sema) SetExternalSource(src ExternalSource) { s.opts.Source = src }

// Context is the AST context the sema annotates.
func (s *Sema) Context() *ast.Context { return s.ctx }

// Errors counts error diagnostics sema reported.
func (s *Sema) Errors() int { return s.errors }

// IsTypeName reports whether name is a typedef visible at file scope.
func (s *Sema) IsTypeName(name string) bool {
	if s.file == nil {
		return false
	}
	sym := s.file.lookup(name)
	return sym != nil && sym.kind == SymTypedef
}

// HandleTopLevelDecl declares and checks one declaration group.
func (s *Sema) HandleTopLevelDecl(group []ast.DeclID) {
	if s.file == nil {
		return
	}
	for _, id := range group {
		s.actOnDecl(id, s.file)
	}
}

func (s *Sema) seed(ext *Symbols) {
	if ext == nil {
		return
	}
	for _, t := range ext.Tags {
		info := &tagInfo{key: t.Key, enum: t.Enum, union: t.Union, complete: t.Complete, loc: t.Loc, fields: map[string]TypeRef{}}
		for _, f := range t.Fields {
			info.fields[nameKey(f.Name)] = f.Type
			info.order = append(info.order, f.Name)
		}
		s.file.insertTag(info)
	}
	for _, d := range ext.Decls {
		s.file.insert(&symbol{name: d.Name, kind: d.Kind, typ: d.Type, defined: d.Defined, loc: d.Loc})
	}
}

// Snapshot exports file scope in a session-independent form.
func (s *Sema) Snapshot() *Symbols {
	out := &Symbols{}
	if s.file == nil {
		return out
	}
	for _, sym := range s.file.names {
		out.Decls = append(out.Decls, ExternalDecl{
			Name:    sym.name,
			Kind:    sym.kind,
			Type:    sym.typ,
			Defined: sym.defined,
			Loc:     s.location(sym.span, sym.loc),
		})
	}
	for _, t := range s.file.tags {
		et := ExternalTag{Key: t.key, Enum: t.enum, Union: t.union, Complete: t.complete, Loc: s.location(t.span, t.loc)}
		for _, name := range t.order {
			et.Fields = append(et.Fields, ExternalField{Name: name, Type: t.fields[nameKey(name)]})
		}
		out.Tags = append(out.Tags, et)
	}
	slices.SortFunc(out.Decls, func(a, b ExternalDecl) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortFunc(out.Tags, func(a, b ExternalTag) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

func (s *Sema) location(sp source.Span, fallback Location) Location {
	if !sp.IsValid() || s.opts.Files == nil {
		return fallback
	}
	f := s.opts.Files.Get(sp.File)
	if f == nil {
		return fallback
	}
	return Location{Path: f.Path, Start: sp.Start, End: sp.End}
}

// span maps a declaration site back into this session, when its file is
// loaded here.
func (s *Sema) span(sp source.Span, loc Location) (source.Span, bool) {
	if sp.IsValid() {
		return sp, true
	}
	if loc.Path == "" || s.opts.Files == nil {
		return source.Span{}, false
	}
	id, ok := s.opts.Files.GetLatest(loc.Path)
	if !ok {
		return source.Span{}, false
	}
	return source.Span{File: id, Start: loc.Start, End: loc.End}, true
}

// MemoryUsage estimates the scope tables.
func (s *Sema) MemoryUsage() uint64 {
	if s.file == nil {
		return 0
	}
	var n uint64
	n += uint64(len(s.file.names)) * uint64(unsafe.Sizeof(symbol{})+16)
	for _, t := range s.file.tags {
		n += uint64(unsafe.Sizeof(tagInfo{})) + uint64(len(t.fields))*uint64(unsafe.Sizeof(TypeRef{})+16)
	}
	return n
}

// Release drops the scopes. IsTypeName reports false afterwards.
func (s *Sema) Release() {
	s.file = nil
	s.resolved = nil
	s.opts.Source = nil
}

func (s *Sema) notFound(name string, sp source.Span, kind LookupKind) {
	if s.opts.Source != nil {
		s.opts.Source.NameNotFound(Unresolved{Name: name, Span: sp, Kind: kind})
	}
}

func (s *Sema) errorf(code diag.Code, sp source.Span, format string, args ...any) *diag.ReportBuilder {
	s.errors++
	return diag.ReportError(s.opts.Reporter, code, sp, fmt.Sprintf(format, args...))
}

func (s *Sema) warnf(code diag.Code, sp source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportWarning(s.opts.Reporter, code, sp, fmt.Sprintf(format, args...))
}

// withPrev attaches a "previous declaration" note when the site is known.
func (s *Sema) withPrev(b *diag.ReportBuilder, sp source.Span, loc Location, msg string) *diag.ReportBuilder {
	if prev, ok := s.span(sp, loc); ok {
		b.WithNote(prev, msg)
	}
	return b
}
