package sema

import (
	"fmt"

	"unitd/internal/ast"
	"unitd/internal/diag"
	"unitd/internal/source"
)

func (s *Sema) actOnDecl(id ast.DeclID, sc *Scope) {
	d := s.ctx.Decl(id)
	if d == nil {
		return
	}
	switch d.Kind {
	case ast.DeclRecord, ast.DeclEnum:
		s.declareTag(id, d, sc)
	case ast.DeclTypedef:
		t := s.resolveType(d.Type, sc)
		if !t.IsUnknown() {
			t.Name, t.NamePtr = d.Name, t.Ptr
		}
		s.declare(id, d, sc, SymTypedef, t)
	case ast.DeclVar:
		t := s.resolveType(d.Type, sc)
		if d.Storage != ast.StorageExtern && t.IsRecordObject() {
			if info := sc.lookupTag(t.Tag); info != nil && !info.complete {
				s.requireComplete(t, info, d.NameSpan, "variable has incomplete type '%s'")
				d.Flags |= ast.DeclInvalid
			}
		}
		s.declare(id, d, sc, SymVar, t)
		if d.Init.IsValid() {
			s.checkExpr(d.Init, sc)
		}
	case ast.DeclParam:
		s.declare(id, d, sc, SymParam, s.resolveType(d.Type, sc))
	case ast.DeclFunc:
		t := s.resolveType(d.Type, sc)
		s.declare(id, d, sc, SymFunc, t)
		if d.Body.IsValid() {
			body := newScope(ScopeFunction, sc)
			for _, p := range d.Params {
				if pd := s.ctx.Decl(p); pd != nil && pd.Name != "" {
					s.declare(p, pd, body, SymParam, s.resolveType(pd.Type, body))
				}
			}
			s.checkCompound(d.Body, body)
		}
	}
}

// declare enters an ordinary identifier, reporting conflicting
// redefinitions in the same scope.
func (s *Sema) declare(id ast.DeclID, d *ast.Decl, sc *Scope, kind SymbolKind, t TypeRef) {
	if d.Name == "" {
		return
	}
	defined := isDefinition(d)
	prev := sc.local(d.Name)
	if prev == nil {
		sc.insert(&symbol{name: d.Name, kind: kind, typ: t, decl: id, defined: defined, span: d.NameSpan})
		return
	}
	redefinition := func(format string, args ...any) {
		b := s.errorf(diag.SemaRedefinition, d.NameSpan, format, args...)
		s.withPrev(b, prev.span, prev.loc, "previous definition is here").Emit()
		d.Flags |= ast.DeclInvalid
	}
	switch {
	case symClass(prev.kind) != symClass(kind):
		redefinition("redefinition of '%s' as different kind of symbol", d.Name)
		return
	case kind == SymTypedef:
		if prev.typ.IsUnknown() || t.IsUnknown() || sameType(prev.typ, t) {
			return
		}
		redefinition("typedef redefinition with different types ('%s' vs '%s')", underlying(t), underlying(prev.typ))
		return
	case sc.Kind != ScopeFile && kind != SymFunc && d.Storage != ast.StorageExtern:
		redefinition("redefinition of '%s'", d.Name)
		return
	case defined && prev.defined:
		redefinition("redefinition of '%s'", d.Name)
		return
	}
	if defined {
		prev.defined = true
		prev.decl = id
		prev.span = d.NameSpan
	}
	if prev.typ.IsUnknown() {
		prev.typ = t
	}
}

// symClass folds parameters into variables: both live in one namespace
// inside a function body.
func symClass(k SymbolKind) SymbolKind {
	if k == SymParam {
		return SymVar
	}
	return k
}

// isDefinition: file-scope variables only conflict when both carry an
// initializer; tentative definitions merge.
func isDefinition(d *ast.Decl) bool {
	switch d.Kind {
	case ast.DeclFunc:
		return d.Body.IsValid()
	case ast.DeclVar:
		return d.Init.IsValid()
	case ast.DeclEnumConst:
		return true
	}
	return false
}

func sameType(a, b TypeRef) bool {
	if a.Base != b.Base || a.Tag != b.Tag || a.Ptr != b.Ptr || (a.Func == nil) != (b.Func == nil) {
		return false
	}
	if a.Base == BaseScalar && a.Ptr == 0 && a.NamePtr == 0 && b.NamePtr == 0 {
		return scalarName(a) == scalarName(b)
	}
	return true
}

func scalarName(t TypeRef) string {
	if t.Name == "" {
		return "int"
	}
	return t.Name
}

func underlying(t TypeRef) string {
	t.Name = ""
	if t.Base == BaseScalar {
		return "int"
	}
	return t.String()
}

// tagKey names a tag in the tag namespace. Anonymous records are keyed by
// their definition site, which stays stable across sessions.
func (s *Sema) tagKey(d *ast.Decl) string {
	if d.Name != "" {
		return d.Name
	}
	loc := s.location(d.Span, Location{})
	if loc.Path == "" {
		return fmt.Sprintf("(anonymous at %d:%d)", d.Span.File, d.Span.Start)
	}
	line := uint32(0)
	if s.opts.Files != nil {
		if f := s.opts.Files.Get(d.Span.File); f != nil {
			line = f.LineOf(d.Span.Start)
		}
	}
	return fmt.Sprintf("(anonymous at %s:%d)", loc.Path, line)
}

func (s *Sema) declareTag(id ast.DeclID, d *ast.Decl, sc *Scope) *tagInfo {
	key := s.tagKey(d)
	def := d.IsDefinition()
	info := sc.localTag(key)
	if info != nil && info.decl == id {
		return info
	}
	if info == nil {
		info = &tagInfo{key: key, enum: d.Kind == ast.DeclEnum, union: d.Has(ast.DeclUnion), decl: id, span: d.NameSpan, fields: map[string]TypeRef{}}
		sc.insertTag(info)
	} else if def && info.complete {
		b := s.errorf(diag.SemaRedefinition, d.NameSpan, "redefinition of '%s'", key)
		s.withPrev(b, info.span, info.loc, "previous definition is here").Emit()
		d.Flags |= ast.DeclInvalid
		return info
	}
	if !def {
		return info
	}
	info.complete = true
	info.decl = id
	info.span = d.NameSpan
	info.fields = map[string]TypeRef{}
	info.order = nil
	for _, f := range d.Fields {
		fd := s.ctx.Decl(f)
		if fd == nil {
			continue
		}
		if fd.Kind == ast.DeclEnumConst {
			if fd.Init.IsValid() {
				s.checkExpr(fd.Init, sc)
			}
			s.declare(f, fd, sc, SymEnumConst, TypeRef{Base: BaseScalar})
			continue
		}
		if fd.Kind == ast.DeclRecord {
			// anonymous member: its fields are reachable directly
			inner := s.declareTag(f, fd, sc)
			for _, name := range inner.order {
				s.addField(info, name, inner.fields[nameKey(name)])
			}
			continue
		}
		t := s.resolveType(fd.Type, sc)
		if t.IsRecordObject() {
			if ft := sc.lookupTag(t.Tag); ft != nil && !ft.complete {
				s.requireComplete(t, ft, fd.NameSpan, "field has incomplete type '%s'")
			}
		}
		if _, dup := info.fields[nameKey(fd.Name)]; dup {
			s.errorf(diag.SemaRedefinition, fd.NameSpan, "duplicate member '%s'", fd.Name).Emit()
			continue
		}
		s.addField(info, fd.Name, t)
	}
	return info
}

func (s *Sema) addField(info *tagInfo, name string, t TypeRef) {
	info.fields[nameKey(name)] = t
	info.order = append(info.order, name)
}

// requireComplete reports an incomplete record where a complete one is
// needed. The external source sees the tag first.
func (s *Sema) requireComplete(t TypeRef, info *tagInfo, sp source.Span, format string) {
	s.notFound(t.Tag, sp, LookupTag)
	b := s.errorf(diag.SemaIncompleteType, sp, format, tagString(t))
	s.withPrev(b, info.span, info.loc, "forward declaration of '"+tagString(t)+"'").Emit()
}

// resolveType maps a written type to its TypeRef, declaring inline tags
// and diagnosing unknown type names.
func (s *Sema) resolveType(id ast.TypeID, sc *Scope) TypeRef {
	ts := s.ctx.Type(id)
	if ts == nil {
		return TypeRef{Base: BaseScalar}
	}
	// parameter types are reached twice: through the function type and
	// through the parameter declarations
	if t, ok := s.resolved[id]; ok {
		return t
	}
	t := s.resolveTypeSpec(ts, sc)
	s.resolved[id] = t
	return t
}

func (s *Sema) resolveTypeSpec(ts *ast.TypeSpec, sc *Scope) TypeRef {
	switch ts.Kind {
	case ast.TypeBuiltin:
		if ts.Name == "void" {
			return TypeRef{Base: BaseVoid}
		}
		return TypeRef{Base: BaseScalar, Name: ts.Name}
	case ast.TypeNamed:
		sym := sc.lookup(ts.Name)
		if sym == nil || sym.kind != SymTypedef {
			s.notFound(ts.Name, ts.Span, LookupType)
			s.errorf(diag.SemaUnknownTypeName, ts.Span, "unknown type name '%s'", ts.Name).Emit()
			return unknownType
		}
		if sym.decl.IsValid() {
			ts.Decl = sym.decl
		}
		return sym.typ
	case ast.TypeRecord, ast.TypeEnum:
		if ts.Owned && ts.Decl.IsValid() {
			return s.declareTag(ts.Decl, s.ctx.Decl(ts.Decl), sc).ref()
		}
		if info := sc.lookupTag(ts.Name); info != nil {
			return info.ref()
		}
		// first mention declares an incomplete tag
		info := &tagInfo{key: ts.Name, enum: ts.Kind == ast.TypeEnum, span: ts.Span, fields: map[string]TypeRef{}}
		sc.insertTag(info)
		return info.ref()
	case ast.TypePointer:
		return s.resolveType(ts.Elem, sc).pointerTo()
	case ast.TypeArray:
		if ts.Size.IsValid() {
			s.checkExpr(ts.Size, sc)
		}
		return s.resolveType(ts.Elem, sc).pointerTo()
	case ast.TypeFunc:
		res := s.resolveType(ts.Elem, sc)
		for _, p := range ts.Params {
			s.resolveType(p, sc)
		}
		if res.Func != nil {
			// function returning a function pointer: calls yield unknown
			res = unknownType
		}
		res.Func = &FuncSig{Params: len(ts.Params), Variadic: ts.Variadic, NoProto: ts.NoProto}
		return res
	}
	return unknownType
}
