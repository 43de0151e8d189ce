package ast

import "unitd/internal/source"

type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclFunc
	DeclParam
	DeclTypedef
	DeclRecord
	DeclField
	DeclEnum
	DeclEnumConst
)

var declKindNames = [...]string{
	DeclVar: "VarDecl", DeclFunc: "FunctionDecl", DeclParam: "ParmVarDecl",
	DeclTypedef: "TypedefDecl", DeclRecord: "RecordDecl", DeclField: "FieldDecl",
	DeclEnum: "EnumDecl", DeclEnumConst: "EnumConstantDecl",
}

func (k DeclKind) String() string {
	if int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return "Decl"
}

type StorageClass uint8

const (
	StorageNone StorageClass = iota
	StorageStatic
	StorageExtern
	StorageAuto
	StorageRegister
)

type DeclFlags uint16

const (
	// DeclDefinition: function with a body, record with a member list,
	// variable with an initializer or without extern.
	DeclDefinition DeclFlags = 1 << iota
	DeclInline
	DeclVariadic
	DeclConst
	// DeclImplicit marks declarations the compiler made up.
	DeclImplicit
	// DeclImplicitInstantiation marks declarations produced by template
	// instantiation rather than written in the source.
	DeclImplicitInstantiation
	// DeclBindingMethod marks methods synthesized for a language binding;
	// they are not top-level entities.
	DeclBindingMethod
	DeclUnion
	DeclInvalid
)

type Decl struct {
	Kind     DeclKind
	Name     string
	NameSpan source.Span
	Span     source.Span
	Type     TypeID
	Storage  StorageClass
	Flags    DeclFlags
	Params   []DeclID // DeclFunc
	Fields   []DeclID // DeclRecord (fields), DeclEnum (constants)
	Body     StmtID   // DeclFunc
	Init     ExprID   // DeclVar, DeclEnumConst
	Parent   DeclID
}

func (d *Decl) Has(f DeclFlags) bool { return d.Flags&f != 0 }

// IsDefinition reports whether d defines rather than declares.
func (d *Decl) IsDefinition() bool { return d.Has(DeclDefinition) }
