package ast

import "unitd/internal/source"

type TypeKind uint8

const (
	TypeBuiltin TypeKind = iota
	TypeNamed            // typedef name
	TypeRecord           // struct/union tag
	TypeEnum
	TypePointer
	TypeArray
	TypeFunc
	TypeInvalid
)

// TypeSpec is a written type. Name holds the builtin spelling ("unsigned
// long"), the typedef name or the tag.
type TypeSpec struct {
	Kind   TypeKind
	Name   string
	Span   source.Span
	Elem   TypeID   // pointer, array, func result
	Size   ExprID   // array bound
	Params []TypeID // func parameters
	Decl   DeclID   // inline record/enum definition, resolved typedef
	Const  bool
	Owned  bool // Decl is defined inline in this written type

	Variadic bool // func: trailing ...
	NoProto  bool // func: declared with ()
}
