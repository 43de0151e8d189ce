package sema

import "strings"

// BaseKind classifies the innermost type of a TypeRef.
type BaseKind uint8

const (
	BaseScalar BaseKind = iota
	BaseVoid
	BaseRecord
	BaseEnum
	// BaseUnknown follows an earlier error; it never produces diagnostics.
	BaseUnknown
)

// FuncSig describes a function designator. Ptr counts pointer levels on
// top of the function type.
type FuncSig struct {
	Params   int   `msgpack:"params"`
	Variadic bool  `msgpack:"variadic,omitempty"`
	NoProto  bool  `msgpack:"noproto,omitempty"`
	Ptr      uint8 `msgpack:"ptr,omitempty"`
}

// TypeRef is the resolved, session-independent shape of a type: enough to
// check member access, calls and completeness. For functions Base, Tag, Ptr
// and Name describe the result type.
type TypeRef struct {
	Base  BaseKind `msgpack:"base"`
	Tag   string   `msgpack:"tag,omitempty"` // record/enum key
	Union bool     `msgpack:"union,omitempty"`
	Ptr   uint8    `msgpack:"ptr,omitempty"`
	Func  *FuncSig `msgpack:"func,omitempty"`

	// Name spells the type (builtin words or a typedef name) when Ptr
	// equals NamePtr; extra pointer levels are appended as stars.
	Name    string `msgpack:"name,omitempty"`
	NamePtr uint8  `msgpack:"nameptr,omitempty"`
}

var unknownType = TypeRef{Base: BaseUnknown}

func (t TypeRef) IsUnknown() bool { return t.Base == BaseUnknown }

// IsRecordObject reports whether t is a struct/union value (not a pointer).
func (t TypeRef) IsRecordObject() bool {
	return t.Base == BaseRecord && t.Ptr == 0 && t.Func == nil
}

func (t TypeRef) pointerTo() TypeRef {
	if t.Func != nil {
		f := *t.Func
		f.Ptr++
		t.Func = &f
		return t
	}
	t.Ptr++
	return t
}

func (t TypeRef) deref() TypeRef {
	switch {
	case t.Func != nil:
		if t.Func.Ptr > 0 {
			f := *t.Func
			f.Ptr--
			t.Func = &f
		}
	case t.Ptr > 0:
		t.Ptr--
	default:
		return unknownType
	}
	return t
}

func (t TypeRef) result() TypeRef {
	t.Func = nil
	return t
}

func tagKeyword(t TypeRef) string {
	switch {
	case t.Base == BaseEnum:
		return "enum"
	case t.Union:
		return "union"
	}
	return "struct"
}

// String spells the type the way diagnostics quote it.
func (t TypeRef) String() string {
	var b strings.Builder
	stars := int(t.Ptr)
	switch {
	case t.Name != "" && t.Ptr >= t.NamePtr:
		b.WriteString(t.Name)
		stars -= int(t.NamePtr)
	case t.Base == BaseRecord || t.Base == BaseEnum:
		b.WriteString(tagKeyword(t) + " " + t.Tag)
	case t.Base == BaseVoid:
		b.WriteString("void")
	case t.Base == BaseUnknown:
		b.WriteString("<error>")
	default:
		b.WriteString("int")
	}
	if stars > 0 {
		b.WriteString(" " + strings.Repeat("*", stars))
	}
	if t.Func != nil {
		if t.Func.Ptr > 0 {
			b.WriteString(" (" + strings.Repeat("*", int(t.Func.Ptr)) + ")")
		}
		b.WriteString("(...)")
	}
	return b.String()
}

// tagString quotes a record type without its typedef spelling.
func tagString(t TypeRef) string {
	return tagKeyword(t) + " " + t.Tag
}
