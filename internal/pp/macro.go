package pp

import (
	"slices"
	"sort"
	"strings"
	"unsafe"

	"unitd/internal/source"
	"unitd/internal/token"
)

// MacroInfo is one macro definition.
type MacroInfo struct {
	Name         string
	Params       []string
	FunctionLike bool
	Variadic     bool // last param is __VA_ARGS__
	Body         []token.Token
	NameSpan     source.Span // name token in the #define
	Builtin      bool        // defined by the prologue
}

// Equal reports whether two definitions are token-identical, which makes a
// redefinition silent.
func (mi *MacroInfo) Equal(other *MacroInfo) bool {
	if mi.FunctionLike != other.FunctionLike || mi.Variadic != other.Variadic {
		return false
	}
	if !slices.Equal(mi.Params, other.Params) || len(mi.Body) != len(other.Body) {
		return false
	}
	for i := range mi.Body {
		a, b := mi.Body[i], other.Body[i]
		if a.Text != b.Text || (i > 0 && a.Flags&token.FlagLeadingSpace != b.Flags&token.FlagLeadingSpace) {
			return false
		}
	}
	return true
}

// BodyText renders the replacement list, one space where the source had
// whitespace.
func (mi *MacroInfo) BodyText() string {
	var sb strings.Builder
	for i, t := range mi.Body {
		if i > 0 && t.Flags&token.FlagLeadingSpace != 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func (mi *MacroInfo) paramIndex(name string) int {
	for i, p := range mi.Params {
		if p == name {
			return i
		}
	}
	return -1
}

// MacroTable maps names to their current definitions.
type MacroTable struct {
	defs map[string]*MacroInfo
}

func NewMacroTable() *MacroTable {
	return &MacroTable{defs: make(map[string]*MacroInfo, 64)}
}

func (t *MacroTable) Lookup(name string) *MacroInfo {
	return t.defs[name]
}

func (t *MacroTable) Define(mi *MacroInfo) {
	t.defs[mi.Name] = mi
}

func (t *MacroTable) Undefine(name string) {
	delete(t.defs, name)
}

func (t *MacroTable) Len() int {
	return len(t.defs)
}

// All returns definitions sorted by name.
func (t *MacroTable) All() []*MacroInfo {
	out := make([]*MacroInfo, 0, len(t.defs))
	for _, mi := range t.defs {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MemoryUsage estimates bytes held by definitions and their bodies.
func (t *MacroTable) MemoryUsage() uint64 {
	var total uint64
	for name, mi := range t.defs {
		total += uint64(len(name)) + uint64(unsafe.Sizeof(MacroInfo{}))
		total += uint64(cap(mi.Body)) * uint64(unsafe.Sizeof(token.Token{}))
		total += uint64(cap(mi.Params)) * uint64(unsafe.Sizeof(""))
	}
	return total
}
