package pp

import (
	"fmt"
	"strings"

	"unitd/internal/config"
)

var stdVersion = map[config.Standard]string{
	config.StdC99: "199901L",
	config.StdC11: "201112L",
	config.StdC17: "201710L",
	config.StdC23: "202311L",
}

// Predefines renders the "<built-in>" prologue for inv: predefined macros,
// then -D/-U in command-line order, then forced includes.
func Predefines(inv *config.Invocation) string {
	var sb strings.Builder
	sb.WriteString("#define __STDC__ 1\n")
	sb.WriteString("#define __STDC_HOSTED__ 1\n")
	sb.WriteString("#define __unitd__ 1\n")
	if inv == nil {
		return sb.String()
	}
	if v, ok := stdVersion[inv.Lang.Std]; ok {
		fmt.Fprintf(&sb, "#define __STDC_VERSION__ %s\n", v)
	}
	if inv.Lang.Lang == config.LangCXX {
		sb.WriteString("#define __cplusplus 201703L\n")
	}
	for _, m := range inv.Macros {
		if m.Undef {
			fmt.Fprintf(&sb, "#undef %s\n", m.Name)
			continue
		}
		fmt.Fprintf(&sb, "#define %s %s\n", m.Name, m.Value)
	}
	for _, f := range inv.ForcedIncludes {
		fmt.Fprintf(&sb, "#include \"%s\"\n", f)
	}
	return sb.String()
}
