package config

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
)

// Language selects the input language of the main file.
type Language uint8

const (
	LangC Language = iota
	LangCXX
)

func (l Language) String() string {
	if l == LangCXX {
		return "c++"
	}
	return "c"
}

// Standard is the -std= level; only the C levels are distinguished.
type Standard uint8

const (
	StdC89 Standard = iota
	StdC99
	StdC11
	StdC17
	StdC23
)

var standardNames = map[string]Standard{
	"c89": StdC89, "c90": StdC89, "gnu89": StdC89,
	"c99": StdC99, "gnu99": StdC99,
	"c11": StdC11, "gnu11": StdC11,
	"c17": StdC17, "c18": StdC17, "gnu17": StdC17,
	"c23": StdC23, "c2x": StdC23, "gnu23": StdC23,
}

func (s Standard) String() string {
	switch s {
	case StdC89:
		return "c89"
	case StdC99:
		return "c99"
	case StdC11:
		return "c11"
	case StdC17:
		return "c17"
	case StdC23:
		return "c23"
	}
	return "unknown"
}

// LangOptions are the language settings checks can inspect.
type LangOptions struct {
	Lang Language
	Std  Standard
}

// MacroOp is one -D or -U, applied in command-line order.
type MacroOp struct {
	Name  string
	Value string
	Undef bool
}

// Invocation is a resolved compiler configuration for one main file.
type Invocation struct {
	Directory      string // working directory of the command, absolute
	MainFile       string // absolute
	Lang           LangOptions
	QuoteDirs      []string // -iquote
	AngledDirs     []string // -I
	SystemDirs     []string // -isystem
	Macros         []MacroOp
	ForcedIncludes []string // -include, absolute
	ErrorLimit     int      // 0 means unlimited
	WarningsAsErrs bool     // -Werror
	NoWarnings     bool     // -w
	Args           []string
}

var (
	// ErrNilInvocation is returned by Validate on a nil receiver.
	ErrNilInvocation = errors.New("invocation is nil")
	// ErrRelativeMainFile rejects main files that are not absolute paths.
	ErrRelativeMainFile = errors.New("main file path is not absolute")
)

// Validate reports whether a session can start from inv.
func (inv *Invocation) Validate() error {
	if inv == nil {
		return ErrNilInvocation
	}
	if inv.MainFile == "" || !path.IsAbs(inv.MainFile) {
		return fmt.Errorf("%q: %w", inv.MainFile, ErrRelativeMainFile)
	}
	return nil
}

// Clone returns a deep copy of inv.
func (inv *Invocation) Clone() *Invocation {
	if inv == nil {
		return nil
	}
	out := *inv
	out.QuoteDirs = slices.Clone(inv.QuoteDirs)
	out.AngledDirs = slices.Clone(inv.AngledDirs)
	out.SystemDirs = slices.Clone(inv.SystemDirs)
	out.Macros = slices.Clone(inv.Macros)
	out.ForcedIncludes = slices.Clone(inv.ForcedIncludes)
	out.Args = slices.Clone(inv.Args)
	return &out
}

// Fingerprint is a stable textual form of everything that affects the
// preprocessed prefix. Preamble caches key on it.
func (inv *Invocation) Fingerprint() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "lang=%s std=%s\n", inv.Lang.Lang, inv.Lang.Std)
	for _, d := range inv.QuoteDirs {
		fmt.Fprintf(&sb, "iquote=%s\n", d)
	}
	for _, d := range inv.AngledDirs {
		fmt.Fprintf(&sb, "I=%s\n", d)
	}
	for _, d := range inv.SystemDirs {
		fmt.Fprintf(&sb, "isystem=%s\n", d)
	}
	for _, m := range inv.Macros {
		if m.Undef {
			fmt.Fprintf(&sb, "U=%s\n", m.Name)
			continue
		}
		fmt.Fprintf(&sb, "D=%s=%s\n", m.Name, m.Value)
	}
	for _, f := range inv.ForcedIncludes {
		fmt.Fprintf(&sb, "include=%s\n", f)
	}
	return sb.String()
}
