package config

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"unitd/internal/diag"
	"unitd/internal/source"
)

// CompileCommand is one entry of a compilation database.
type CompileCommand struct {
	Directory string
	File      string
	Args      []string // without the compiler name
}

// flagsWithValue take their value either glued (-Ifoo) or as the next arg.
var flagsWithValue = []string{"-isystem", "-iquote", "-include", "-I", "-D", "-U", "-x"}

// ignoredFlags are accepted silently; they do not affect the front end.
var ignoredFlags = map[string]bool{
	"-c": true, "-g": true, "-O0": true, "-O1": true, "-O2": true, "-O3": true,
	"-Wall": true, "-Wextra": true, "-pedantic": true, "-fsyntax-only": true,
}

// ParseCommand resolves cmd into an Invocation. Unknown flags produce
// Warning diagnostics and malformed ones Error diagnostics; neither stops
// parsing. The returned error is non-nil only when no invocation can be
// formed at all (relative directory, no input file).
func ParseCommand(cmd CompileCommand) (*Invocation, []diag.Diagnostic, error) {
	dir := cmd.Directory
	if dir == "" || !path.IsAbs(dir) {
		return nil, nil, fmt.Errorf("compile command directory %q: %w", dir, ErrRelativeMainFile)
	}
	inv := &Invocation{
		Directory: path.Clean(dir),
		Lang:      LangOptions{Lang: LangC, Std: StdC17},
		Args:      append([]string(nil), cmd.Args...),
	}
	var diags []diag.Diagnostic
	report := func(sev diag.Severity, code diag.Code, format string, args ...any) {
		diags = append(diags, diag.New(sev, code, source.Span{}, fmt.Sprintf(format, args...)))
	}
	abs := func(p string) string {
		if path.IsAbs(p) {
			return path.Clean(p)
		}
		return path.Join(inv.Directory, p)
	}

	input := cmd.File
	for i := 0; i < len(cmd.Args); i++ {
		arg := cmd.Args[i]
		flag, value, hasValue := splitValueFlag(arg)
		if flag != "" {
			if !hasValue {
				if i+1 >= len(cmd.Args) {
					report(diag.SevError, diag.CfgMissingArgValue, "argument to '%s' is missing", flag)
					continue
				}
				i++
				value = cmd.Args[i]
			}
			switch flag {
			case "-I":
				inv.AngledDirs = append(inv.AngledDirs, abs(value))
			case "-isystem":
				inv.SystemDirs = append(inv.SystemDirs, abs(value))
			case "-iquote":
				inv.QuoteDirs = append(inv.QuoteDirs, abs(value))
			case "-include":
				inv.ForcedIncludes = append(inv.ForcedIncludes, abs(value))
			case "-D":
				name, val, ok := strings.Cut(value, "=")
				if !ok {
					val = "1"
				}
				inv.Macros = append(inv.Macros, MacroOp{Name: name, Value: val})
			case "-U":
				inv.Macros = append(inv.Macros, MacroOp{Name: value, Undef: true})
			case "-x":
				switch value {
				case "c", "c-header":
					inv.Lang.Lang = LangC
				case "c++", "c++-header":
					inv.Lang.Lang = LangCXX
				default:
					report(diag.SevError, diag.CfgBadLanguage, "invalid value '%s' in '-x %s'", value, value)
				}
			}
			continue
		}

		switch {
		case strings.HasPrefix(arg, "-std="):
			std, ok := standardNames[strings.TrimPrefix(arg, "-std=")]
			if !ok {
				report(diag.SevError, diag.CfgBadStandard, "invalid value '%s' in '%s'", strings.TrimPrefix(arg, "-std="), arg)
				continue
			}
			inv.Lang.Std = std
		case strings.HasPrefix(arg, "-ferror-limit="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "-ferror-limit="))
			if err != nil || n < 0 {
				report(diag.SevError, diag.CfgBadErrorLimit, "invalid integral value in '%s'", arg)
				continue
			}
			inv.ErrorLimit = n
		case arg == "-Werror":
			inv.WarningsAsErrs = true
		case arg == "-w":
			inv.NoWarnings = true
		case ignoredFlags[arg], strings.HasPrefix(arg, "-W"), strings.HasPrefix(arg, "-f"), strings.HasPrefix(arg, "-m"):
		case arg == "-o":
			i++
		case strings.HasPrefix(arg, "-"):
			report(diag.SevWarning, diag.CfgUnknownArgument, "unknown argument: '%s'", arg)
		default:
			if input == "" {
				input = arg
				continue
			}
			if abs(arg) != abs(input) {
				report(diag.SevWarning, diag.CfgDuplicateMainArg, "extra input '%s' ignored", arg)
			}
		}
	}

	if input == "" {
		return nil, diags, fmt.Errorf("compile command in %s: no input file", inv.Directory)
	}
	inv.MainFile = abs(input)
	return inv, diags, nil
}

func splitValueFlag(arg string) (flag, value string, hasValue bool) {
	for _, f := range flagsWithValue {
		if arg == f {
			return f, "", false
		}
		// -include and -isystem must not be read as -I
		if strings.HasPrefix(arg, f) && (f == "-I" || f == "-D" || f == "-U") {
			if strings.HasPrefix(arg, "-include") || strings.HasPrefix(arg, "-isystem") || strings.HasPrefix(arg, "-iquote") {
				continue
			}
			return f, arg[len(f):], true
		}
	}
	return "", "", false
}
