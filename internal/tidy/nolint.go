package tidy

import (
	"strings"

	"unitd/internal/source"
)

// hasMarker looks for marker, optionally followed by "(globs)", and
// reports whether one occurrence covers check.
func hasMarker(line, marker, check string) bool {
	for rest := line; ; {
		i := strings.Index(rest, marker)
		if i < 0 {
			return false
		}
		rest = rest[i+len(marker):]
		if marker == "NOLINT" && strings.HasPrefix(rest, "NEXTLINE") {
			continue
		}
		if !strings.HasPrefix(rest, "(") {
			return true
		}
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			continue
		}
		if ParseGlobList(rest[1:end]).Contains(check) {
			return true
		}
		rest = rest[end:]
	}
}

// LineIsSuppressed reports whether a finding of check on line is silenced
// by NOLINT on the line itself or NOLINTNEXTLINE on prevLine.
func LineIsSuppressed(check, line, prevLine string) bool {
	return hasMarker(line, "NOLINT", check) || hasMarker(prevLine, "NOLINTNEXTLINE", check)
}

// IsSuppressed applies LineIsSuppressed at the spelling location off.
func IsSuppressed(f *source.File, off uint32, check string) bool {
	line := f.LineOf(off)
	prev := ""
	if line > 1 {
		prev = f.GetLine(line - 1)
	}
	return LineIsSuppressed(check, f.GetLine(line), prev)
}
