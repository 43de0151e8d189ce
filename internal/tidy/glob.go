package tidy

import (
	"regexp"
	"strings"
)

type glob struct {
	positive bool
	re       *regexp.Regexp
}

// GlobList is a comma-separated list of check-name globs. A leading '-'
// negates an entry; the last matching entry decides.
type GlobList struct {
	items []glob
}

func ParseGlobList(s string) GlobList {
	var gl GlobList
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		g := glob{positive: true}
		if part[0] == '-' {
			g.positive = false
			part = part[1:]
		}
		var sb strings.Builder
		sb.WriteByte('^')
		for i, chunk := range strings.Split(part, "*") {
			if i > 0 {
				sb.WriteString(".*")
			}
			sb.WriteString(regexp.QuoteMeta(chunk))
		}
		sb.WriteByte('$')
		g.re = regexp.MustCompile(sb.String())
		gl.items = append(gl.items, g)
	}
	return gl
}

// Contains reports whether name is selected by the list.
func (gl GlobList) Contains(name string) bool {
	for i := len(gl.items) - 1; i >= 0; i-- {
		if gl.items[i].re.MatchString(name) {
			return gl.items[i].positive
		}
	}
	return false
}

func (gl GlobList) Empty() bool { return len(gl.items) == 0 }
