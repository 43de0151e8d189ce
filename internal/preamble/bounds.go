package preamble

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"
)

// ComputeBounds returns the length of the leading block of content made of
// preprocessor directives, comments and blank lines. The block ends after
// the last directive that leaves no conditional open; the first line of
// other text stops the scan.
func ComputeBounds(content []byte) uint32 {
	var (
		bound   int
		depth   int
		inBlock bool
	)
	for pos := 0; pos < len(content); {
		end := logicalLineEnd(content, pos)
		next := end
		if next < len(content) {
			next++ // '\n'
		}
		var text []byte
		text, inBlock = stripComments(content[pos:end], inBlock)
		text = bytes.TrimSpace(text)
		switch {
		case len(text) == 0:
		case text[0] == '#':
			switch directiveName(text[1:]) {
			case "if", "ifdef", "ifndef":
				depth++
			case "endif":
				depth--
			}
			if depth <= 0 {
				depth = 0
				bound = next
			}
		default:
			return offset(bound)
		}
		pos = next
	}
	return offset(bound)
}

// logicalLineEnd finds the '\n' ending the line at pos, following
// backslash continuations.
func logicalLineEnd(content []byte, pos int) int {
	for {
		i := bytes.IndexByte(content[pos:], '\n')
		if i < 0 {
			return len(content)
		}
		end := pos + i
		line := bytes.TrimRight(content[pos:end], "\r")
		if len(line) == 0 || line[len(line)-1] != '\\' {
			return end
		}
		pos = end + 1
	}
}

// stripComments removes comments from one line. inBlock says whether the
// line starts inside /* */; the result says whether it ends inside one.
func stripComments(line []byte, inBlock bool) ([]byte, bool) {
	out := make([]byte, 0, len(line))
	for i := 0; i < len(line); i++ {
		if inBlock {
			if line[i] == '*' && i+1 < len(line) && line[i+1] == '/' {
				inBlock = false
				i++
				out = append(out, ' ')
			}
			continue
		}
		switch {
		case line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return out, false
		case line[i] == '/' && i+1 < len(line) && line[i+1] == '*':
			inBlock = true
			i++
		case line[i] == '"':
			j := i + 1
			for j < len(line) && line[j] != '"' {
				if line[j] == '\\' {
					j++
				}
				j++
			}
			end := min(j+1, len(line))
			out = append(out, line[i:end]...)
			i = end - 1
		default:
			out = append(out, line[i])
		}
	}
	return out, inBlock
}

func directiveName(rest []byte) string {
	rest = bytes.TrimLeft(rest, " \t")
	n := 0
	for n < len(rest) && (rest[n] == '_' || rest[n] >= 'a' && rest[n] <= 'z' || rest[n] >= 'A' && rest[n] <= 'Z') {
		n++
	}
	return string(rest[:n])
}

func offset(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("preamble offset overflow: %w", err))
	}
	return v
}
