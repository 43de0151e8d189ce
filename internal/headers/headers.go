// Package headers records the #include structure of a translation unit.
//
// Inclusion is the structured form of one main-file directive. It carries
// enough offsets to re-synthesize the preprocessor event without lexing the
// buffer again, which is what preamble replay relies on.
package headers

import (
	"path"
	"slices"
	"unsafe"

	"unitd/internal/pp"
)

// Directive is the preprocessor keyword that introduced an inclusion.
type Directive uint8

const (
	DirInclude Directive = iota
	DirIncludeNext
	DirImport
)

func (d Directive) String() string {
	switch d {
	case DirIncludeNext:
		return "include_next"
	case DirImport:
		return "import"
	}
	return "include"
}

// ParseDirective maps a directive name back to its kind.
func ParseDirective(name string) (Directive, bool) {
	switch name {
	case "include":
		return DirInclude, true
	case "include_next":
		return DirIncludeNext, true
	case "import":
		return DirImport, true
	}
	return DirInclude, false
}

// Inclusion is one #include written in the main file.
type Inclusion struct {
	HashOffset      uint32      `msgpack:"hash"`
	HashLine        uint32      `msgpack:"line"` // 1-based
	Directive       Directive   `msgpack:"dir"`
	DirectiveOffset uint32      `msgpack:"dir_off"`
	Written         string      `msgpack:"written"` // "foo.h" or <foo.h>
	WrittenOffset   uint32      `msgpack:"written_off"`
	Resolved        string      `msgpack:"resolved"` // absolute, "" if not found
	FileKind        pp.FileKind `msgpack:"kind"`
}

// Angled reports whether the include uses <...>.
func (inc Inclusion) Angled() bool {
	return len(inc.Written) > 0 && inc.Written[0] == '<'
}

// Name is the written spelling without delimiters.
func (inc Inclusion) Name() string {
	if len(inc.Written) < 2 {
		return inc.Written
	}
	return inc.Written[1 : len(inc.Written)-1]
}

// IncludeStructure holds the main-file includes in source order, duplicates
// kept, and the include graph keyed by including file.
type IncludeStructure struct {
	MainFileIncludes []Inclusion         `msgpack:"main"`
	IncludeChildren  map[string][]string `msgpack:"children"`
}

func NewIncludeStructure() *IncludeStructure {
	return &IncludeStructure{IncludeChildren: make(map[string][]string)}
}

// Clone returns a deep copy; a preamble's structure seeds many builds.
func (s *IncludeStructure) Clone() *IncludeStructure {
	if s == nil {
		return NewIncludeStructure()
	}
	out := &IncludeStructure{
		MainFileIncludes: slices.Clone(s.MainFileIncludes),
		IncludeChildren:  make(map[string][]string, len(s.IncludeChildren)),
	}
	for k, v := range s.IncludeChildren {
		out.IncludeChildren[k] = slices.Clone(v)
	}
	return out
}

// RecordInclude adds an edge of the include graph.
func (s *IncludeStructure) RecordInclude(includer, included string) {
	if s.IncludeChildren == nil {
		s.IncludeChildren = make(map[string][]string)
	}
	children := s.IncludeChildren[includer]
	if slices.Contains(children, included) {
		return
	}
	s.IncludeChildren[includer] = append(children, included)
}

// IncludeDepth returns the shortest include distance of every file
// reachable from root; root itself has depth 0.
func (s *IncludeStructure) IncludeDepth(root string) map[string]int {
	depth := map[string]int{root: 0}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range s.IncludeChildren[cur] {
			if _, seen := depth[child]; seen {
				continue
			}
			depth[child] = depth[cur] + 1
			queue = append(queue, child)
		}
	}
	return depth
}

// Find returns the first main-file include with the given resolved path
// or written spelling.
func (s *IncludeStructure) Find(header string) (Inclusion, bool) {
	for _, inc := range s.MainFileIncludes {
		if inc.Resolved == header || inc.Written == header {
			return inc, true
		}
	}
	return Inclusion{}, false
}

// MemoryUsage estimates the bytes held by the structure.
func (s *IncludeStructure) MemoryUsage() uint64 {
	if s == nil {
		return 0
	}
	n := uint64(cap(s.MainFileIncludes)) * uint64(unsafe.Sizeof(Inclusion{}))
	for _, inc := range s.MainFileIncludes {
		n += uint64(len(inc.Written) + len(inc.Resolved))
	}
	for k, v := range s.IncludeChildren {
		n += uint64(len(k))
		for _, c := range v {
			n += uint64(len(c)) + uint64(unsafe.Sizeof(""))
		}
	}
	return n
}

func isUnder(dir, file string) (string, bool) {
	dir = path.Clean(dir)
	if dir == "/" {
		return file[1:], true
	}
	if len(file) > len(dir)+1 && file[:len(dir)] == dir && file[len(dir)] == '/' {
		return file[len(dir)+1:], true
	}
	return "", false
}
