package headers

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"fortio.org/safecast"

	"unitd/internal/diag"
	"unitd/internal/source"
)

// SearchDirs lists the include directories in lookup order.
type SearchDirs interface {
	QuoteDirs() []string
	AngledDirs() []string
	SystemDirs() []string
}

// Header names what to include: either an absolute path that still needs
// spelling, or an already spelled "<x.h>" / "\"x.h\"".
type Header struct {
	File     string
	Verbatim bool
}

// Inserter computes spellings and insertion points for new #include lines
// in one main file.
type Inserter struct {
	mainID   source.FileID
	mainDir  string
	code     []byte
	dirs     SearchDirs
	includes *IncludeStructure
}

func NewInserter(main *source.File, dirs SearchDirs, includes *IncludeStructure) *Inserter {
	return &Inserter{
		mainID:   main.ID,
		mainDir:  path.Dir(main.Path),
		code:     main.Content,
		dirs:     dirs,
		includes: includes,
	}
}

// ShouldInsert is false when the header is already included by the main
// file, either by resolved path or by written spelling.
func (ins *Inserter) ShouldInsert(h Header) bool {
	if ins.includes == nil {
		return true
	}
	_, found := ins.includes.Find(h.File)
	return !found
}

// Spell returns the include spelling of h relative to the search paths,
// the shortest one winning. An absolute path outside every directory has
// no spelling.
func (ins *Inserter) Spell(h Header) (string, bool) {
	if h.Verbatim {
		return h.File, true
	}
	if !path.IsAbs(h.File) {
		return "", false
	}
	best, angled := "", false
	try := func(dir string, isAngled bool) {
		rel, ok := isUnder(dir, h.File)
		if ok && (best == "" || len(rel) < len(best)) {
			best, angled = rel, isAngled
		}
	}
	try(ins.mainDir, false)
	if ins.dirs != nil {
		for _, d := range ins.dirs.QuoteDirs() {
			try(d, false)
		}
		for _, d := range ins.dirs.AngledDirs() {
			try(d, true)
		}
		for _, d := range ins.dirs.SystemDirs() {
			try(d, true)
		}
	}
	if best == "" {
		return "", false
	}
	if angled {
		return "<" + best + ">", true
	}
	return `"` + best + `"`, true
}

// Insert builds the edit adding "#include spelled". New lines go after the
// last main-file include, or after the leading comment block when there is
// none.
func (ins *Inserter) Insert(spelled string) diag.TextEdit {
	off := ins.insertionOffset()
	return diag.TextEdit{
		Span:    source.Point(ins.mainID, off),
		NewText: "#include " + spelled + "\n",
	}
}

func (ins *Inserter) insertionOffset() uint32 {
	var last *Inclusion
	if ins.includes != nil {
		for i := range ins.includes.MainFileIncludes {
			inc := &ins.includes.MainFileIncludes[i]
			if last == nil || inc.HashOffset > last.HashOffset {
				last = inc
			}
		}
	}
	if last != nil {
		return lineEnd(ins.code, last.HashOffset)
	}
	var off, blockStart uint32
	inBlock := false
	for int(off) < len(ins.code) {
		end := lineEnd(ins.code, off)
		line := string(ins.code[off:end])
		lineStart := off
		if inBlock {
			i := strings.Index(line, "*/")
			if i < 0 {
				off = end
				continue
			}
			line = line[i+2:]
			// code after the closing */ must not get an include inside the comment
			lineStart = blockStart
		}
		open, ok := commentOnly(line)
		if !ok {
			return lineStart
		}
		if open && !inBlock {
			blockStart = off
		}
		inBlock = open
		off = end
	}
	return off
}

// commentOnly reports whether s holds nothing but whitespace and comments;
// open is set when a /* comment is left unterminated.
func commentOnly(s string) (open, ok bool) {
	for {
		s = strings.TrimSpace(s)
		switch {
		case s == "" || strings.HasPrefix(s, "//"):
			return false, true
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return true, true
			}
			s = s[2+i+2:]
		default:
			return false, false
		}
	}
}

// lineEnd returns the offset just past the newline ending the line at off.
func lineEnd(code []byte, off uint32) uint32 {
	if int(off) >= len(code) {
		return offset(len(code))
	}
	i := bytes.IndexByte(code[off:], '\n')
	if i < 0 {
		return offset(len(code))
	}
	return off + offset(i) + 1
}

func offset(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}
