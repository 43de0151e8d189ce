package source

import (
	"crypto/sha256"
	"fmt"
	"unsafe"

	"fortio.org/safecast"
)

// FileSet owns every buffer that participates in one compilation session.
type FileSet struct {
	files []File
	index map[string]FileID // path -> latest id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0, 16),
		index: make(map[string]FileID),
	}
}

// Add stores a buffer as-is, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := path
	if flags&FileBuiltin == 0 {
		normalizedPath = NormalizePath(path)
	}

	next, err := safecast.Conv[uint32](len(fileSet.files) + 1)
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(next)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// AddLoaded stores bytes read from disk after stripping a BOM and CRLF line ends.
func (fileSet *FileSet) AddLoaded(path string, content []byte, flags FileFlags) FileID {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags)
}

// AddVirtual adds a buffer with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file for id, or nil when id is unknown.
func (fileSet *FileSet) Get(id FileID) *File {
	if !fileSet.Has(id) {
		return nil
	}
	return &fileSet.files[id-1]
}

// Has reports whether id belongs to this set.
func (fileSet *FileSet) Has(id FileID) bool {
	return id.IsValid() && int(id) <= len(fileSet.files)
}

// Len returns the number of registered buffers.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[NormalizePath(path)]
	return id, ok
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Position returns the path and start position of span.
func (fileSet *FileSet) Position(span Span) (string, LineCol) {
	f := fileSet.Get(span.File)
	if f == nil {
		return "", LineCol{}
	}
	return f.Path, toLineCol(f.LineIdx, span.Start)
}

// MemoryUsage estimates bytes held by buffers and line tables.
func (fileSet *FileSet) MemoryUsage() uint64 {
	var total uint64
	total += uint64(cap(fileSet.files)) * uint64(unsafe.Sizeof(File{}))
	for i := range fileSet.files {
		f := &fileSet.files[i]
		total += uint64(cap(f.Content))
		total += uint64(cap(f.LineIdx)) * 4
		total += uint64(len(f.Path))
	}
	total += uint64(len(fileSet.index)) * uint64(unsafe.Sizeof(FileID(0))+unsafe.Sizeof(""))
	return total
}

// LineOf returns the 1-based line containing off.
func (f *File) LineOf(off uint32) uint32 {
	return toLineCol(f.LineIdx, off).Line
}

// LineStart returns the byte offset where line (1-based) begins.
func (f *File) LineStart(line uint32) uint32 {
	if line <= 1 || len(f.LineIdx) == 0 {
		return 0
	}
	if int(line-2) >= len(f.LineIdx) {
		n, err := safecast.Conv[uint32](len(f.Content))
		if err != nil {
			panic(fmt.Errorf("content length overflow: %w", err))
		}
		return n
	}
	return f.LineIdx[line-2] + 1
}

// GetLine returns line n (1-based) without its newline, or "" when there
// is no such line.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	start := f.LineStart(lineNum)
	if start >= lenContent {
		return ""
	}
	end := lenContent
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	return string(f.Content[start:end])
}
