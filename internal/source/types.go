package source

type (
	// FileID uniquely identifies a source buffer within a FileSet.
	FileID uint32 // buffer id
	// FileFlags encodes metadata about a source buffer.
	FileFlags uint8
)

// NoFileID marks an absent file; valid IDs start at 1.
const NoFileID FileID = 0

const (
	// FileVirtual indicates the buffer did not come from the filesystem (editor text, tests).
	FileVirtual FileFlags = 1 << iota
	// FileBuiltin marks the synthetic "<built-in>" prologue.
	FileBuiltin
	// FileSystemHeader marks a header found through a system search path.
	FileSystemHeader
	FileHadBOM
	FileNormalizedCRLF
)

// BuiltinName is the buffer identifier of the predefined-macro prologue.
const BuiltinName = "<built-in>"

// File captures metadata and content for a single source buffer.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

// IsValid reports whether id refers to a registered file.
func (id FileID) IsValid() bool { return id != NoFileID }
