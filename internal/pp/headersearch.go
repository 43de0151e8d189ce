package pp

import (
	"path"
	"unsafe"

	"unitd/internal/config"
	"unitd/internal/vfs"
)

// LookupResult is a resolved header.
type LookupResult struct {
	Entry vfs.Entry
	Kind  FileKind
	// DirIdx is the search-list index the header was found in, -1 for the
	// includer's directory. #include_next continues after it.
	DirIdx int
}

type lookupKey struct {
	name       string
	angled     bool
	includeDir string
	from       int
}

type lookupValue struct {
	res LookupResult
	ok  bool
}

// HeaderSearch resolves include spellings against -iquote, -I and
// -isystem directories, in that order.
type HeaderSearch struct {
	fs     vfs.FileSystem
	quote  []string
	angled []string
	system []string
	cache  map[lookupKey]lookupValue
}

func NewHeaderSearch(fs vfs.FileSystem, inv *config.Invocation) *HeaderSearch {
	hs := &HeaderSearch{fs: fs, cache: make(map[lookupKey]lookupValue)}
	if inv != nil {
		hs.quote = inv.QuoteDirs
		hs.angled = inv.AngledDirs
		hs.system = inv.SystemDirs
	}
	return hs
}

func (hs *HeaderSearch) QuoteDirs() []string  { return hs.quote }
func (hs *HeaderSearch) AngledDirs() []string { return hs.angled }
func (hs *HeaderSearch) SystemDirs() []string { return hs.system }

func (hs *HeaderSearch) dir(i int) (string, FileKind) {
	switch {
	case i < len(hs.quote):
		return hs.quote[i], UserFile
	case i < len(hs.quote)+len(hs.angled):
		return hs.angled[i-len(hs.quote)], UserFile
	default:
		return hs.system[i-len(hs.quote)-len(hs.angled)], SystemFile
	}
}

func (hs *HeaderSearch) dirCount() int {
	return len(hs.quote) + len(hs.angled) + len(hs.system)
}

// Lookup resolves name. includerDir is the directory of the including file
// and includerKind its kind; from is the DirIdx to continue after for
// #include_next, or -2 for a normal include.
func (hs *HeaderSearch) Lookup(name string, angled bool, includerDir string, includerKind FileKind, from int) (LookupResult, bool) {
	key := lookupKey{name: name, angled: angled, includeDir: includerDir, from: from}
	if v, ok := hs.cache[key]; ok {
		return v.res, v.ok
	}
	res, ok := hs.lookup(name, angled, includerDir, includerKind, from)
	hs.cache[key] = lookupValue{res: res, ok: ok}
	return res, ok
}

func (hs *HeaderSearch) lookup(name string, angled bool, includerDir string, includerKind FileKind, from int) (LookupResult, bool) {
	if path.IsAbs(name) {
		e, err := hs.fs.Stat(name)
		if err != nil {
			return LookupResult{}, false
		}
		return LookupResult{Entry: e, Kind: UserFile, DirIdx: -1}, true
	}
	if !angled && from == -2 && includerDir != "" {
		if e, err := hs.fs.Stat(path.Join(includerDir, name)); err == nil {
			return LookupResult{Entry: e, Kind: includerKind, DirIdx: -1}, true
		}
	}
	start := 0
	if angled {
		start = len(hs.quote)
	}
	if from >= 0 && from+1 > start {
		start = from + 1
	}
	for i := start; i < hs.dirCount(); i++ {
		dir, kind := hs.dir(i)
		if e, err := hs.fs.Stat(path.Join(dir, name)); err == nil {
			return LookupResult{Entry: e, Kind: kind, DirIdx: i}, true
		}
	}
	return LookupResult{}, false
}

// MemoryUsage estimates the lookup cache size.
func (hs *HeaderSearch) MemoryUsage() uint64 {
	var total uint64
	for k, v := range hs.cache {
		total += uint64(unsafe.Sizeof(k)+unsafe.Sizeof(v)) + uint64(len(k.name)+len(k.includeDir)+len(v.res.Entry.Path))
	}
	return total
}
