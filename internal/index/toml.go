package index

import (
	"fmt"
	"path"

	"github.com/BurntSushi/toml"

	"unitd/internal/vfs"
)

type tomlFile struct {
	Symbols []tomlSymbol `toml:"symbol"`
}

type tomlSymbol struct {
	Name           string       `toml:"name"`
	Kind           string       `toml:"kind"`
	DeclaringFile  string       `toml:"declaring_file"`
	IncludeHeaders []tomlHeader `toml:"include_headers"`
}

type tomlHeader struct {
	Header     string `toml:"header"`
	References uint32 `toml:"references"`
}

// LoadTOML reads an index file of [[symbol]] tables. Relative declaring
// files resolve against the index file's directory.
func LoadTOML(fsys vfs.FileSystem, p string) (*MemIndex, error) {
	data, err := fsys.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", p, err)
	}
	var f tomlFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("index %s: failed to parse TOML: %w", p, err)
	}
	idx := NewMemIndex()
	for i, ts := range f.Symbols {
		if ts.Name == "" {
			return nil, fmt.Errorf("index %s: symbol #%d has no name", p, i+1)
		}
		s := Symbol{Name: ts.Name, Kind: ParseKind(ts.Kind), DeclaringFile: ts.DeclaringFile}
		if s.DeclaringFile != "" && !path.IsAbs(s.DeclaringFile) {
			s.DeclaringFile = path.Join(path.Dir(p), s.DeclaringFile)
		}
		for _, h := range ts.IncludeHeaders {
			s.IncludeHeaders = append(s.IncludeHeaders, HeaderRef(h))
		}
		idx.Add(s)
	}
	return idx, nil
}
