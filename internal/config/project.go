package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/BurntSushi/toml"

	"unitd/internal/vfs"
)

// ProjectFileName is looked up from the main file's directory upwards.
const ProjectFileName = "unitd.toml"

// Project is the decoded unitd.toml.
type Project struct {
	Compile struct {
		Flags []string `toml:"flags"`
	} `toml:"compile"`
	Checks struct {
		Enable           []string          `toml:"enable"`
		WarningsAsErrors []string          `toml:"warnings_as_errors"`
		Options          map[string]string `toml:"options"`
	} `toml:"checks"`
	Features struct {
		SuggestMissingIncludes bool `toml:"suggest_missing_includes"`
	} `toml:"features"`
	Index struct {
		Path string `toml:"path"`
	} `toml:"index"`

	// Root is the directory holding the file; not decoded.
	Root string `toml:"-"`
}

// FindProjectConfig walks up from startDir to locate unitd.toml.
func FindProjectConfig(fsys vfs.FileSystem, startDir string) (p string, ok bool, err error) {
	if startDir == "" || !path.IsAbs(startDir) {
		return "", false, fmt.Errorf("project lookup from %q: start directory must be absolute", startDir)
	}
	dir := path.Clean(startDir)
	for {
		candidate := path.Join(dir, ProjectFileName)
		if _, err := fsys.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := path.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadProject decodes the project file at p.
func LoadProject(fsys vfs.FileSystem, p string) (*Project, error) {
	data, err := fsys.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	var cfg Project
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", p, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", p, strings.Join(keys, ", "))
	}
	cfg.Root = path.Dir(p)
	return &cfg, nil
}

// ChecksGlob joins enabled check patterns into the comma-separated form
// the check host expects.
func (p *Project) ChecksGlob() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.Checks.Enable, ",")
}

// WarningsAsErrorsGlob is the escalation list in comma-separated form.
func (p *Project) WarningsAsErrorsGlob() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.Checks.WarningsAsErrors, ",")
}

// IndexPath resolves [index].path against the project root.
func (p *Project) IndexPath() string {
	if p == nil || p.Index.Path == "" {
		return ""
	}
	if path.IsAbs(p.Index.Path) {
		return p.Index.Path
	}
	return path.Join(p.Root, p.Index.Path)
}
