// Package vfs is the filesystem view a compilation session reads through.
//
// Sessions never touch the os package directly: the main buffer, headers and
// the working directory all come from a FileSystem, so editors can overlay
// unsaved buffers and tests can run on in-memory trees.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNoWorkingDir is returned by Getwd when the view has no usable directory.
var ErrNoWorkingDir = errors.New("vfs: working directory not set")

// Entry describes a file that exists in the view.
type Entry struct {
	Path string // absolute, slash separated
	Size int64
}

// FileSystem is the read-only view consumed by a session.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	Stat(name string) (Entry, error)
	Getwd() (string, error)
}

// OS reads from the real filesystem. Dir overrides the process working directory.
type OS struct {
	Dir string
}

func (o OS) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- path is provided by the caller
	return os.ReadFile(filepath.FromSlash(name))
}

func (o OS) Stat(name string) (Entry, error) {
	info, err := os.Stat(filepath.FromSlash(name))
	if err != nil {
		return Entry{}, err
	}
	if info.IsDir() {
		return Entry{}, fmt.Errorf("%s: %w", name, fs.ErrInvalid)
	}
	return Entry{Path: filepath.ToSlash(name), Size: info.Size()}, nil
}

func (o OS) Getwd() (string, error) {
	if o.Dir != "" {
		return filepath.ToSlash(o.Dir), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(wd), nil
}

// MapFS is an in-memory view keyed by absolute slash paths.
// It is safe for concurrent readers; writers must use Set.
type MapFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dir   string
}

// NewMapFS builds a view from path -> content pairs.
func NewMapFS(dir string, files map[string]string) *MapFS {
	m := &MapFS{files: make(map[string][]byte, len(files)), dir: dir}
	for p, c := range files {
		m.files[path.Clean(p)] = []byte(c)
	}
	return m
}

// Set adds or replaces a file.
func (m *MapFS) Set(name, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path.Clean(name)] = []byte(content)
}

// Remove deletes a file from the view.
func (m *MapFS) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path.Clean(name))
}

func (m *MapFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (m *MapFS) Stat(name string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clean := path.Clean(name)
	data, ok := m.files[clean]
	if !ok {
		return Entry{}, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return Entry{Path: clean, Size: int64(len(data))}, nil
}

func (m *MapFS) Getwd() (string, error) {
	if m.dir == "" {
		return "", ErrNoWorkingDir
	}
	return m.dir, nil
}

// Paths lists the files under prefix in sorted order.
func (m *MapFS) Paths(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
