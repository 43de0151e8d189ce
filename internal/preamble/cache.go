package preamble

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"unitd/internal/config"
)

// Current schema version - increment when the Data layout changes.
const diskCacheSchemaVersion uint16 = 2

// Key identifies a cached prefix: main file plus invocation fingerprint.
type Key [32]byte

// KeyFor hashes the parts of inv that select a cache slot.
func KeyFor(inv *config.Invocation) Key {
	return sha256.Sum256([]byte(inv.MainFile + "\x00" + inv.Fingerprint()))
}

// DiskCache stores compiled prefixes on disk, one file per key.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type diskPayload struct {
	Schema uint16 `msgpack:"schema"`
	Data   *Data  `msgpack:"data"`
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Key) string {
	// own "preambles" subdirectory, easy to wipe
	return filepath.Join(c.dir, "preambles", hex.EncodeToString(key[:])+".mp")
}

// Put serializes d and atomically replaces the slot for key.
func (c *DiskCache) Put(key Key, d *Data) (err error) {
	if c == nil || d == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(&diskPayload{Schema: diskCacheSchemaVersion, Data: d}); err != nil {
		f.Close()
		return fmt.Errorf("encode preamble: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace
	return os.Rename(f.Name(), p)
}

// Get loads the slot for key. A missing slot or a payload written by
// another schema version is a miss, not an error.
func (c *DiskCache) Get(key Key) (*Data, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload diskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode preamble: %w", err)
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Data == nil {
		return nil, false, nil
	}
	return payload.Data, true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// rename the directory away, then remove it
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
