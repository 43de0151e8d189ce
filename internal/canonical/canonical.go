// Package canonical maps implementation headers and symbols to the public
// header a user should include.
package canonical

import (
	"maps"
	"path"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Includes is the canonical-include table of one translation unit.
// The built-in system mapping is shared and never written.
type Includes struct {
	fullPath  map[string]string
	suffixes  map[string]string
	symbols   map[string]string
	system    bool
	maxSuffix int // longest suffix in path components
}

func New() *Includes {
	return &Includes{
		fullPath: make(map[string]string),
		suffixes: make(map[string]string),
		symbols:  make(map[string]string),
	}
}

// AddMapping maps the header at the absolute path to a spelled include.
func (c *Includes) AddMapping(file, canonical string) {
	c.fullPath[path.Clean(file)] = canonical
}

// AddSuffixMapping maps every header whose path ends with suffix.
func (c *Includes) AddSuffixMapping(suffix, canonical string) {
	c.suffixes[suffix] = canonical
	if n := strings.Count(suffix, "/") + 1; n > c.maxSuffix {
		c.maxSuffix = n
	}
}

func (c *Includes) AddSymbolMapping(name, canonical string) {
	c.symbols[name] = canonical
}

// AddSystemHeadersMapping enables the built-in C library mapping.
func (c *Includes) AddSystemHeadersMapping() {
	c.system = true
	for suffix := range systemSuffixes {
		if n := strings.Count(suffix, "/") + 1; n > c.maxSuffix {
			c.maxSuffix = n
		}
	}
}

// MapHeader returns the canonical spelling of the header at file, or ""
// when the header is its own canonical form.
func (c *Includes) MapHeader(file string) string {
	if c == nil {
		return ""
	}
	file = path.Clean(file)
	if v, ok := c.fullPath[file]; ok {
		return v
	}
	parts := strings.Split(strings.TrimPrefix(file, "/"), "/")
	for n := 1; n <= c.maxSuffix && n <= len(parts); n++ {
		suffix := strings.Join(parts[len(parts)-n:], "/")
		if v, ok := c.suffixes[suffix]; ok {
			return v
		}
		if c.system {
			if v, ok := systemSuffixes[suffix]; ok {
				return v
			}
		}
	}
	return ""
}

// MapSymbol returns the header declaring a well-known symbol, or "".
func (c *Includes) MapSymbol(name string) string {
	if c == nil {
		return ""
	}
	if v, ok := c.symbols[name]; ok {
		return v
	}
	if c.system {
		return systemSymbols[name]
	}
	return ""
}

// Clone copies the table; the system mapping stays shared.
func (c *Includes) Clone() *Includes {
	if c == nil {
		return New()
	}
	return &Includes{
		fullPath:  maps.Clone(c.fullPath),
		suffixes:  maps.Clone(c.suffixes),
		symbols:   maps.Clone(c.symbols),
		system:    c.system,
		maxSuffix: c.maxSuffix,
	}
}

// MemoryUsage counts the per-unit mappings only.
func (c *Includes) MemoryUsage() uint64 {
	if c == nil {
		return 0
	}
	var n uint64
	for _, m := range []map[string]string{c.fullPath, c.suffixes, c.symbols} {
		for k, v := range m {
			n += uint64(len(k) + len(v) + 32)
		}
	}
	return n
}

type wireIncludes struct {
	FullPath map[string]string `msgpack:"full"`
	Suffixes map[string]string `msgpack:"suffix"`
	Symbols  map[string]string `msgpack:"symbols"`
	System   bool              `msgpack:"system"`
}

var (
	_ msgpack.CustomEncoder = (*Includes)(nil)
	_ msgpack.CustomDecoder = (*Includes)(nil)
)

func (c *Includes) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(wireIncludes{FullPath: c.fullPath, Suffixes: c.suffixes, Symbols: c.symbols, System: c.system})
}

func (c *Includes) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireIncludes
	if err := dec.Decode(&w); err != nil {
		return err
	}
	*c = *New()
	for k, v := range w.FullPath {
		c.AddMapping(k, v)
	}
	for k, v := range w.Suffixes {
		c.AddSuffixMapping(k, v)
	}
	maps.Copy(c.symbols, w.Symbols)
	if w.System {
		c.AddSystemHeadersMapping()
	}
	return nil
}
