package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"unitd/internal/source"
)

// Cursor is a byte position inside one file, bounded by Limit.
type Cursor struct {
	File  *source.File
	Off   uint32
	Limit uint32 // exclusive; len(File.Content) unless the lexer was given an end
}

// NewCursor positions a cursor at the start of f.
func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("file %s too large: %w", f.Path, err))
	}
	return Cursor{File: f, Limit: limit}
}

func (c *Cursor) EOF() bool { return c.Off >= c.Limit }

// PeekAt returns the byte n positions ahead, ok=false past Limit.
func (c *Cursor) PeekAt(n uint32) (byte, bool) {
	if c.Off+n >= c.Limit {
		return 0, false
	}
	return c.File.Content[c.Off+n], true
}

// Peek returns the current byte or 0 at the end.
func (c *Cursor) Peek() byte {
	b, _ := c.PeekAt(0)
	return b
}

// Peek2 returns the current and the next byte when both exist.
func (c *Cursor) Peek2() (b0, b1 byte, ok bool) {
	if b1, ok = c.PeekAt(1); !ok {
		return 0, 0, false
	}
	return c.File.Content[c.Off], b1, true
}

// HasPrefix reports whether the remaining input starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	end := c.Off + uint32(len(s))
	return end <= c.Limit && string(c.File.Content[c.Off:end]) == s
}

// Bump consumes one byte and returns it.
func (c *Cursor) Bump() byte {
	b, ok := c.PeekAt(0)
	if ok {
		c.Off++
	}
	return b
}

// Eat consumes b when it is next.
func (c *Cursor) Eat(b byte) bool {
	if got, ok := c.PeekAt(0); ok && got == b {
		c.Off++
		return true
	}
	return false
}

// Mark remembers a position for SpanFrom and Reset.
type Mark uint32

func (c *Cursor) Mark() Mark { return Mark(c.Off) }

// SpanFrom covers the bytes consumed since m.
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}

func (c *Cursor) Reset(m Mark) { c.Off = uint32(m) }
