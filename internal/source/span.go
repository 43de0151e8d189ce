package source

import (
	"fmt"
)

// Span is a half-open byte range inside one file.
type Span struct {
	File  FileID
	Start uint32 // byte offset, inclusive
	End   uint32 // byte offset, exclusive
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// IsValid reports whether the span points into a registered file.
func (s Span) IsValid() bool {
	return s.File.IsValid()
}

// Contains reports whether off lies inside the span (End is exclusive).
func (s Span) Contains(off uint32) bool {
	return s.Start <= off && off < s.End
}

func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Point returns an empty span at off in file.
func Point(file FileID, off uint32) Span {
	return Span{File: file, Start: off, End: off}
}
