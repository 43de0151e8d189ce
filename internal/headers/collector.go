package headers

import (
	"unitd/internal/pp"
	"unitd/internal/source"
)

// Collector is a preprocessor listener filling an IncludeStructure.
type Collector struct {
	pp.NopCallbacks
	p   *pp.Preprocessor
	out *IncludeStructure
}

// Collect returns a listener that appends to out. Register it with
// p.AddCallbacks.
func Collect(p *pp.Preprocessor, out *IncludeStructure) *Collector {
	return &Collector{p: p, out: out}
}

func (c *Collector) InclusionDirective(ev pp.InclusionEvent) {
	files := c.p.Files()
	f := files.Get(ev.HashLoc.File)
	if f == nil {
		return
	}
	includer := f.Path
	if f.Flags&source.FileBuiltin != 0 {
		// -include: attributed to the main file
		if main := files.Get(c.p.MainFileID()); main != nil {
			includer = main.Path
		}
	}
	if c.p.IsMainFile(ev.HashLoc.File) {
		dir, _ := ParseDirective(ev.IncludeTok.Text)
		c.out.MainFileIncludes = append(c.out.MainFileIncludes, Inclusion{
			HashOffset:      ev.HashLoc.Start,
			HashLine:        f.LineOf(ev.HashLoc.Start),
			Directive:       dir,
			DirectiveOffset: ev.IncludeTok.Span.Start,
			Written:         ev.Written,
			WrittenOffset:   ev.FilenameRange.Start,
			Resolved:        ev.Resolved,
			FileKind:        ev.Kind,
		})
	}
	if ev.Resolved != "" {
		c.out.RecordInclude(includer, ev.Resolved)
	}
}
