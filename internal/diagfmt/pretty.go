package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"unitd/internal/diag"
	"unitd/internal/source"
)

// Pretty renders diagnostics for humans. Each one prints as
// <path>:<line>:<col>: <SEV> <CODE>: <Message> [check]
// followed by the source line underlined ^~~~ under the span, then notes
// and fixes.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	p := &printer{w: w, fs: fs, opts: opts}
	p.bold = p.paint(color.Bold)
	p.dim = p.paint(color.Faint)
	p.caret = p.paint(color.FgGreen, color.Bold)
	for _, d := range diags {
		if d.Severity == diag.SevIgnored && !opts.ShowIgnored {
			continue
		}
		p.diagnostic(d)
		if p.err != nil {
			return p.err
		}
	}
	return p.err
}

type printer struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	err  error

	bold, dim, caret *color.Color
}

func (p *printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.opts.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (p *printer) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevFatal, diag.SevError:
		return p.paint(color.FgRed, color.Bold)
	case diag.SevWarning:
		return p.paint(color.FgYellow, color.Bold)
	case diag.SevNote:
		return p.paint(color.FgCyan, color.Bold)
	}
	return p.paint(color.Faint)
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// location renders "path:line:col"; spans without a file name the tool.
func (p *printer) location(sp source.Span) string {
	f := p.fs.Get(sp.File)
	if f == nil {
		return "unitd"
	}
	start, _ := p.fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f.Path, p.opts.PathMode, p.opts.BaseDir), start.Line, start.Col)
}

func (p *printer) diagnostic(d diag.Diagnostic) {
	msg := d.Message
	if d.Check != "" {
		msg += " [" + d.Check + "]"
	}
	p.printf("%s: %s %s: %s\n",
		p.bold.Sprint(p.location(d.Primary)),
		p.severity(d.Severity).Sprint(d.Severity.String()),
		d.Code.ID(),
		p.bold.Sprint(msg))
	p.snippet(d.Primary)

	if p.opts.ShowNotes || d.Code == diag.ObsTimings {
		for _, n := range d.Notes {
			p.printf("  %s %s: %s\n", p.severity(diag.SevNote).Sprint("note:"), p.location(n.Span), n.Msg)
		}
	}
	if p.opts.ShowFixes {
		for _, fx := range d.Fixes {
			p.fix(fx)
		}
	}
}

func (p *printer) fix(fx diag.Fix) {
	mark := ""
	if fx.IsPreferred {
		mark = " (preferred)"
	}
	p.printf("  %s %s%s [%s]\n", p.caret.Sprint("fix:"), fx.Title, mark, fx.Applicability)
	if !p.opts.ShowPreview {
		return
	}
	for _, edit := range fx.Edits {
		preview, err := buildFixEditPreview(p.fs, edit)
		if err != nil {
			continue
		}
		for _, l := range preview.before {
			p.printf("    %s\n", p.paint(color.FgRed).Sprint("- "+l))
		}
		for _, l := range preview.after {
			p.printf("    %s\n", p.paint(color.FgGreen).Sprint("+ "+l))
		}
	}
}

// snippet prints the primary line with Context lines around it and an
// underline below the span. Columns are counted in display cells.
func (p *printer) snippet(sp source.Span) {
	f := p.fs.Get(sp.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := p.fs.Resolve(sp)
	ctx := uint32(max(p.opts.Context, 0))
	first := start.Line - min(ctx, start.Line-1)
	last := start.Line + ctx

	for ln := first; ln <= last; ln++ {
		if int(ln) > len(f.LineIdx)+1 {
			break
		}
		text := strings.ReplaceAll(f.GetLine(ln), "\t", "    ")
		if p.opts.Width > 0 {
			text = runewidth.Truncate(text, int(p.opts.Width), "…")
		}
		p.printf("%s %s\n", p.dim.Sprintf("%5d |", ln), text)
		if ln != start.Line {
			continue
		}
		line := strings.ReplaceAll(f.GetLine(ln), "\t", "    ")
		raw := f.GetLine(ln)
		col := max(min(int(start.Col)-1, len(raw)), 0)
		pad := runewidth.StringWidth(strings.ReplaceAll(raw[:col], "\t", "    "))
		width := 1
		if end.Line == start.Line && int(end.Col) > int(start.Col) {
			stop := min(int(end.Col)-1, len(raw))
			width = max(runewidth.StringWidth(raw[col:stop]), 1)
		} else if end.Line > start.Line {
			width = max(runewidth.StringWidth(line)-pad, 1)
		}
		p.printf("%s %s\n", p.dim.Sprint("      |"), strings.Repeat(" ", pad)+p.caret.Sprint("^"+strings.Repeat("~", width-1)))
	}
}
