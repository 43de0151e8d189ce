package fix

import (
	"unitd/internal/diag"
	"unitd/internal/source"
)

// Option mutates a fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithKind overrides fix classification.
func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) {
		f.Kind = kind
	}
}

// Preferred marks fix as the preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets a stable identifier.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func build(title string, edit diag.TextEdit, opts []Option) diag.Fix {
	f := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{edit},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText inserts text at offset at of file.
func InsertText(title string, file source.FileID, at uint32, text string, opts ...Option) diag.Fix {
	return build(title, diag.TextEdit{Span: source.Span{File: file, Start: at, End: at}, NewText: text}, opts)
}

// DeleteSpan removes span; expect guards the current text when non-empty.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return build(title, diag.TextEdit{Span: span, OldText: expect}, opts)
}

// ReplaceSpan replaces span with newText.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return build(title, diag.TextEdit{Span: span, NewText: newText, OldText: expect}, opts)
}

// DeleteLine removes the whole line of f holding off, newline included.
func DeleteLine(title string, f *source.File, off uint32, opts ...Option) diag.Fix {
	line := f.LineOf(off)
	start, end := f.LineStart(line), f.LineStart(line+1)
	span := source.Span{File: f.ID, Start: start, End: end}
	return DeleteSpan(title, span, string(f.Content[start:end]), opts...)
}
