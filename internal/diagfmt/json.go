package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"unitd/internal/diag"
	"unitd/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// FixEditJSON представляет одно редактирование для JSON
type FixEditJSON struct {
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	OldText     string       `json:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

// FixJSON представляет предложение по исправлению для JSON
type FixJSON struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	Kind          string        `json:"kind"`
	Applicability string        `json:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Check    string        `json:"check,omitempty"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
	Fixes    []FixJSON     `json:"fixes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// makeLocation возвращает nil для span вне файлов: диагностики
// конфигурации и отсоединённые заметки префикса.
func makeLocation(span source.Span, fs *source.FileSet, opts JSONOpts) *LocationJSON {
	f := fs.Get(span.File)
	if f == nil {
		return nil
	}
	loc := &LocationJSON{
		File:      formatPath(f.Path, opts.PathMode, opts.BaseDir),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if opts.IncludePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(diags []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	n := len(diags)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := make([]DiagnosticJSON, 0, n)

	for _, d := range diags[:n] {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Check:    d.Check,
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts),
		}

		if (opts.IncludeNotes || d.Code == diag.ObsTimings) && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{Message: note.Msg, Location: makeLocation(note.Span, fs, opts)}
			}
		}

		if opts.IncludeFixes && len(d.Fixes) > 0 {
			dj.Fixes = buildFixes(d.Fixes, fs, opts)
		}
		out = append(out, dj)
	}

	return DiagnosticsOutput{Diagnostics: out, Count: len(out)}
}

// buildFixes: сначала preferred, затем по applicability.
func buildFixes(src []diag.Fix, fs *source.FileSet, opts JSONOpts) []FixJSON {
	fixes := append([]diag.Fix(nil), src...)
	sort.SliceStable(fixes, func(i, j int) bool {
		fi, fj := fixes[i], fixes[j]
		if fi.IsPreferred != fj.IsPreferred {
			return fi.IsPreferred
		}
		if fi.Applicability != fj.Applicability {
			return fi.Applicability < fj.Applicability
		}
		return fi.ID < fj.ID
	})

	res := make([]FixJSON, 0, len(fixes))
	for _, fx := range fixes {
		fj := FixJSON{
			ID:            fx.ID,
			Title:         fx.Title,
			Kind:          fx.Kind.String(),
			Applicability: fx.Applicability.String(),
			IsPreferred:   fx.IsPreferred,
		}
		for _, edit := range fx.Edits {
			ej := FixEditJSON{NewText: edit.NewText, OldText: edit.OldText}
			if loc := makeLocation(edit.Span, fs, opts); loc != nil {
				ej.Location = *loc
			}
			if opts.IncludePreviews {
				if preview, err := buildFixEditPreview(fs, edit); err == nil {
					ej.BeforeLines = preview.before
					ej.AfterLines = preview.after
				}
			}
			fj.Edits = append(fj.Edits, ej)
		}
		res = append(res, fj)
	}
	return res
}

// JSON форматирует диагностики в JSON формат.
// Выводит массив диагностик с полной информацией о местоположении, заметках и исправлениях.
func JSON(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(diags, fs, opts))
}
