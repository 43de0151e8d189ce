// Package preamble compiles the leading directive block of a file once so
// later builds can resume right after it.
//
// Data is a session-independent snapshot: file-scope symbols, the macro
// table rendered as #define lines, and the structured include, macro and
// canonical-include facts of the prefix. Spans inside Data refer to the
// main file only; the main file has the same FileID in every session.
package preamble

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"unsafe"

	"unitd/internal/canonical"
	"unitd/internal/config"
	"unitd/internal/diag"
	"unitd/internal/headers"
	"unitd/internal/macros"
	"unitd/internal/pp"
	"unitd/internal/sema"
	"unitd/internal/session"
	"unitd/internal/source"
	"unitd/internal/trace"
	"unitd/internal/vfs"
)

// Data is the compiled state of a prefix.
type Data struct {
	Bounds        uint32                    `msgpack:"bounds"`
	Symbols       *sema.Symbols             `msgpack:"symbols"`
	MacroDefs     string                    `msgpack:"macro_defs"`
	Includes      *headers.IncludeStructure `msgpack:"includes"`
	Macros        *macros.MainFileMacros    `msgpack:"macros"`
	CanonIncludes *canonical.Includes       `msgpack:"canon"`
	Diags         []diag.Diagnostic         `msgpack:"diags"`
	ContentHash   [32]byte                  `msgpack:"hash"`
	Fingerprint   string                    `msgpack:"fingerprint"`
}

// Inputs for Build. Contents nil means read Invocation.MainFile from FS.
type Inputs struct {
	Invocation *config.Invocation
	FS         vfs.FileSystem
	Contents   []byte
}

// Build compiles the prefix of the main file. A fatal error inside the
// prefix is logged and the partial state is still returned.
func Build(ctx context.Context, in Inputs) (*Data, error) {
	if err := in.Invocation.Validate(); err != nil {
		return nil, err
	}
	contents := in.Contents
	if contents == nil {
		if in.FS == nil {
			in.FS = vfs.OS{Dir: in.Invocation.Directory}
		}
		data, err := in.FS.ReadFile(in.Invocation.MainFile)
		if err != nil {
			return nil, fmt.Errorf("preamble: read main file: %w", err)
		}
		contents = data
	}
	bounds := ComputeBounds(contents)

	ctx, span := trace.Start(ctx, trace.ScopePhase, "preamble.build")
	defer span.End("")
	span.WithExtra("file", in.Invocation.MainFile)

	s, err := session.New(session.Options{
		Invocation: in.Invocation,
		FS:         in.FS,
		Contents:   contents[:bounds],
	})
	if err != nil {
		return nil, fmt.Errorf("preamble: %w", err)
	}
	defer s.Close()
	if err := s.BeginSourceFile(); err != nil {
		return nil, fmt.Errorf("preamble: %w", err)
	}

	out := &Data{
		Bounds:        bounds,
		Includes:      headers.NewIncludeStructure(),
		Macros:        macros.New(),
		CanonIncludes: canonical.New(),
		ContentHash:   sha256.Sum256(contents[:bounds]),
		Fingerprint:   in.Invocation.Fingerprint(),
	}
	out.CanonIncludes.AddSystemHeadersMapping()

	p := s.PP()
	s.Engine().SetConsumer(diag.ReporterFunc(func(d diag.Diagnostic) {
		if folded, ok := s.Fold(d); ok {
			d = detachNotes(folded, s.Files())
		}
		out.Diags = append(out.Diags, d)
	}))
	p.AddCallbacks(headers.Collect(p, out.Includes))
	p.AddCallbacks(macros.Collect(p, out.Macros))
	p.AddCommentHandler(canonical.NewPragmaHandler(out.CanonIncludes))

	if err := s.Execute(); err != nil {
		trace.Log(ctx, trace.ScopeUnit, "preamble.execute-failed", err.Error(), "file", in.Invocation.MainFile)
	}
	s.EndOfMainFile()

	out.Symbols = s.Sema().Snapshot()
	out.MacroDefs = RenderMacros(p.Macros())
	return out, nil
}

// CanReuse reports whether d still describes the prefix of contents
// compiled under inv. The prefix must end at the same offset and hash
// the same.
func (d *Data) CanReuse(inv *config.Invocation, contents []byte) bool {
	if d == nil || inv == nil || int(d.Bounds) > len(contents) {
		return false
	}
	if d.Fingerprint != inv.Fingerprint() || ComputeBounds(contents) != d.Bounds {
		return false
	}
	sum := sha256.Sum256(contents[:d.Bounds])
	return bytes.Equal(sum[:], d.ContentHash[:])
}

// RenderMacros writes the user macros of t as #define lines; macros from
// the prologue are left out, the next session predefines them again.
func RenderMacros(t *pp.MacroTable) string {
	var sb strings.Builder
	for _, mi := range t.All() {
		if mi.Builtin {
			continue
		}
		sb.WriteString("#define ")
		sb.WriteString(mi.Name)
		if mi.FunctionLike {
			params := make([]string, len(mi.Params))
			copy(params, mi.Params)
			if mi.Variadic && len(params) > 0 && params[len(params)-1] == "__VA_ARGS__" {
				params[len(params)-1] = "..."
			}
			sb.WriteString("(" + strings.Join(params, ", ") + ")")
		}
		if body := mi.BodyText(); body != "" {
			sb.WriteByte(' ')
			sb.WriteString(body)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// detachNotes turns note locations outside the main file into text: their
// FileIDs mean nothing to the session that later reuses the prefix.
func detachNotes(d diag.Diagnostic, files *source.FileSet) diag.Diagnostic {
	notes := make([]diag.Note, len(d.Notes))
	for i, n := range d.Notes {
		if n.Span.File == d.Primary.File {
			notes[i] = n
			continue
		}
		path, pos := files.Position(n.Span)
		notes[i] = diag.Note{
			Span: source.Point(d.Primary.File, d.Primary.Start),
			Msg:  fmt.Sprintf("%s:%d:%d: %s", path, pos.Line, pos.Col, n.Msg),
		}
	}
	d.Notes = notes
	return d
}

// MemoryUsage estimates the snapshot size.
func (d *Data) MemoryUsage() uint64 {
	if d == nil {
		return 0
	}
	total := uint64(len(d.MacroDefs)) + d.Includes.MemoryUsage() + d.Macros.MemoryUsage() + d.CanonIncludes.MemoryUsage()
	if d.Symbols != nil {
		total += uint64(len(d.Symbols.Decls)) * uint64(unsafe.Sizeof(sema.ExternalDecl{}))
		total += uint64(len(d.Symbols.Tags)) * uint64(unsafe.Sizeof(sema.ExternalTag{}))
	}
	return total
}
