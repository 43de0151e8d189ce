package fuzztests

import (
	"testing"

	"unitd/internal/diag"
	"unitd/internal/lexer"
	"unitd/internal/preamble"
	"unitd/internal/source"
	"unitd/internal/token"
)

const maxFuzzInput = 1 << 16 // 64 KiB

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		fs := source.NewFileSet()
		fileID := fs.AddVirtual("fuzz.c", input)
		file := fs.Get(fileID)

		var errs int
		lx := lexer.New(file, lexer.Options{Reporter: diag.ReporterFunc(func(diag.Diagnostic) { errs++ })})
		var prev uint32
		for i := 0; ; i++ {
			tok := lx.Next()
			if tok.Span.Start < prev || int(tok.Span.End) > len(input) {
				t.Fatalf("token %d %v out of order or bounds (prev %d, len %d)", i, tok.Span, prev, len(input))
			}
			prev = tok.Span.Start
			if tok.Kind == token.EOF {
				break
			}
			if i > len(input)+1 {
				t.Fatalf("lexer produced more tokens than input bytes")
			}
		}
	})
}

func FuzzPreambleBounds(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		n := preamble.ComputeBounds(input)
		if int(n) > len(input) {
			t.Fatalf("bounds %d past end %d", n, len(input))
		}
		// bounds of the prefix alone are the same
		if again := preamble.ComputeBounds(input[:n]); again != n {
			t.Fatalf("bounds not stable: %d then %d", n, again)
		}
	})
}
