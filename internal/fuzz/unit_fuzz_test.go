package fuzztests

import (
	"context"
	"testing"
	"time"

	"unitd/internal/config"
	"unitd/internal/index"
	"unitd/internal/preamble"
	"unitd/internal/tidy"
	"unitd/internal/tidy/checks"
	"unitd/internal/unit"
	"unitd/internal/vfs"
)

// buildTimeout is the maximum time allowed for one build. A longer build
// points at an infinite loop in recovery or macro expansion.
const buildTimeout = 5 * time.Second

func fuzzInputs(input []byte) (unit.Inputs, *vfs.MapFS) {
	fsys := vfs.NewMapFS("/fuzz", map[string]string{
		"/fuzz/main.c": string(input),
		"/fuzz/a.h":    "#define A 1\nint from_a;\n",
		"/sys/sys.h":   "int from_sys;\n",
	})
	inv := &config.Invocation{
		Directory:  "/fuzz",
		MainFile:   "/fuzz/main.c",
		Lang:       config.LangOptions{Lang: config.LangC, Std: config.StdC17},
		SystemDirs: []string{"/sys"},
		ErrorLimit: 64,
	}
	return unit.Inputs{
		FileName:   inv.MainFile,
		Contents:   input,
		Invocation: inv,
		FS:         fsys,
		Index: index.NewMemIndex(index.Symbol{
			Name:           "missing_name",
			Kind:           index.KindVariable,
			DeclaringFile:  "/fuzz/a.h",
			IncludeHeaders: []index.HeaderRef{{Header: "\"a.h\"", References: 1}},
		}),
		Opts: unit.ParseOptions{
			SuggestMissingIncludes: true,
			Checks:                 tidy.Options{Checks: "*"},
		},
		Checks: checks.NewRegistry(),
	}, fsys
}

func FuzzUnitBuildNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		done := make(chan struct{})
		go func() {
			defer close(done)
			ctx := context.Background()
			in, fsys := fuzzInputs(input)

			u, err := unit.Build(ctx, in, nil)
			if err != nil {
				t.Errorf("build: %v", err)
				return
			}
			u.Close()

			pre, err := preamble.Build(ctx, preamble.Inputs{Invocation: in.Invocation, FS: fsys, Contents: input})
			if err != nil {
				t.Errorf("preamble: %v", err)
				return
			}
			u, err = unit.Build(ctx, in, pre)
			if err != nil {
				t.Errorf("build with preamble: %v", err)
				return
			}
			_ = u.UsedBytes()
			u.Close()
		}()

		select {
		case <-done:
		case <-time.After(buildTimeout):
			t.Fatalf("build hang detected: longer than %v\ninput (%d bytes): %q",
				buildTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], "..."...)
}
