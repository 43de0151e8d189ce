// Package workspace builds many translation units concurrently. Every
// build owns its session; the index, the check registry and the preamble
// cache are shared read-mostly collaborators.
package workspace

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"unitd/internal/config"
	"unitd/internal/index"
	"unitd/internal/preamble"
	"unitd/internal/tidy"
	"unitd/internal/trace"
	"unitd/internal/unit"
	"unitd/internal/vfs"
)

// Request describes a batch.
type Request struct {
	Commands []config.CompileCommand
	FS       vfs.FileSystem // nil: real filesystem rooted at each command's directory
	Index    index.SymbolIndex
	Opts     unit.ParseOptions
	Checks   *tidy.Registry
	// Preambles caches compiled prefixes between runs; nil compiles each
	// prefix in memory.
	Preambles   *preamble.DiskCache
	UsePreamble bool
	Jobs        int // <= 0: GOMAXPROCS
	Progress    ProgressSink
}

// Result is the outcome for one command, in request order.
type Result struct {
	Path           string
	Unit           *unit.ParsedUnit // nil when Err is set
	Err            error
	PreambleReused bool
	Elapsed        time.Duration
}

// BuildAll builds every command of req. Per-file failures land in
// Result.Err; the returned error is only the context error when the batch
// was cancelled before all builds started. Callers own the returned units
// and must Close them.
func BuildAll(ctx context.Context, req Request) ([]Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "workspace.build-all")
	defer span.End("")
	span.WithExtra("files", fmt.Sprint(len(req.Commands)))

	results := make([]Result, len(req.Commands))
	if len(req.Commands) == 0 {
		return results, nil
	}
	for i, cmd := range req.Commands {
		results[i].Path = cmd.File
		emit(req.Progress, Event{File: cmd.File, Status: StatusQueued})
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Commands)))

	for i, cmd := range req.Commands {
		g.Go(func() error {
			// a build is never interrupted; cancellation is checked before it starts
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				emit(req.Progress, Event{File: cmd.File, Stage: StageBuild, Status: StatusError, Err: err})
				return err
			}
			// each goroutine owns index i
			results[i] = buildOne(gctx, req, cmd)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func buildOne(ctx context.Context, req Request, cmd config.CompileCommand) Result {
	start := time.Now()
	res := Result{Path: cmd.File}
	fail := func(stage Stage, err error) Result {
		res.Err = err
		res.Elapsed = time.Since(start)
		emit(req.Progress, Event{File: cmd.File, Stage: stage, Status: StatusError, Err: err, Elapsed: res.Elapsed})
		return res
	}

	inv, configDiags, err := config.ParseCommand(cmd)
	if err != nil {
		return fail(StageBuild, err)
	}
	fsys := req.FS
	if fsys == nil {
		fsys = vfs.OS{Dir: inv.Directory}
	}
	contents, err := fsys.ReadFile(inv.MainFile)
	if err != nil {
		return fail(StageBuild, fmt.Errorf("%s: %w", inv.MainFile, err))
	}

	var pre *preamble.Data
	if req.UsePreamble {
		emit(req.Progress, Event{File: cmd.File, Stage: StagePreamble, Status: StatusWorking})
		pre, res.PreambleReused, err = LoadPreamble(ctx, req.Preambles, inv, fsys, contents)
		if err != nil {
			// the build still works without a prefix
			trace.Log(ctx, trace.ScopeUnit, "workspace.preamble-failed", err.Error(), "file", inv.MainFile)
			pre = nil
		}
	}

	emit(req.Progress, Event{File: cmd.File, Stage: StageBuild, Status: StatusWorking})
	u, err := unit.Build(ctx, unit.Inputs{
		FileName:    inv.MainFile,
		Contents:    contents,
		Invocation:  inv,
		ConfigDiags: configDiags,
		FS:          fsys,
		Index:       req.Index,
		Opts:        req.Opts,
		Checks:      req.Checks,
	}, pre)
	if err != nil {
		return fail(StageBuild, err)
	}
	res.Unit = u
	res.Elapsed = time.Since(start)
	emit(req.Progress, Event{File: cmd.File, Stage: StageBuild, Status: StatusDone, Elapsed: res.Elapsed})
	return res
}

// LoadPreamble returns a cached prefix when it still matches contents and
// compiles (and stores) a fresh one otherwise.
func LoadPreamble(ctx context.Context, cache *preamble.DiskCache, inv *config.Invocation, fsys vfs.FileSystem, contents []byte) (*preamble.Data, bool, error) {
	key := preamble.KeyFor(inv)
	if cached, ok, err := cache.Get(key); err != nil {
		trace.Log(ctx, trace.ScopeDetail, "workspace.preamble-cache-read", err.Error(), "file", inv.MainFile)
	} else if ok && cached.CanReuse(inv, contents) {
		return cached, true, nil
	}

	pre, err := preamble.Build(ctx, preamble.Inputs{Invocation: inv, FS: fsys, Contents: contents})
	if err != nil {
		return nil, false, err
	}
	if err := cache.Put(key, pre); err != nil {
		trace.Log(ctx, trace.ScopeDetail, "workspace.preamble-cache-write", err.Error(), "file", inv.MainFile)
	}
	return pre, false, nil
}
