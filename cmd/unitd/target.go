package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"unitd/internal/config"
	"unitd/internal/index"
	"unitd/internal/preamble"
	"unitd/internal/tidy"
	"unitd/internal/trace"
	"unitd/internal/unit"
	"unitd/internal/vfs"
)

// target is one source file together with its project settings.
type target struct {
	command config.CompileCommand
	project *config.Project // nil without unitd.toml
	fsys    vfs.FileSystem
}

// addUnitFlags registers the flags shared by build and check.
func addUnitFlags(cmd *cobra.Command) {
	cmd.Flags().String("checks", "", "check selection glob, overrides [checks] enable")
	cmd.Flags().String("warnings-as-errors", "", "glob of checks whose findings become errors")
	cmd.Flags().Bool("suggest-includes", false, "suggest #include fixes for undeclared names")
	cmd.Flags().String("index", "", "symbol index (TOML), overrides [index] path")
	cmd.Flags().Bool("no-preamble", false, "do not build or reuse a preamble")
	cmd.Flags().String("preamble-cache", "", "preamble cache directory (default: user cache dir)")
}

// resolveTarget locates unitd.toml above file and forms the compile
// command. Project flags come first so command-line args override them.
func resolveTarget(file string, extra []string) (*target, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	abs = filepath.ToSlash(abs)
	dir := filepath.ToSlash(filepath.Dir(abs))

	fsys := vfs.OS{Dir: dir}
	t := &target{fsys: fsys}
	projectPath, ok, err := config.FindProjectConfig(fsys, dir)
	if err != nil {
		return nil, err
	}
	var args []string
	if ok {
		if t.project, err = config.LoadProject(fsys, projectPath); err != nil {
			return nil, err
		}
		dir = t.project.Root
		t.fsys = vfs.OS{Dir: dir}
		args = append(args, t.project.Compile.Flags...)
	}
	args = append(args, extra...)
	t.command = config.CompileCommand{Directory: dir, File: abs, Args: args}
	return t, nil
}

// parseOptions merges flags over the project file.
func parseOptions(cmd *cobra.Command, project *config.Project) (unit.ParseOptions, error) {
	checks, err := cmd.Flags().GetString("checks")
	if err != nil {
		return unit.ParseOptions{}, fmt.Errorf("failed to get checks flag: %w", err)
	}
	wae, err := cmd.Flags().GetString("warnings-as-errors")
	if err != nil {
		return unit.ParseOptions{}, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest-includes")
	if err != nil {
		return unit.ParseOptions{}, fmt.Errorf("failed to get suggest-includes flag: %w", err)
	}

	opts := unit.ParseOptions{
		SuggestMissingIncludes: suggest,
		Checks: tidy.Options{
			Checks:           project.ChecksGlob(),
			WarningsAsErrors: project.WarningsAsErrorsGlob(),
		},
	}
	if project != nil {
		opts.SuggestMissingIncludes = opts.SuggestMissingIncludes || project.Features.SuggestMissingIncludes
		opts.Checks.CheckOptions = project.Checks.Options
	}
	if checks != "" {
		opts.Checks.Checks = checks
	}
	if wae != "" {
		opts.Checks.WarningsAsErrors = wae
	}
	return opts, nil
}

// loadIndex returns nil when no index is configured. A nil *MemIndex is
// never wrapped into the interface.
func loadIndex(cmd *cobra.Command, fsys vfs.FileSystem, project *config.Project) (index.SymbolIndex, error) {
	p, err := cmd.Flags().GetString("index")
	if err != nil {
		return nil, fmt.Errorf("failed to get index flag: %w", err)
	}
	if p == "" {
		p = project.IndexPath()
	} else if abs, err := filepath.Abs(p); err == nil {
		p = filepath.ToSlash(abs)
	}
	if p == "" {
		return nil, nil
	}
	idx, err := index.LoadTOML(fsys, p)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// openPreambleCache returns nil (compile every prefix in memory) when
// preambles are disabled or the cache directory is unusable.
func openPreambleCache(ctx context.Context, cmd *cobra.Command) (*preamble.DiskCache, bool, error) {
	disabled, err := cmd.Flags().GetBool("no-preamble")
	if err != nil {
		return nil, false, fmt.Errorf("failed to get no-preamble flag: %w", err)
	}
	if disabled {
		return nil, false, nil
	}
	dir, err := cmd.Flags().GetString("preamble-cache")
	if err != nil {
		return nil, false, fmt.Errorf("failed to get preamble-cache flag: %w", err)
	}
	var cache *preamble.DiskCache
	if dir != "" {
		cache, err = preamble.NewDiskCache(dir)
	} else {
		cache, err = preamble.OpenDiskCache("unitd")
	}
	if err != nil {
		trace.Log(ctx, trace.ScopeDriver, "cli.preamble-cache-unavailable", err.Error())
		fmt.Fprintf(os.Stderr, "warning: preamble cache disabled: %v\n", err)
		return nil, true, nil
	}
	return cache, true, nil
}
