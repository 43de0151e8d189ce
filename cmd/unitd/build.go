package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"unitd/internal/config"
	"unitd/internal/fix"
	"unitd/internal/preamble"
	"unitd/internal/source"
	"unitd/internal/tidy/checks"
	"unitd/internal/trace"
	"unitd/internal/unit"
	"unitd/internal/workspace"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] <file> [-- compiler args]",
	Short: "Build one translation unit and print its diagnostics",
	Long: `Build parses the file on top of its preamble, runs the enabled checks and
prints compiler and check diagnostics. Arguments after -- are compiler flags
(-I, -isystem, -D, -std=, ...) appended to [compile] flags of unitd.toml.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	addUnitFlags(buildCmd)
	addOutputFlags(buildCmd)
	buildCmd.Flags().Bool("fix", false, "apply preferred fixes to the source files")
	buildCmd.Flags().Bool("dump-ast", false, "dump the AST after the diagnostics")
}

// splitArgs separates the file from compiler args given after "--".
func splitArgs(cmd *cobra.Command, args []string) (string, []string, error) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		dash = len(args)
	}
	if dash != 1 {
		return "", nil, fmt.Errorf("expected exactly one file before --, got %d", dash)
	}
	return args[0], args[dash:], nil
}

// buildUnit runs the shared part of build and tokens: target resolution,
// preamble and unit.Build.
func buildUnit(cmd *cobra.Command, args []string) (*unit.ParsedUnit, error) {
	ctx := cmd.Context()
	file, extra, err := splitArgs(cmd, args)
	if err != nil {
		return nil, err
	}
	t, err := resolveTarget(file, extra)
	if err != nil {
		return nil, err
	}
	opts, err := parseOptions(cmd, t.project)
	if err != nil {
		return nil, err
	}
	idx, err := loadIndex(cmd, t.fsys, t.project)
	if err != nil {
		return nil, err
	}
	inv, configDiags, err := config.ParseCommand(t.command)
	if err != nil {
		return nil, err
	}
	contents, err := t.fsys.ReadFile(inv.MainFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inv.MainFile, err)
	}

	var pre *preamble.Data
	cache, usePreamble, err := openPreambleCache(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if usePreamble {
		var reused bool
		pre, reused, err = workspace.LoadPreamble(ctx, cache, inv, t.fsys, contents)
		if err != nil {
			trace.Log(ctx, trace.ScopeDriver, "cli.preamble-failed", err.Error(), "file", inv.MainFile)
			pre = nil
		} else {
			trace.Log(ctx, trace.ScopeDriver, "cli.preamble", fmt.Sprintf("reused=%t", reused), "file", inv.MainFile)
		}
	}

	return unit.Build(ctx, unit.Inputs{
		FileName:    inv.MainFile,
		Contents:    contents,
		Invocation:  inv,
		ConfigDiags: configDiags,
		FS:          t.fsys,
		Index:       idx,
		Opts:        opts,
		Checks:      checks.NewRegistry(),
	}, pre)
}

func runBuild(cmd *cobra.Command, args []string) error {
	out, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	applyFixes, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}
	dumpAST, err := cmd.Flags().GetBool("dump-ast")
	if err != nil {
		return fmt.Errorf("failed to get dump-ast flag: %w", err)
	}
	timings, err := showTimings(cmd)
	if err != nil {
		return err
	}

	u, err := buildUnit(cmd, args)
	if err != nil {
		return err
	}
	defer u.Close()

	diags := u.Diagnostics()
	if timings {
		diags = append(diags[:len(diags):len(diags)], u.Timings().Diagnostic(source.Span{}))
	}
	if err := printDiagnostics(diags, u.Files(), out); err != nil {
		return err
	}
	if dumpAST {
		if err := u.Dump(os.Stdout); err != nil {
			return err
		}
	}
	if applyFixes {
		if err := writeFixes(cmd, u); err != nil {
			return err
		}
	}
	if hasErrors(u.Diagnostics()) {
		return errHasErrors
	}
	return nil
}

func writeFixes(cmd *cobra.Command, u *unit.ParsedUnit) error {
	res, err := fix.Apply(u.Files(), u.Diagnostics(), fix.ApplyOptions{Mode: fix.ApplyModePreferred})
	w := cmd.ErrOrStderr()
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Title, s.Reason)
	}
	if errors.Is(err, fix.ErrNoFixes) {
		fmt.Fprintln(w, "no fixes applied")
		return nil
	}
	if err != nil {
		return err
	}
	if err := fix.Write(res); err != nil {
		return err
	}
	for _, a := range res.Applied {
		fmt.Fprintf(w, "applied %s (%s)\n", a.Title, a.Applicability)
	}
	for _, c := range res.FileChanges {
		fmt.Fprintf(w, "wrote %s: %d edit(s)\n", c.Path, c.EditCount)
	}
	return nil
}
