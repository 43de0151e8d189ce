package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"unitd/internal/diag"
	"unitd/internal/source"
	"unitd/internal/tidy/checks"
	"unitd/internal/ui"
	"unitd/internal/workspace"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file>... [-- compiler args]",
	Short: "Build several files in parallel and print their diagnostics",
	Long: `Check builds every file concurrently, each in its own session. Settings
come from the unitd.toml of the first file; compiler args after -- apply to all.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	addUnitFlags(checkCmd)
	addOutputFlags(checkCmd)
	checkCmd.Flags().Int("jobs", 0, "max parallel builds (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	checkCmd.Flags().Bool("list-checks", false, "print registered check names and exit")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	registry := checks.NewRegistry()

	list, err := cmd.Flags().GetBool("list-checks")
	if err != nil {
		return fmt.Errorf("failed to get list-checks flag: %w", err)
	}
	if list {
		for _, name := range registry.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	out, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	useTUI, err := wantTUI(uiFlag)
	if err != nil {
		return err
	}
	timings, err := showTimings(cmd)
	if err != nil {
		return err
	}

	files := args
	var extra []string
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		files, extra = args[:dash], args[dash:]
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to check")
	}

	req := workspace.Request{Jobs: jobs, Checks: registry}
	paths := make([]string, 0, len(files))
	for i, f := range files {
		t, err := resolveTarget(f, extra)
		if err != nil {
			return err
		}
		if i == 0 {
			if req.Opts, err = parseOptions(cmd, t.project); err != nil {
				return err
			}
			if req.Index, err = loadIndex(cmd, t.fsys, t.project); err != nil {
				return err
			}
		}
		req.Commands = append(req.Commands, t.command)
		paths = append(paths, t.command.File)
	}
	if req.Preambles, req.UsePreamble, err = openPreambleCache(ctx, cmd); err != nil {
		return err
	}

	var results []workspace.Result
	if useTUI {
		results, err = runCheckWithUI(ctx, fmt.Sprintf("checking %d file(s)", len(paths)), paths, req)
	} else {
		results, err = workspace.BuildAll(ctx, req)
	}
	defer func() {
		for _, r := range results {
			r.Unit.Close()
		}
	}()
	if err != nil {
		return err
	}

	var errs, warns, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Path, r.Err)
			continue
		}
		diags := r.Unit.Diagnostics()
		for _, d := range diags {
			switch {
			case d.Severity >= diag.SevError:
				errs++
			case d.Severity == diag.SevWarning:
				warns++
			}
		}
		if timings {
			diags = append(diags[:len(diags):len(diags)], r.Unit.Timings().Diagnostic(source.Span{}))
		}
		if err := printDiagnostics(diags, r.Unit.Files(), out); err != nil {
			return err
		}
	}
	if out.format == "pretty" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d file(s): %d error(s), %d warning(s), %d failed\n", len(results), errs, warns, failed)
	}
	if errs > 0 || failed > 0 {
		return errHasErrors
	}
	return nil
}

func wantTUI(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout) && isTerminal(os.Stderr), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

type checkOutcome struct {
	results []workspace.Result
	err     error
}

func runCheckWithUI(ctx context.Context, title string, files []string, req workspace.Request) ([]workspace.Result, error) {
	events := make(chan workspace.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		req.Progress = workspace.ChannelSink{Ch: events}
		res, err := workspace.BuildAll(ctx, req)
		outcomeCh <- checkOutcome{results: res, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, files, events), tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// UI могли закрыть раньше времени, сборка не должна блокироваться на канале
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
