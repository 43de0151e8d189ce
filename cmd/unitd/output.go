package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"unitd/internal/diag"
	"unitd/internal/diagfmt"
	"unitd/internal/source"
)

type outputOptions struct {
	format    string
	withNotes bool
	suggest   bool
	preview   bool
	showAll   bool
	pathMode  diagfmt.PathMode
	color     bool
	max       int
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	cmd.Flags().Bool("preview", false, "show fix previews (implies --suggest)")
	cmd.Flags().Bool("show-ignored", false, "also print diagnostics silenced by NOLINT")
	cmd.Flags().String("path-mode", "auto", "file path display (auto|absolute|relative|basename)")
}

func readOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	var (
		opts outputOptions
		err  error
	)
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if opts.format != "pretty" && opts.format != "json" {
		return opts, fmt.Errorf("unknown format %q (must be pretty or json)", opts.format)
	}
	if opts.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if opts.suggest, err = cmd.Flags().GetBool("suggest"); err != nil {
		return opts, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if opts.preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return opts, fmt.Errorf("failed to get preview flag: %w", err)
	}
	if opts.showAll, err = cmd.Flags().GetBool("show-ignored"); err != nil {
		return opts, fmt.Errorf("failed to get show-ignored flag: %w", err)
	}
	mode, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return opts, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	var ok bool
	if opts.pathMode, ok = diagfmt.ParsePathMode(mode); !ok {
		return opts, fmt.Errorf("invalid --path-mode value %q", mode)
	}
	if opts.max, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.color, err = useColor(cmd, os.Stdout); err != nil {
		return opts, err
	}
	return opts, nil
}

func printDiagnostics(diags []diag.Diagnostic, fs *source.FileSet, opts outputOptions) error {
	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = ""
	}
	all := diag.Collect(diags, 0)
	all.Dedup()
	diags = all.Items()

	showFixes := opts.suggest || opts.preview
	if opts.format == "json" {
		return diagfmt.JSON(os.Stdout, diags, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			BaseDir:          baseDir,
			Max:              opts.max,
			IncludeNotes:     opts.withNotes,
			IncludeFixes:     showFixes,
			IncludePreviews:  opts.preview,
		})
	}
	shown := diag.Collect(diags, opts.max)
	if n := shown.Dropped(); n > 0 {
		defer fmt.Fprintf(os.Stderr, "... %d more diagnostic(s) not shown (--max-diagnostics=%d)\n", n, opts.max)
	}
	return diagfmt.Pretty(os.Stdout, shown.Items(), fs, diagfmt.PrettyOpts{
		Color:       opts.color,
		Context:     0,
		PathMode:    opts.pathMode,
		BaseDir:     baseDir,
		ShowNotes:   opts.withNotes,
		ShowFixes:   showFixes,
		ShowPreview: opts.preview,
		ShowIgnored: opts.showAll,
	})
}

func hasErrors(diags []diag.Diagnostic) bool {
	return diag.Collect(diags, 0).HasErrors()
}

func showTimings(cmd *cobra.Command) (bool, error) {
	v, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return false, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return v, nil
}
