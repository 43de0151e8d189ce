package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"unitd/internal/config"
	"unitd/internal/workspace"
)

var preambleCmd = &cobra.Command{
	Use:   "preamble [flags] <file> [-- compiler args]",
	Short: "Build or inspect the cached preamble of a file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPreamble,
}

func init() {
	preambleCmd.Flags().String("preamble-cache", "", "preamble cache directory (default: user cache dir)")
	preambleCmd.Flags().Bool("no-preamble", false, "compile the prefix without touching the cache")
	preambleCmd.Flags().Bool("drop-cache", false, "remove every cached preamble and exit")
}

func runPreamble(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	drop, err := cmd.Flags().GetBool("drop-cache")
	if err != nil {
		return fmt.Errorf("failed to get drop-cache flag: %w", err)
	}
	cache, _, err := openPreambleCache(ctx, cmd)
	if err != nil {
		return err
	}
	if drop {
		return cache.DropAll()
	}

	file, extra, err := splitArgs(cmd, args)
	if err != nil {
		return err
	}
	t, err := resolveTarget(file, extra)
	if err != nil {
		return err
	}
	inv, _, err := config.ParseCommand(t.command)
	if err != nil {
		return err
	}
	contents, err := t.fsys.ReadFile(inv.MainFile)
	if err != nil {
		return fmt.Errorf("%s: %w", inv.MainFile, err)
	}
	pre, reused, err := workspace.LoadPreamble(ctx, cache, inv, t.fsys, contents)
	if err != nil {
		return err
	}

	on, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	head := color.New(color.Bold)
	miss := color.New(color.FgRed)
	if on {
		head.EnableColor()
		miss.EnableColor()
	} else {
		head.DisableColor()
		miss.DisableColor()
	}

	w := cmd.OutOrStdout()
	state := "built"
	if reused {
		state = "reused"
	}
	fmt.Fprintf(w, "%s %s: %d bytes, %s\n", head.Sprint("preamble"), inv.MainFile, pre.Bounds, state)

	fmt.Fprintln(w, head.Sprint("includes:"))
	for _, inc := range pre.Includes.MainFileIncludes {
		resolved := inc.Resolved
		if resolved == "" {
			resolved = miss.Sprint("not found")
		} else if c := pre.CanonIncludes.MapHeader(resolved); c != "" && c != inc.Written {
			resolved += " (canonical " + c + ")"
		}
		fmt.Fprintf(w, "  %4d  #%s %s -> %s\n", inc.HashLine, inc.Directive, inc.Written, resolved)
	}

	fmt.Fprintln(w, head.Sprint("macros:"))
	for _, name := range pre.Macros.SortedNames() {
		refs := pre.Macros.RefsOf(name)
		fmt.Fprintf(w, "  %s (%d ref(s))\n", name, len(refs))
	}
	fmt.Fprintf(w, "%s %d symbol(s), %d diagnostic(s), %d bytes in memory\n",
		head.Sprint("state:"), pre.Symbols.Len(), len(pre.Diags), pre.MemoryUsage())
	return nil
}
