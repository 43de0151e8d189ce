package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"unitd/internal/diagfmt"
	"unitd/internal/token"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] <file> [-- compiler args]",
	Short: "Print the tokens of the main file",
	Long: `Tokens builds the unit and prints the main-file tokens. By default these are
the tokens after macro expansion as the parser saw them; --spelled prints the
raw lexer output instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTokens,
}

func init() {
	addUnitFlags(tokensCmd)
	tokensCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	tokensCmd.Flags().Bool("spelled", false, "print spelled (unexpanded) tokens")
}

func runTokens(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	spelled, err := cmd.Flags().GetBool("spelled")
	if err != nil {
		return fmt.Errorf("failed to get spelled flag: %w", err)
	}

	u, err := buildUnit(cmd, args)
	if err != nil {
		return err
	}
	defer u.Close()

	var toks []token.Token
	if spelled {
		toks = u.Tokens().Spelled()
	} else {
		toks = u.Tokens().Expanded()
	}

	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(os.Stdout, toks, u.Files())
	case "json":
		return diagfmt.FormatTokensJSON(os.Stdout, toks)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
