package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"unitd/internal/version"
)

type versionInfo struct {
	Version    string
	GitCommit  string
	GitMessage string
	BuildDate  string
}

type versionPayload struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

func init() {
	versionCmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show unitd build metadata",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		full, err := cmd.Flags().GetBool("full")
		if err != nil {
			return fmt.Errorf("failed to get full flag: %w", err)
		}
		info := versionInfo{
			Version:    strings.TrimSpace(version.Version),
			GitCommit:  strings.TrimSpace(version.GitCommit),
			GitMessage: strings.TrimSpace(version.GitMessage),
			BuildDate:  strings.TrimSpace(version.BuildDate),
		}

		switch strings.ToLower(format) {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout(), info, full)
		case "pretty":
			on, err := useColor(cmd, os.Stdout)
			if err != nil {
				return err
			}
			renderVersionPretty(cmd.OutOrStdout(), info, full, on)
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	},
}

func renderVersionPretty(out io.Writer, info versionInfo, full, color bool) {
	fmt.Fprintf(out, "unitd %s\n", version.Colored(color))
	if !full {
		return
	}
	fmt.Fprintf(out, "commit:  %s\n", valueOrUnknown(info.GitCommit))
	fmt.Fprintf(out, "message: %s\n", valueOrUnknown(info.GitMessage))
	fmt.Fprintf(out, "built:   %s\n", valueOrUnknown(info.BuildDate))
}

func renderVersionJSON(out io.Writer, info versionInfo, full bool) error {
	payload := versionPayload{Tool: "unitd", Version: info.Version}
	if full {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
		payload.GitMessage = valueOrUnknown(info.GitMessage)
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
