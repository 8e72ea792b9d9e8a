package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"alexls/internal/version"
)

var versionCmd = newVersionCmd()

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show alexls build information",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("hash", false, "include git commit hash")
	cmd.Flags().Bool("date", false, "include build timestamp")
	cmd.Flags().Bool("full", false, "include every recorded bit of build metadata")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

// buildReport is the part of version.Info the user asked for. Unrequested
// fields stay empty and are omitted from JSON.
type buildReport struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	full, _ := flags.GetBool("full")
	hash, _ := flags.GetBool("hash")
	date, _ := flags.GetBool("date")
	format, _ := flags.GetString("format")

	info := version.Current()
	rep := buildReport{Tool: "alexls", Version: info.Version}
	if hash || full {
		rep.GitCommit = orUnknown(info.GitCommit)
	}
	if date || full {
		rep.BuildDate = orUnknown(info.BuildDate)
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "pretty":
		writeBuildReport(out, rep)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func writeBuildReport(out io.Writer, rep buildReport) {
	fmt.Fprintf(out, "%s %s\n", rep.Tool, version.Colored(rep.Version))
	if rep.GitCommit != "" {
		fmt.Fprintf(out, "commit: %s\n", rep.GitCommit)
	}
	if rep.BuildDate != "" {
		fmt.Fprintf(out, "built:  %s\n", rep.BuildDate)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
