package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fixCmd = newFixCmd()

func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fix [flags] <file|directory>...",
		Short:        "Apply the first suggested replacement of every finding",
		Long:         "Lint files, replace every fixable finding with its first suggestion and write the files back. Findings that overlap an earlier fix are left for a later run.",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         runFix,
	}
	cmd.Flags().Bool("dry-run", false, "report fixes without writing files")
	cmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	addRunFlags(cmd)
	return cmd
}

func runFix(cmd *cobra.Command, args []string) error {
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := parseFormat(formatStr)
	if err != nil {
		return err
	}
	overrides, jobs, err := readOverrides(cmd)
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	s, cleanup, err := newSession(cmd, overrides, jobs)
	if err != nil {
		return err
	}
	defer cleanup()
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	reports := s.fixAll(cmd.Context(), files, dryRun)
	s.logCacheStats()
	if err := renderReports(cmd.OutOrStdout(), format, reports); err != nil {
		return err
	}
	if dryRun && format == formatPretty {
		fmt.Fprintln(cmd.OutOrStdout(), dimColor.Sprint("dry run: no files written"))
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
	}
	for _, r := range reports {
		if r.failed() {
			return exitError{code: 2}
		}
	}
	return nil
}
