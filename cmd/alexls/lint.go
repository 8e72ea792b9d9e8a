package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alexls/internal/settings"
	"alexls/internal/ui"
)

var lintCmd = newLintCmd()

func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lint [flags] <file|directory>...",
		Short:        "Check prose files for insensitive, inconsiderate wording",
		Long:         `Lint text, markdown and latex files. Directories are walked for known prose extensions. Exits 1 when anything is found and 2 when a file cannot be linted.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         runLint,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	cmd.Flags().String("ui", "auto", "interactive progress (auto|on|off)")
	addRunFlags(cmd)
	return cmd
}

// addRunFlags registers the flags shared by lint and fix.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("jobs", 0, "max files linted in parallel (0=auto)")
	cmd.Flags().StringSlice("allow", nil, "rule ids to allow (mutually exclusive with --deny)")
	cmd.Flags().StringSlice("deny", nil, "only report these rule ids")
	cmd.Flags().Bool("no-binary", false, "also flag binary pairs such as \"he or she\"")
	cmd.Flags().String("profanity-sureness", "", "minimum profanity sureness (unlikely|maybe|likely)")
}

// readOverrides turns the rule flags into a settings layer. Unset flags
// leave the workspace configuration alone.
func readOverrides(cmd *cobra.Command) (settings.Config, int, error) {
	var cfg settings.Config
	flags := cmd.Flags()
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return cfg, 0, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if flags.Changed("allow") {
		if cfg.Allow, err = flags.GetStringSlice("allow"); err != nil {
			return cfg, 0, fmt.Errorf("failed to get allow flag: %w", err)
		}
	}
	if flags.Changed("deny") {
		if cfg.Deny, err = flags.GetStringSlice("deny"); err != nil {
			return cfg, 0, fmt.Errorf("failed to get deny flag: %w", err)
		}
	}
	if flags.Changed("no-binary") {
		noBinary, err := flags.GetBool("no-binary")
		if err != nil {
			return cfg, 0, fmt.Errorf("failed to get no-binary flag: %w", err)
		}
		cfg.NoBinary = &noBinary
	}
	if cfg.ProfanitySureness, err = flags.GetString("profanity-sureness"); err != nil {
		return cfg, 0, fmt.Errorf("failed to get profanity-sureness flag: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, 0, err
	}
	return cfg, jobs, nil
}

func runLint(cmd *cobra.Command, args []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := parseFormat(formatStr)
	if err != nil {
		return err
	}
	mode, err := readSwitch(cmd, "ui")
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
	discover := s.timer.Begin("discover")
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	s.timer.End(discover, fmt.Sprintf("%d files", len(files)))

	var reports []fileReport
	if format == formatPretty && mode.resolve(progressOnTerminal) && len(files) > 1 {
		err = runWithUI("alexls lint", files, func(sink ui.ChannelSink) {
			s.ws.progress = sink
			reports = s.lintAll(cmd.Context(), files)
		})
		if err != nil {
			return err
		}
	} else {
		reports = s.lintAll(cmd.Context(), files)
	}
	s.logCacheStats()

	if err := renderReports(cmd.OutOrStdout(), format, reports); err != nil {
		return err
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
	}
	return exitStatus(reports)
}

// exitStatus is 2 when a file failed, 1 when anything was found.
func exitStatus(reports []fileReport) error {
	found := false
	for _, r := range reports {
		if r.failed() {
			return exitError{code: 2}
		}
		if len(r.Diagnostics) > 0 {
			found = true
		}
	}
	if found {
		return exitError{code: 1}
	}
	return nil
}
