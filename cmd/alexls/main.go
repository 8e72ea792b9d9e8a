package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"alexls/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "alexls",
	Short: "Inclusive-language linter and language server",
	Long:  `alexls flags insensitive, inconsiderate wording in prose and offers replacements, from the command line or as a language server`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return applyColorMode(cmd)
	},
}

// main registers subcommands and persistent flags and executes the root
// command. An exitError sets the process status; any other error exits 1.
func main() {
	rootCmd.Version = version.Current().Version

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(versionCmd)

	registerPersistentFlags(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func registerPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.Bool("timings", false, "show timing information")
	flags.String("cache-dir", "", "lint result cache directory (default: user cache dir)")
	flags.Bool("no-cache", false, "disable the lint result cache")

	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|server|document|phase|debug)")
	flags.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "ring buffer capacity in events")
	flags.Duration("trace-heartbeat", 0, "heartbeat interval (0 disables)")

	flags.String("cpu-profile", "", "write a CPU profile to file")
	flags.String("mem-profile", "", "write a heap profile to file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to file")
}

// exitError ends the process with code without printing anything more.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
