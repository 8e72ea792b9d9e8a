package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// newLogger builds the process logger from --log-level. Logs always go to
// stderr: stdout carries the protocol in lsp mode and reports otherwise.
func newLogger(cmd *cobra.Command, w io.Writer) (*slog.Logger, error) {
	levelStr, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	level, err := parseLogLevel(levelStr)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (expected debug|info|warn|error)", s)
	}
	return level, nil
}
