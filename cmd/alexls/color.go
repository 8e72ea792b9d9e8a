package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// switchMode is the value of the tri-state --color and --ui flags.
type switchMode string

const (
	modeAuto switchMode = "auto"
	modeOn   switchMode = "on"
	modeOff  switchMode = "off"
)

func readSwitch(cmd *cobra.Command, name string) (switchMode, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	switch mode := switchMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return modeAuto, nil
	case modeAuto, modeOn, modeOff:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", name, raw)
	}
}

// resolve answers an auto mode with the fallback.
func (m switchMode) resolve(auto func() bool) bool {
	switch m {
	case modeOn:
		return true
	case modeOff:
		return false
	default:
		return auto()
	}
}

func applyColorMode(cmd *cobra.Command) error {
	mode, err := readSwitch(cmd, "color")
	if err != nil {
		return err
	}
	color.NoColor = !mode.resolve(func() bool {
		return isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == ""
	})
	return nil
}

// progressOnTerminal gates the progress view in auto mode. It renders on
// stderr, so both streams must be terminals to keep piped reports clean.
func progressOnTerminal() bool {
	return isTerminal(os.Stdout) && isTerminal(os.Stderr)
}
