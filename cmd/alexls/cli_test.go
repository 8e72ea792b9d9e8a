package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// runCLI executes a fresh command tree with colors and caching disabled.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{
		Use:               "alexls",
		PersistentPreRunE: rootCmd.PersistentPreRunE,
		SilenceErrors:     true,
	}
	registerPersistentFlags(root)
	root.AddCommand(newLintCmd(), newFixCmd(), newVersionCmd())

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--color=off", "--no-cache", "--log-level=error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exitCode(err error) int {
	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestLintReportsFindings(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.md")
	writeFile(t, notes, "# Notes\n\nour whitelist\n")
	writeFile(t, filepath.Join(dir, "clean.txt"), "nothing to see\n")

	out, err := runCLI(t, "lint", "--ui=off", "--format=short", dir)
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code %d (%v), output:\n%s", code, err, out)
	}
	want := notes + ":3:5: warning: `whitelist` may be insensitive\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestLintCleanExitsZero(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clean.md"), "all good here\n")

	out, err := runCLI(t, "lint", "--ui=off", dir)
	if err != nil {
		t.Fatalf("unexpected error %v, output:\n%s", err, out)
	}
	if !strings.Contains(out, "no findings in 1 file(s)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLintPrettyShowsCaretAndFixes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a blacklist\n")

	out, _ := runCLI(t, "lint", "--ui=off", dir)
	for _, want := range []string{
		"warning: `blacklist` may be insensitive [alexLintError-1]",
		"  a blacklist\n    ^^^^^^^^^\n",
		"fix: denylist, blocklist",
		"1 finding(s) in 1 of 1 file(s)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLintHonoursWorkspaceConfigAndFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".alexlsrc.toml"), "allow = [\"whitelist\"]\n")
	writeFile(t, filepath.Join(dir, "docs", "a.md"), "our whitelist and blacklist\n")

	out, err := runCLI(t, "lint", "--ui=off", "--format=json", dir)
	if exitCode(err) != 1 {
		t.Fatalf("unexpected result %v:\n%s", err, out)
	}
	var reports []jsonReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(reports) != 1 || len(reports[0].Diagnostics) != 1 {
		t.Fatalf("unexpected reports %+v", reports)
	}
	d := reports[0].Diagnostics[0]
	if !strings.Contains(d.Message, "blacklist") || len(d.Fixes) != 2 || d.Fixes[0].Replacement != "denylist" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}

	// the command line overrides the file
	_, err = runCLI(t, "lint", "--ui=off", "--allow=whitelist,blacklist", dir)
	if err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
}

func TestLintRejectsConflictingRuleFlags(t *testing.T) {
	_, err := runCLI(t, "lint", "--allow=a", "--deny=b", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLintMissingPath(t *testing.T) {
	_, err := runCLI(t, "lint", filepath.Join(t.TempDir(), "missing.md"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestFixWritesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.md")
	writeFile(t, path, "our whitelist and a blacklist\nthe chairman said so\n")

	out, err := runCLI(t, "fix", dir)
	if err != nil {
		t.Fatalf("fix: %v\n%s", err, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "our allowlist and a denylist\nthe chair said so\n"; string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}
	if !strings.Contains(out, "applied 3 fix(es)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestFixDryRunLeavesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.md")
	writeFile(t, path, "our whitelist\n")

	out, err := runCLI(t, "fix", "--dry-run", "--format=json", path)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "our whitelist\n" {
		t.Fatalf("dry run wrote %q", data)
	}
	var reports []jsonReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if reports[0].Applied != 1 || len(reports[0].Diagnostics) != 0 {
		t.Fatalf("unexpected report %+v", reports[0])
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := runCLI(t, "version", "--format=json", "--hash")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var rep buildReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rep.Tool != "alexls" || rep.Version == "" || rep.GitCommit == "" || rep.BuildDate != "" {
		t.Fatalf("unexpected report %+v", rep)
	}
	if _, err := runCLI(t, "version", "--format=xml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
