package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"alexls/internal/fix"
	"alexls/internal/translate"
)

type outputFormat string

const (
	formatPretty outputFormat = "pretty"
	formatShort  outputFormat = "short"
	formatJSON   outputFormat = "json"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatPretty, formatShort, formatJSON:
		return f, nil
	case "":
		return formatPretty, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be pretty, short or json)", s)
	}
}

var (
	pathColor    = color.New(color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	caretColor   = color.New(color.FgGreen, color.Bold)
	fixColor     = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
	okColor      = color.New(color.FgGreen)
)

func renderReports(out io.Writer, format outputFormat, reports []fileReport) error {
	switch format {
	case formatJSON:
		return renderJSON(out, reports)
	case formatShort:
		for _, r := range reports {
			renderShort(out, r)
		}
	default:
		for _, r := range reports {
			renderPretty(out, r)
		}
		renderSummary(out, reports)
	}
	return nil
}

func renderShort(out io.Writer, r fileReport) {
	if r.Err != nil {
		fmt.Fprintf(out, "%s: error: %v\n", r.Path, r.Err)
		return
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(out, "%s:%d:%d: %s: %s\n", r.Path, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Severity, d.Message)
	}
}

func renderPretty(out io.Writer, r fileReport) {
	if r.Err != nil {
		fmt.Fprintf(out, "%s: %s %v\n", pathColor.Sprint(r.Path), errorColor.Sprint("error:"), r.Err)
		return
	}
	lines := strings.Split(r.Text, "\n")
	for _, d := range r.Diagnostics {
		sev := warningColor.Sprint("warning:")
		if d.Severity == translate.SeverityError {
			sev = errorColor.Sprint("error:")
		}
		loc := fmt.Sprintf("%s:%d:%d:", r.Path, d.Range.Start.Line+1, d.Range.Start.Character+1)
		fmt.Fprintf(out, "%s %s %s %s\n", pathColor.Sprint(loc), sev, d.Message, dimColor.Sprintf("[%s]", d.Code))
		if d.Range.Start.Line < len(lines) {
			line := strings.TrimRight(lines[d.Range.Start.Line], "\r")
			pad, width := caretSpan(line, d.Range)
			fmt.Fprintf(out, "  %s\n", line)
			fmt.Fprintf(out, "  %s%s\n", strings.Repeat(" ", pad), caretColor.Sprint(strings.Repeat("^", width)))
		}
		if fixes := r.Fixes[d.Code]; len(fixes) > 0 {
			names := make([]string, len(fixes))
			for i, f := range fixes {
				names[i] = f.Replacement
			}
			fmt.Fprintf(out, "  %s %s\n", fixColor.Sprint("fix:"), strings.Join(names, ", "))
		}
	}
	if r.Applied > 0 {
		fmt.Fprintf(out, "%s %s\n", pathColor.Sprint(r.Path+":"), okColor.Sprintf("applied %d fix(es)", r.Applied))
	}
}

// caretSpan returns the display-column offset and width of the underline
// for rng on line. Multi-line ranges are underlined to the end of the line.
func caretSpan(line string, rng translate.Range) (int, int) {
	start := fix.Offset(line, translate.Position{Character: rng.Start.Character})
	end := len(line)
	if rng.End.Line == rng.Start.Line {
		end = fix.Offset(line, translate.Position{Character: rng.End.Character})
	}
	pad := runewidth.StringWidth(line[:start])
	width := runewidth.StringWidth(line[start:max(start, end)])
	return pad, max(width, 1)
}

func renderSummary(out io.Writer, reports []fileReport) {
	findings, withFindings, failed, applied := 0, 0, 0, 0
	for _, r := range reports {
		if r.failed() {
			failed++
			continue
		}
		findings += len(r.Diagnostics)
		applied += r.Applied
		if len(r.Diagnostics) > 0 {
			withFindings++
		}
	}
	switch {
	case findings == 0 && failed == 0:
		fmt.Fprintln(out, okColor.Sprintf("no findings in %d file(s)", len(reports)))
	default:
		fmt.Fprintf(out, "%s in %d of %d file(s)\n", warningColor.Sprintf("%d finding(s)", findings), withFindings, len(reports))
	}
	if applied > 0 {
		fmt.Fprintln(out, okColor.Sprintf("%d fix(es) applied", applied))
	}
	if failed > 0 {
		fmt.Fprintln(out, errorColor.Sprintf("%d file(s) could not be linted", failed))
	}
}

type jsonFix struct {
	Label       string `json:"label"`
	Replacement string `json:"replacement"`
}

type jsonDiagnostic struct {
	translate.Diagnostic
	Fixes []jsonFix `json:"fixes,omitempty"`
}

type jsonReport struct {
	Path        string           `json:"path"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
	Applied     int              `json:"applied,omitempty"`
	Error       string           `json:"error,omitempty"`
}

func renderJSON(out io.Writer, reports []fileReport) error {
	payload := make([]jsonReport, 0, len(reports))
	for _, r := range reports {
		jr := jsonReport{Path: r.Path, Diagnostics: make([]jsonDiagnostic, 0, len(r.Diagnostics)), Applied: r.Applied}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		for _, d := range r.Diagnostics {
			jd := jsonDiagnostic{Diagnostic: d}
			for _, f := range r.Fixes[d.Code] {
				jd.Fixes = append(jd.Fixes, jsonFix{Label: f.Label, Replacement: f.Replacement})
			}
			jr.Diagnostics = append(jr.Diagnostics, jd)
		}
		payload = append(payload, jr)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
