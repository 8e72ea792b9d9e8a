// Package translate turns raw linter messages into positioned diagnostics
// and the quick fixes derived from their suggestion clauses.
package translate

import (
	"strconv"
	"strings"

	"alexls/internal/lint"
	"alexls/internal/quickfix"
)

const (
	// CodePrefix starts every diagnostic code; the ordinal follows a dash.
	CodePrefix = "alexLintError"
	// SourceTag is reported as the diagnostic source.
	SourceTag = "alexLinter"

	suggestionSep = ", use"
)

// Severity uses the LSP numbering.
type Severity int

const (
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "severity(" + strconv.Itoa(int(s)) + ")"
	}
}

// Position is 0-based; Character counts UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic is one finding ready for publishing.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Range    Range    `json:"range"`
	Message  string   `json:"message"`
	Source   string   `json:"source"`
}

// Suggestion is a reason split into its message and replacement candidates.
type Suggestion struct {
	Message      string
	Replacements []string
	// Malformed is set when the suggestion clause has an unterminated
	// backtick quote. Replacements is empty in that case.
	Malformed bool
}

// ParseReason splits reason at the first ", use". In the remainder the
// backtick-quoted tokens are the replacement candidates:
//
//	"X, use `a`, `b` instead" -> Message "X", Replacements [a b]
func ParseReason(reason string) Suggestion {
	msg, rest, found := strings.Cut(reason, suggestionSep)
	if !found {
		return Suggestion{Message: reason}
	}
	out := Suggestion{Message: msg}
	if strings.Count(rest, "`")%2 != 0 {
		out.Malformed = true
		return out
	}
	parts := strings.Split(rest, "`")
	for i := 1; i < len(parts); i += 2 {
		if parts[i] == "" {
			continue
		}
		out.Replacements = append(out.Replacements, parts[i])
	}
	return out
}

// Result is the output of one lint cycle.
type Result struct {
	Diagnostics []Diagnostic
	Fixes       quickfix.Set
	// Malformed lists codes whose suggestion clause could not be parsed.
	Malformed []string
}

// Translate converts messages in order. Codes are numbered from 1 within
// this call only.
func Translate(messages []lint.Message) Result {
	res := Result{
		Diagnostics: make([]Diagnostic, 0, len(messages)),
		Fixes:       quickfix.Set{},
	}
	for i, m := range messages {
		code := CodePrefix + "-" + strconv.Itoa(i+1)
		sugg := ParseReason(m.Reason)
		sev := SeverityWarning
		if m.Fatal {
			sev = SeverityError
		}
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Code:     code,
			Severity: sev,
			Range:    rangeOf(m),
			Message:  sugg.Message,
			Source:   SourceTag,
		})
		if sugg.Malformed {
			res.Malformed = append(res.Malformed, code)
		}
		for _, r := range sugg.Replacements {
			res.Fixes.Add(code, r)
		}
	}
	return res
}

// rangeOf converts 1-based linter positions to a 0-based range. The start
// falls back to the flat line/column, then 1; the end falls back to the flat
// line/column, then to the start.
func rangeOf(m lint.Message) Range {
	var loc lint.Location
	if m.Location != nil {
		loc = *m.Location
	}
	startLine := firstPositive(loc.Start.Line, m.Line, 1)
	startCol := firstPositive(loc.Start.Column, m.Column, 1)
	endLine := firstPositive(loc.End.Line, m.Line, startLine)
	endCol := firstPositive(loc.End.Column, m.Column, startCol)
	return Range{
		Start: Position{Line: zeroBased(startLine), Character: zeroBased(startCol)},
		End:   Position{Line: zeroBased(endLine), Character: zeroBased(endCol)},
	}
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func zeroBased(v int) int {
	if v <= 1 {
		return 0
	}
	return v - 1
}

// Group returns the rule group of a diagnostic code: the text before the
// first dash.
func Group(code string) string {
	group, _, _ := strings.Cut(code, "-")
	return group
}
