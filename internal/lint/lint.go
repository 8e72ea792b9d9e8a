// Package lint defines the boundary between the server and the prose linter.
//
// A Linter is treated as a pure function of (text, options): the server never
// inspects how findings are produced, only the Messages it returns. Positions
// are 1-based; a zero Line or Column means the linter did not report it.
package lint

import (
	"context"
	"errors"
	"fmt"
)

// ErrLinter wraps any failure returned by a Linter implementation.
var ErrLinter = errors.New("linter failed")

// Position is a 1-based line/column pair. Columns count UTF-16 code units.
type Position struct {
	Line   int `json:"line" msgpack:"l"`
	Column int `json:"column" msgpack:"c"`
}

// IsZero reports whether neither component was set.
func (p Position) IsZero() bool {
	return p.Line == 0 && p.Column == 0
}

// Location is the span a message applies to.
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Message is a single finding.
type Message struct {
	Reason   string    `json:"reason"`
	Fatal    bool      `json:"fatal,omitempty"`
	Location *Location `json:"location,omitempty"`

	// Line and Column are the flat fallback used when Location is absent.
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`

	RuleID   string   `json:"ruleId,omitempty"`
	Source   string   `json:"source,omitempty"`
	Actual   string   `json:"actual,omitempty"`
	Expected []string `json:"expected,omitempty"`
}

// Result is everything a Linter reports for one text.
type Result struct {
	Messages []Message `json:"messages"`
}

// Options are passed through to the linter untouched by the orchestrator.
type Options struct {
	NoBinary          bool     `json:"noBinary"`
	ProfanitySureness int      `json:"profanitySureness"`
	Allow             []string `json:"allow,omitempty"`
	Deny              []string `json:"deny,omitempty"`
	// FixRules narrows an auto-fix pass to one rule group. Linters may ignore it.
	FixRules string `json:"fixRules,omitempty"`
}

// Request is the input to a single lint call.
type Request struct {
	URI        string
	LanguageID string
	Text       string
	Options    Options
}

// Linter lints one text.
type Linter interface {
	Lint(ctx context.Context, req Request) (Result, error)
}

// Func adapts a plain function to the Linter interface.
type Func func(ctx context.Context, req Request) (Result, error)

// Lint calls f.
func (f Func) Lint(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// Run calls l and normalises failures so callers can match them with
// errors.Is(err, ErrLinter). A panic inside the linter is reported as an error.
func Run(ctx context.Context, l Linter, req Request) (res Result, err error) {
	if l == nil {
		return Result{}, fmt.Errorf("%w: no linter configured", ErrLinter)
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: panic: %v", ErrLinter, r)
		}
	}()
	res, err = l.Lint(ctx, req)
	if err != nil {
		if errors.Is(err, ErrLinter) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", ErrLinter, err)
	}
	return res, nil
}
