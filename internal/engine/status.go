package engine

import (
	"path"
	"time"
)

// StatusKind names a lifecycle event.
type StatusKind uint8

const (
	StatusLintStart StatusKind = iota + 1
	StatusLintStartFix
	StatusLintStartFormat
	StatusLintError
	StatusLintEnd
	StatusApplyQuickFix
)

// String returns the wire name of the event.
func (k StatusKind) String() string {
	switch k {
	case StatusLintStart:
		return "lint.start"
	case StatusLintStartFix:
		return "lint.start.fix"
	case StatusLintStartFormat:
		return "lint.start.format"
	case StatusLintError:
		return "lint.error"
	case StatusLintEnd:
		return "lint.end"
	case StatusApplyQuickFix:
		return "alexLinter.applyQuickFix"
	default:
		return "unknown"
	}
}

// StatusEvent is one lifecycle notification.
type StatusEvent struct {
	Kind         StatusKind
	TaskID       uint64
	URI          string
	LastFileName string
	// Elapsed is set on StatusLintEnd only.
	Elapsed time.Duration
}

// ElapsedMs reports Elapsed in whole milliseconds.
func (e StatusEvent) ElapsedMs() int64 {
	return e.Elapsed.Milliseconds()
}

func startKind(opts ValidateOptions) StatusKind {
	switch {
	case opts.Fix:
		return StatusLintStartFix
	case opts.Format:
		return StatusLintStartFormat
	default:
		return StatusLintStart
	}
}

func fileName(uri string) string {
	if uri == "" {
		return ""
	}
	return path.Base(uri)
}
