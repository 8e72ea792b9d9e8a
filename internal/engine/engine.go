// Package engine drives the lint lifecycle of open documents.
//
// An Orchestrator reacts to document events (open, change, save, close),
// configuration changes and commands. Each validation resolves settings,
// runs the linter on the latest text, translates findings into diagnostics
// and quick fixes, and publishes them unless a newer validation of the same
// document has begun in the meantime.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"alexls/internal/fix"
	"alexls/internal/lint"
	"alexls/internal/quickfix"
	"alexls/internal/settings"
	"alexls/internal/task"
	"alexls/internal/trace"
	"alexls/internal/translate"
)

var (
	// ErrInvalidFix rejects a quick fix without a diagnostic or replacement.
	ErrInvalidFix = errors.New("invalid fix")
	// ErrStaleVersion means the edit targets a document version that is gone.
	ErrStaleVersion = errors.New("stale document version")
	// ErrEditRejected means the editor refused to apply an edit.
	ErrEditRejected = errors.New("edit rejected")
	// ErrUnknownCommand is returned for unsupported command requests.
	ErrUnknownCommand = errors.New("unknown command")
)

const (
	// DefaultConfigQuiet is the quiet window before a configuration sweep.
	DefaultConfigQuiet = 3 * time.Second
	// FormatRevalidateDelay lets the editor settle formatting edits before
	// the document is checked again.
	FormatRevalidateDelay = 500 * time.Millisecond

	defaultSweepWorkers = 4
)

// TextEdit replaces a range of a document.
type TextEdit = fix.TextEdit

// Document is a snapshot of an open document.
type Document struct {
	URI        string
	Version    int
	Text       string
	LanguageID string
}

// DocumentStore exposes the latest snapshot of every open document.
type DocumentStore interface {
	Get(uri string) (Document, bool)
	URIs() []string
}

// Publisher replaces the diagnostics shown for a document. An empty slice
// clears them.
type Publisher interface {
	Publish(ctx context.Context, uri string, diagnostics []translate.Diagnostic) error
}

// StatusSink receives lifecycle events.
type StatusSink interface {
	Status(ctx context.Context, ev StatusEvent)
}

// VersionedEdit is a set of edits against one document version.
type VersionedEdit struct {
	URI     string
	Version int
	Edits   []TextEdit
}

// EditSubmitter asks the editor to apply an edit atomically.
type EditSubmitter interface {
	Submit(ctx context.Context, edit VersionedEdit) error
}

// Metrics observes the lifecycle. Implementations must be goroutine-safe.
type Metrics interface {
	LintStarted(kind StatusKind)
	LintFinished(outcome task.Outcome, elapsed time.Duration)
	DiagnosticsPublished(count int)
	SweepCompleted(documents int, elapsed time.Duration)
	FixSubmitted(err error)
}

// Config wires an Orchestrator to its collaborators. Linter, Settings,
// Documents and Publisher are required.
type Config struct {
	Linter    lint.Linter
	Settings  *settings.Cache
	Documents DocumentStore
	Publisher Publisher
	Status    StatusSink
	Edits     EditSubmitter
	Metrics   Metrics

	Logger *slog.Logger
	Tracer trace.Tracer

	// ConfigQuiet defaults to DefaultConfigQuiet.
	ConfigQuiet time.Duration
	// RevalidateDelay defaults to FormatRevalidateDelay.
	RevalidateDelay time.Duration
	// SweepWorkers bounds concurrent validations during a sweep.
	SweepWorkers int
	// BaseContext is used for work not tied to a caller: sweeps and delayed
	// re-validation. Defaults to context.Background.
	BaseContext context.Context
}

// ValidateOptions selects the validation mode.
type ValidateOptions struct {
	// Force marks a validation requested explicitly rather than by a
	// document event.
	Force bool
	// Fix returns edits for every fixable diagnostic of rule group FixRules
	// (all groups when empty).
	Fix      bool
	FixRules string
	// Format returns edits for every fixable diagnostic without clearing
	// diagnostics first.
	Format bool
}

type nopStatus struct{}

func (nopStatus) Status(context.Context, StatusEvent) {}

type nopMetrics struct{}

func (nopMetrics) LintStarted(StatusKind)                   {}
func (nopMetrics) LintFinished(task.Outcome, time.Duration) {}
func (nopMetrics) DiagnosticsPublished(int)                 {}
func (nopMetrics) SweepCompleted(int, time.Duration)        {}
func (nopMetrics) FixSubmitted(error)                       {}

type rejectEdits struct{}

func (rejectEdits) Submit(context.Context, VersionedEdit) error {
	return ErrEditRejected
}

// Fixes exposes the quick-fix registry for code actions.
func (o *Orchestrator) Fixes() *quickfix.Registry {
	return o.fixes
}

// Tasks exposes the task sequencer.
func (o *Orchestrator) Tasks() *task.Sequencer {
	return o.seq
}
