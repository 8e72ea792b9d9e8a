package engine

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"alexls/internal/fix"
	"alexls/internal/lint"
	"alexls/internal/quickfix"
	"alexls/internal/settings"
	"alexls/internal/task"
	"alexls/internal/trace"
	"alexls/internal/translate"
)

// Orchestrator owns the per-process lint state: settings cache, quick-fix
// registry, task sequencer and the configuration debouncer.
type Orchestrator struct {
	linter   lint.Linter
	settings *settings.Cache
	docs     DocumentStore
	pub      Publisher
	status   StatusSink
	edits    EditSubmitter
	metrics  Metrics
	log      *slog.Logger
	tracer   trace.Tracer
	base     context.Context

	seq       *task.Sequencer
	fixes     *quickfix.Registry
	debouncer *Debouncer
	applier   *EditApplier
	// gate serialises, per document, task begin with the clear before it,
	// task completion with the publish after it, and close.
	gate docLocks

	revalidateDelay time.Duration
	sweepWorkers    int

	mu         sync.Mutex
	active     string
	revalidate map[string]*time.Timer
	closed     bool
}

// New builds an orchestrator. It panics if a required collaborator is
// missing.
func New(cfg Config) *Orchestrator {
	if cfg.Linter == nil || cfg.Settings == nil || cfg.Documents == nil || cfg.Publisher == nil {
		panic("engine: Linter, Settings, Documents and Publisher are required")
	}
	o := &Orchestrator{
		linter:          cfg.Linter,
		settings:        cfg.Settings,
		docs:            cfg.Documents,
		pub:             cfg.Publisher,
		status:          cfg.Status,
		edits:           cfg.Edits,
		metrics:         cfg.Metrics,
		log:             cfg.Logger,
		tracer:          cfg.Tracer,
		base:            cfg.BaseContext,
		seq:             task.NewSequencer(),
		fixes:           quickfix.NewRegistry(),
		revalidateDelay: cfg.RevalidateDelay,
		sweepWorkers:    cfg.SweepWorkers,
		revalidate:      make(map[string]*time.Timer),
	}
	if o.status == nil {
		o.status = nopStatus{}
	}
	if o.edits == nil {
		o.edits = rejectEdits{}
	}
	if o.metrics == nil {
		o.metrics = nopMetrics{}
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}
	if o.tracer == nil {
		o.tracer = trace.Nop
	}
	if o.base == nil {
		o.base = context.Background()
	}
	if o.revalidateDelay <= 0 {
		o.revalidateDelay = FormatRevalidateDelay
	}
	if o.sweepWorkers <= 0 {
		o.sweepWorkers = defaultSweepWorkers
	}
	quiet := cfg.ConfigQuiet
	if quiet <= 0 {
		quiet = DefaultConfigQuiet
	}
	o.debouncer = NewDebouncer(quiet, func() { o.sweep(o.base) })
	o.applier = &EditApplier{o: o}
	return o
}

// Validate runs one lint cycle for uri and returns the edits produced by
// fix or format mode. Settings failures are returned; linter failures are
// reported through the status channel and yield no edits and no error.
func (o *Orchestrator) Validate(ctx context.Context, uri string, opts ValidateOptions) ([]TextEdit, error) {
	if _, open := o.docs.Get(uri); !open {
		return nil, nil
	}
	started := time.Now()
	span := trace.Begin(o.tracer, trace.ScopeDocument, "validate", trace.CurrentSpan(ctx).SpanID).
		WithExtra("uri", uri)

	unlock := o.gate.lock(uri)
	if !opts.Format {
		o.publish(ctx, uri, nil)
	}
	t := o.seq.Begin(uri)
	unlock()

	kind := startKind(opts)
	o.metrics.LintStarted(kind)
	o.emit(ctx, StatusEvent{Kind: kind, TaskID: t.ID, URI: uri})
	log := o.log.With("uri", uri, "task", t.ID)

	s, err := o.settings.Get(ctx, uri)
	if err != nil {
		o.finish(t, task.Errored, started, nil)
		log.Error("settings unavailable", "err", err)
		span.End("settings error")
		return nil, err
	}
	// read the text now, never earlier: edits may have landed while
	// settings were being fetched
	doc, ok := o.docs.Get(uri)
	if !ok {
		o.retireClosed(t, uri, started)
		span.End("closed")
		return nil, nil
	}
	if s.Strategy == settings.StrategyUser {
		o.finish(t, task.Completed, started, nil)
		span.End("user strategy")
		return nil, nil
	}
	req := lint.Request{
		URI:        uri,
		LanguageID: doc.LanguageID,
		Text:       doc.Text,
		Options:    s.Linter,
	}
	req.Options.FixRules = opts.FixRules

	lintSpan := trace.Begin(o.tracer, trace.ScopePhase, "lint", span.ID())
	res, err := lint.Run(ctx, o.linter, req)
	if err != nil {
		lintSpan.End("error")
		log.Warn("lint failed", "err", err)
		o.emit(ctx, StatusEvent{Kind: StatusLintError, TaskID: t.ID, URI: uri})
		o.finish(t, task.Errored, started, nil)
		span.End("lint error")
		return nil, nil
	}
	lintSpan.WithExtra("messages", strconv.Itoa(len(res.Messages))).End("")

	tr := translate.Translate(res.Messages)
	for _, code := range tr.Malformed {
		log.Warn("suggestion clause not understood", "code", code)
	}
	outcome := o.finish(t, task.Completed, started, func() {
		o.fixes.Set(uri, tr.Fixes)
		o.publish(ctx, uri, tr.Diagnostics)
	})
	if outcome == task.Superseded {
		log.Debug("result discarded", "reason", "superseded")
		span.End("superseded")
		return nil, nil
	}

	var edits []TextEdit
	switch {
	case opts.Fix:
		edits = fix.Build(tr.Diagnostics, tr.Fixes, fix.ApplyOptions{Mode: fix.ApplyModeGroup, Group: opts.FixRules}).Edits
	case opts.Format:
		edits = fix.Build(tr.Diagnostics, tr.Fixes, fix.ApplyOptions{Mode: fix.ApplyModeAll}).Edits
	}

	elapsed := time.Since(started)
	o.emit(ctx, StatusEvent{Kind: StatusLintEnd, TaskID: t.ID, URI: uri, Elapsed: elapsed})
	span.WithExtra("diagnostics", strconv.Itoa(len(tr.Diagnostics))).End("")
	log.Debug("lint done", "diagnostics", len(tr.Diagnostics), "edits", len(edits), "elapsed", elapsed)

	if opts.Format && len(edits) > 0 {
		o.scheduleRevalidate(uri)
	}
	return edits, nil
}

// Format lints uri and returns edits applying every first-choice fix. A
// non-empty result schedules a re-validation once the editor has applied it.
func (o *Orchestrator) Format(ctx context.Context, uri string) ([]TextEdit, error) {
	return o.Validate(ctx, uri, ValidateOptions{Format: true})
}

// DidOpen validates a newly opened document.
func (o *Orchestrator) DidOpen(ctx context.Context, uri string) error {
	o.SetActive(uri)
	_, err := o.Validate(ctx, uri, ValidateOptions{})
	return err
}

// DidChange validates uri when its strategy is onType.
func (o *Orchestrator) DidChange(ctx context.Context, uri string) error {
	o.SetActive(uri)
	return o.validateIf(ctx, uri, settings.StrategyOnType)
}

// DidSave validates uri when its strategy is onSave. Diagnostics are left
// alone otherwise.
func (o *Orchestrator) DidSave(ctx context.Context, uri string) error {
	return o.validateIf(ctx, uri, settings.StrategyOnSave)
}

func (o *Orchestrator) validateIf(ctx context.Context, uri string, want settings.Strategy) error {
	s, err := o.settings.Get(ctx, uri)
	if err != nil {
		return err
	}
	if s.Strategy != want {
		return nil
	}
	_, err = o.Validate(ctx, uri, ValidateOptions{})
	return err
}

// DidClose clears diagnostics and drops every per-document entry.
func (o *Orchestrator) DidClose(ctx context.Context, uri string) {
	unlock := o.gate.lock(uri)
	defer unlock()

	o.mu.Lock()
	if t := o.revalidate[uri]; t != nil {
		t.Stop()
		delete(o.revalidate, uri)
	}
	if o.active == uri {
		o.active = ""
	}
	o.mu.Unlock()

	o.seq.Forget(uri)
	o.fixes.Delete(uri)
	o.settings.Invalidate(uri)
	o.publish(ctx, uri, nil)
}

// SetActive records the document focused in the editor.
func (o *Orchestrator) SetActive(uri string) {
	o.mu.Lock()
	o.active = uri
	o.mu.Unlock()
}

// Active returns the document last focused or edited.
func (o *Orchestrator) Active() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// ConfigChanged signals a configuration change. Bursts are coalesced into
// one sweep after the quiet window.
func (o *Orchestrator) ConfigChanged() {
	o.debouncer.Signal()
}

// Applier returns the edit applier bound to this orchestrator.
func (o *Orchestrator) Applier() *EditApplier {
	return o.applier
}

// Close cancels pending sweeps and delayed re-validations.
func (o *Orchestrator) Close() {
	o.debouncer.Stop()
	o.mu.Lock()
	o.closed = true
	for uri, t := range o.revalidate {
		t.Stop()
		delete(o.revalidate, uri)
	}
	o.mu.Unlock()
}

// finish completes t. install runs only if t is still the newest task for
// its document, and under the document lock, so a newer begin or a close
// cannot slip between the check and the publish.
func (o *Orchestrator) finish(t task.Task, outcome task.Outcome, started time.Time, install func()) task.Outcome {
	unlock := o.gate.lock(t.URI)
	effective := o.seq.Complete(t.ID, outcome)
	if effective == task.Completed && install != nil {
		install()
	}
	unlock()
	o.metrics.LintFinished(effective, time.Since(started))
	return effective
}

// retireClosed ends a task whose document closed while settings were being
// resolved, and drops what the lookup put back.
func (o *Orchestrator) retireClosed(t task.Task, uri string, started time.Time) {
	unlock := o.gate.lock(uri)
	if _, open := o.docs.Get(uri); !open {
		o.seq.Retire(t.ID)
		o.settings.Invalidate(uri)
	} else {
		o.seq.Complete(t.ID, task.Superseded)
	}
	unlock()
	o.metrics.LintFinished(task.Superseded, time.Since(started))
}

func (o *Orchestrator) publish(ctx context.Context, uri string, diags []translate.Diagnostic) {
	if diags == nil {
		diags = []translate.Diagnostic{}
	}
	if err := o.pub.Publish(ctx, uri, diags); err != nil {
		o.log.Warn("publish diagnostics failed", "uri", uri, "err", err)
		return
	}
	o.metrics.DiagnosticsPublished(len(diags))
}

func (o *Orchestrator) emit(ctx context.Context, ev StatusEvent) {
	ev.LastFileName = fileName(ev.URI)
	o.status.Status(ctx, ev)
}

func (o *Orchestrator) scheduleRevalidate(uri string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if prev := o.revalidate[uri]; prev != nil {
		prev.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(o.revalidateDelay, func() {
		o.mu.Lock()
		if o.revalidate[uri] != timer {
			o.mu.Unlock()
			return
		}
		delete(o.revalidate, uri)
		o.mu.Unlock()
		if _, err := o.Validate(o.base, uri, ValidateOptions{}); err != nil {
			o.log.Warn("re-validation after format failed", "uri", uri, "err", err)
		}
	})
	o.revalidate[uri] = timer
}

// sweep re-validates every open document after a configuration change.
func (o *Orchestrator) sweep(ctx context.Context) {
	started := time.Now()
	span := trace.Begin(o.tracer, trace.ScopeServer, "config_sweep", 0)
	ctx = trace.WithSpan(ctx, span)

	o.settings.InvalidateAll()
	uris := o.docs.URIs()
	o.log.Info("configuration changed, revalidating open documents", "documents", len(uris))

	runParallel(ctx, uris, o.sweepWorkers, func(ctx context.Context, uri string) {
		s, err := o.settings.Get(ctx, uri)
		if err != nil {
			o.log.Error("settings unavailable during sweep", "uri", uri, "err", err)
			return
		}
		if s.Strategy == settings.StrategyUser {
			unlock := o.gate.lock(uri)
			o.publish(ctx, uri, nil)
			unlock()
			return
		}
		if _, err := o.Validate(ctx, uri, ValidateOptions{Force: true}); err != nil && !errors.Is(err, context.Canceled) {
			o.log.Error("revalidation failed", "uri", uri, "err", err)
		}
	})

	elapsed := time.Since(started)
	o.metrics.SweepCompleted(len(uris), elapsed)
	span.WithExtra("documents", strconv.Itoa(len(uris))).End("")
}
