package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alexls/internal/fix"
	"alexls/internal/lint"
	"alexls/internal/lint/wordlist"
	"alexls/internal/settings"
	"alexls/internal/task"
	"alexls/internal/translate"
)

const docURI = "file:///work/notes.md"

type memStore struct {
	mu   sync.Mutex
	docs map[string]Document
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]Document)}
}

func (s *memStore) Get(uri string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[uri]
	return d, ok
}

func (s *memStore) URIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

func (s *memStore) put(uri, text string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = Document{URI: uri, Version: version, Text: text, LanguageID: "markdown"}
}

func (s *memStore) remove(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

type published struct {
	uri   string
	diags []translate.Diagnostic
}

type recPublisher struct {
	mu    sync.Mutex
	calls []published
}

func (p *recPublisher) Publish(_ context.Context, uri string, diags []translate.Diagnostic) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, published{uri: uri, diags: diags})
	return nil
}

func (p *recPublisher) forURI(uri string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, c := range p.calls {
		if c.uri == uri {
			out = append(out, c)
		}
	}
	return out
}

func (p *recPublisher) last(uri string) []translate.Diagnostic {
	calls := p.forURI(uri)
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1].diags
}

type recStatus struct {
	mu     sync.Mutex
	events []StatusEvent
}

func (s *recStatus) Status(_ context.Context, ev StatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recStatus) kinds() []StatusKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StatusKind, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (s *recStatus) has(kind StatusKind) bool {
	for _, k := range s.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// recEdits applies submitted edits to the store the way an editor would.
type recEdits struct {
	mu    sync.Mutex
	store *memStore
	err   error
	seen  []VersionedEdit
}

func (e *recEdits) Submit(_ context.Context, edit VersionedEdit) error {
	e.mu.Lock()
	e.seen = append(e.seen, edit)
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return err
	}
	doc, ok := e.store.Get(edit.URI)
	if !ok || doc.Version != edit.Version {
		return ErrStaleVersion
	}
	text, err := fix.ApplyText(doc.Text, edit.Edits)
	if err != nil {
		return err
	}
	e.store.put(edit.URI, text, doc.Version+1)
	return nil
}

func (e *recEdits) submitted() []VersionedEdit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]VersionedEdit(nil), e.seen...)
}

type countingLinter struct {
	inner lint.Linter
	calls atomic.Int64
}

func (c *countingLinter) Lint(ctx context.Context, req lint.Request) (lint.Result, error) {
	c.calls.Add(1)
	return c.inner.Lint(ctx, req)
}

type harness struct {
	o      *Orchestrator
	docs   *memStore
	pub    *recPublisher
	status *recStatus
	edits  *recEdits
	client *settings.Client
	cache  *settings.Cache
	linter *countingLinter
}

func newHarness(t *testing.T, l lint.Linter, cfg settings.Config, tweak ...func(*Config)) *harness {
	t.Helper()
	docs := newMemStore()
	h := &harness{
		docs:   docs,
		pub:    &recPublisher{},
		status: &recStatus{},
		edits:  &recEdits{store: docs},
		client: settings.NewClient(cfg),
		linter: &countingLinter{inner: l},
	}
	h.cache = settings.NewCache(h.client)
	c := Config{
		Linter:          h.linter,
		Settings:        h.cache,
		Documents:       h.docs,
		Publisher:       h.pub,
		Status:          h.status,
		Edits:           h.edits,
		RevalidateDelay: 10 * time.Millisecond,
	}
	for _, fn := range tweak {
		fn(&c)
	}
	h.o = New(c)
	t.Cleanup(h.o.Close)
	return h
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDidOpenPublishesDiagnosticsAndFixes(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist", 1)

	if err := h.o.DidOpen(context.Background(), docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	calls := h.pub.forURI(docURI)
	if len(calls) != 2 || len(calls[0].diags) != 0 {
		t.Fatalf("expected clear then publish, got %+v", calls)
	}
	diags := calls[1].diags
	if len(diags) != 1 || diags[0].Code != "alexLintError-1" {
		t.Fatalf("unexpected diagnostics %+v", diags)
	}
	fixes := h.o.Fixes().Get(docURI, diags[0].Code)
	if len(fixes) != 2 || fixes[0].Replacement != "allowlist" {
		t.Fatalf("unexpected fixes %+v", fixes)
	}
	if got := h.status.kinds(); len(got) != 2 || got[0] != StatusLintStart || got[1] != StatusLintEnd {
		t.Fatalf("unexpected status sequence %v", got)
	}
	if h.status.events[1].LastFileName != "notes.md" {
		t.Fatalf("unexpected file name %q", h.status.events[1].LastFileName)
	}
	if h.o.Active() != docURI {
		t.Fatalf("active document not recorded")
	}
}

func TestNewerValidationWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	l := lint.Func(func(_ context.Context, req lint.Request) (lint.Result, error) {
		if req.Text == "first" {
			close(entered)
			<-release
		}
		return lint.Result{Messages: []lint.Message{{Reason: req.Text + ", use `x`", Line: 1, Column: 1}}}, nil
	})
	h := newHarness(t, l, settings.Config{})
	h.docs.put(docURI, "first", 1)

	done := make(chan error, 1)
	go func() {
		_, err := h.o.Validate(context.Background(), docURI, ValidateOptions{})
		done <- err
	}()
	<-entered

	h.docs.put(docURI, "second", 2)
	if _, err := h.o.Validate(context.Background(), docURI, ValidateOptions{}); err != nil {
		t.Fatalf("second validation: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first validation: %v", err)
	}

	var nonEmpty []published
	for _, c := range h.pub.forURI(docURI) {
		if len(c.diags) > 0 {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) != 1 || nonEmpty[0].diags[0].Message != "second" {
		t.Fatalf("stale result published: %+v", nonEmpty)
	}
	if last := h.pub.last(docURI); len(last) != 1 || last[0].Message != "second" {
		t.Fatalf("last publish is not the newest result: %+v", last)
	}
	id, ok := h.o.Tasks().Current(docURI)
	if !ok {
		t.Fatal("no current task")
	}
	if cur, ok := h.o.Tasks().Lookup(id); !ok || cur.Outcome != task.Completed {
		t.Fatalf("unexpected current task %+v", cur)
	}
}

// finishHook runs fn once, after the first completed lint.
type finishHook struct {
	once sync.Once
	fn   func()
}

func (h *finishHook) LintStarted(StatusKind)            {}
func (h *finishHook) DiagnosticsPublished(int)          {}
func (h *finishHook) SweepCompleted(int, time.Duration) {}
func (h *finishHook) FixSubmitted(error)                {}

func (h *finishHook) LintFinished(outcome task.Outcome, _ time.Duration) {
	if outcome == task.Completed {
		h.once.Do(h.fn)
	}
}

func TestFailedNewerValidationLeavesNoStaleResult(t *testing.T) {
	l := lint.Func(func(_ context.Context, req lint.Request) (lint.Result, error) {
		if req.Text == "broken" {
			return lint.Result{}, errors.New("linter crashed")
		}
		return lint.Result{Messages: []lint.Message{{Reason: req.Text + ", use `x`", Line: 1, Column: 1}}}, nil
	})
	hook := &finishHook{}
	h := newHarness(t, l, settings.Config{}, func(c *Config) { c.Metrics = hook })
	hook.fn = func() {
		h.docs.put(docURI, "broken", 2)
		if _, err := h.o.Validate(context.Background(), docURI, ValidateOptions{}); err != nil {
			t.Errorf("second validation: %v", err)
		}
	}
	h.docs.put(docURI, "first", 1)

	if _, err := h.o.Validate(context.Background(), docURI, ValidateOptions{}); err != nil {
		t.Fatalf("first validation: %v", err)
	}
	if !h.status.has(StatusLintError) {
		t.Fatal("second validation did not fail")
	}
	if last := h.pub.last(docURI); len(last) != 0 {
		t.Fatalf("older result outlived the newer validation: %+v", last)
	}
}

func TestCloseAfterCompletionClearsResult(t *testing.T) {
	ctx := context.Background()
	hook := &finishHook{}
	h := newHarness(t, wordlist.New(), settings.Config{}, func(c *Config) { c.Metrics = hook })
	hook.fn = func() {
		h.docs.remove(docURI)
		h.o.DidClose(ctx, docURI)
	}
	h.docs.put(docURI, "our whitelist", 1)

	if err := h.o.DidOpen(ctx, docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	if last := h.pub.last(docURI); len(last) != 0 {
		t.Fatalf("diagnostics survived close: %+v", last)
	}
	if h.o.Fixes().Has(docURI) {
		t.Fatal("fixes survived close")
	}
	if n := h.o.gate.size(); n != 0 {
		t.Fatalf("%d document locks left behind", n)
	}
}

func TestCloseDuringSettingsFetchLeavesNoState(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	cache := settings.NewCache(settings.SourceFunc(func(context.Context, string) (settings.Config, error) {
		close(entered)
		<-release
		return settings.Config{}, nil
	}))
	h := newHarness(t, wordlist.New(), settings.Config{}, func(c *Config) { c.Settings = cache })
	h.docs.put(docURI, "our whitelist", 1)

	done := make(chan error, 1)
	go func() {
		_, err := h.o.Validate(context.Background(), docURI, ValidateOptions{})
		done <- err
	}()
	<-entered
	h.docs.remove(docURI)
	h.o.DidClose(context.Background(), docURI)
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cache.Cached(docURI) {
		t.Fatal("settings of a closed document were cached")
	}
	if _, ok := h.o.Tasks().Current(docURI); ok {
		t.Fatal("closed document kept a task entry")
	}
	if h.linter.calls.Load() != 0 {
		t.Fatal("closed document was linted")
	}
	if last := h.pub.last(docURI); len(last) != 0 {
		t.Fatalf("closed document got diagnostics: %+v", last)
	}
}

func TestUserStrategySkipsLinting(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{Strategy: "user"})
	h.docs.put(docURI, "our whitelist", 1)

	if err := h.o.DidOpen(context.Background(), docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	if n := h.linter.calls.Load(); n != 0 {
		t.Fatalf("linter called %d times", n)
	}
	if got := h.pub.last(docURI); len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}

	h.docs.remove(docURI)
	h.o.DidClose(context.Background(), docURI)
	if h.cache.Cached(docURI) {
		t.Fatal("settings survived close")
	}
	if got := h.pub.forURI(docURI); len(got) != 2 || len(got[1].diags) != 0 {
		t.Fatalf("close did not clear diagnostics: %+v", got)
	}
}

func TestLintErrorIsReportedNotReturned(t *testing.T) {
	l := lint.Func(func(context.Context, lint.Request) (lint.Result, error) {
		return lint.Result{}, errors.New("boom")
	})
	h := newHarness(t, l, settings.Config{})
	h.docs.put(docURI, "text", 1)

	edits, err := h.o.Validate(context.Background(), docURI, ValidateOptions{})
	if err != nil || edits != nil {
		t.Fatalf("expected nil, nil; got %v, %v", edits, err)
	}
	if !h.status.has(StatusLintError) || h.status.has(StatusLintEnd) {
		t.Fatalf("unexpected status sequence %v", h.status.kinds())
	}
	if calls := h.pub.forURI(docURI); len(calls) != 1 || len(calls[0].diags) != 0 {
		t.Fatalf("expected only the initial clear, got %+v", calls)
	}
}

func TestSettingsFailureIsReturned(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{}, func(c *Config) {
		c.Settings = settings.NewCache(settings.SourceFunc(func(context.Context, string) (settings.Config, error) {
			return settings.Config{}, errors.New("client went away")
		}))
	})
	h.docs.put(docURI, "text", 1)

	_, err := h.o.Validate(context.Background(), docURI, ValidateOptions{})
	if !errors.Is(err, settings.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if h.linter.calls.Load() != 0 {
		t.Fatal("linter ran without settings")
	}
}

func TestEventsFollowStrategy(t *testing.T) {
	ctx := context.Background()

	onSave := newHarness(t, wordlist.New(), settings.Config{Strategy: "onSave"})
	onSave.docs.put(docURI, "our whitelist", 1)
	if err := onSave.o.DidChange(ctx, docURI); err != nil {
		t.Fatalf("DidChange: %v", err)
	}
	if onSave.linter.calls.Load() != 0 {
		t.Fatal("onSave linted on change")
	}
	if err := onSave.o.DidSave(ctx, docURI); err != nil {
		t.Fatalf("DidSave: %v", err)
	}
	if onSave.linter.calls.Load() != 1 {
		t.Fatal("onSave did not lint on save")
	}

	onType := newHarness(t, wordlist.New(), settings.Config{})
	onType.docs.put(docURI, "our whitelist", 1)
	if err := onType.o.DidSave(ctx, docURI); err != nil {
		t.Fatalf("DidSave: %v", err)
	}
	if onType.linter.calls.Load() != 0 {
		t.Fatal("onType linted on save")
	}
	if err := onType.o.DidChange(ctx, docURI); err != nil {
		t.Fatalf("DidChange: %v", err)
	}
	if onType.linter.calls.Load() != 1 {
		t.Fatal("onType did not lint on change")
	}
}

func TestApplyFixRejectsEmptyReplacement(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist", 1)
	d := translate.Diagnostic{Code: "alexLintError-1"}

	err := h.o.Applier().ApplyFix(context.Background(), QuickFixRequest{Diagnostic: &d, URI: docURI})
	if !errors.Is(err, ErrInvalidFix) {
		t.Fatalf("expected ErrInvalidFix, got %v", err)
	}
	err = h.o.Applier().ApplyFix(context.Background(), QuickFixRequest{URI: docURI, Replacement: "x"})
	if !errors.Is(err, ErrInvalidFix) {
		t.Fatalf("expected ErrInvalidFix for missing diagnostic, got %v", err)
	}
	if len(h.edits.submitted()) != 0 {
		t.Fatal("invalid fix reached the editor")
	}
}

func TestApplyFixSubmitsAndRevalidatesOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist", 3)
	if err := h.o.DidOpen(ctx, docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	d := h.pub.last(docURI)[0]

	if err := h.o.Applier().ApplyFix(ctx, QuickFixRequest{Diagnostic: &d, URI: docURI, Replacement: "allowlist"}); err != nil {
		t.Fatalf("ApplyFix: %v", err)
	}
	sent := h.edits.submitted()
	if len(sent) != 1 || sent[0].Version != 3 || sent[0].Edits[0].Range != d.Range {
		t.Fatalf("unexpected edits %+v", sent)
	}
	if doc, _ := h.docs.Get(docURI); doc.Text != "our allowlist" {
		t.Fatalf("unexpected text %q", doc.Text)
	}
	if n := h.linter.calls.Load(); n != 2 {
		t.Fatalf("expected exactly one re-validation, linter ran %d times", n)
	}
	if got := h.pub.last(docURI); len(got) != 0 {
		t.Fatalf("fixed document still has diagnostics: %+v", got)
	}
	if !h.status.has(StatusApplyQuickFix) {
		t.Fatal("missing applyQuickFix status")
	}
}

func TestApplyFixEditorRefusal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist", 1)
	if err := h.o.DidOpen(ctx, docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	d := h.pub.last(docURI)[0]
	h.edits.err = ErrEditRejected

	err := h.o.Applier().ApplyFix(ctx, QuickFixRequest{Diagnostic: &d, URI: docURI, Replacement: "allowlist"})
	if !errors.Is(err, ErrEditRejected) {
		t.Fatalf("expected ErrEditRejected, got %v", err)
	}
	if h.linter.calls.Load() != 1 {
		t.Fatal("rejected edit triggered a re-validation")
	}
}

func TestApplyFixOnClosedDocument(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{})
	d := translate.Diagnostic{Code: "alexLintError-1"}
	err := h.o.Applier().ApplyFix(context.Background(), QuickFixRequest{Diagnostic: &d, URI: docURI, Replacement: "x"})
	if !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
}

func TestApplyFixesInFile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist and a blacklist", 1)
	if err := h.o.DidOpen(ctx, docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	diags := h.pub.last(docURI)
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(diags))
	}

	if err := h.o.ExecuteCommand(ctx, FixAllRequest{URI: docURI, Diagnostics: diags}); err != nil {
		t.Fatalf("fix all: %v", err)
	}
	if doc, _ := h.docs.Get(docURI); doc.Text != "our allowlist and a denylist" {
		t.Fatalf("unexpected text %q", doc.Text)
	}
	if sent := h.edits.submitted(); len(sent) != 1 || len(sent[0].Edits) != 2 {
		t.Fatalf("expected one edit with two changes, got %+v", sent)
	}
	if !h.status.has(StatusLintStartFix) {
		t.Fatal("missing lint.start.fix status")
	}
	if got := h.pub.last(docURI); len(got) != 0 {
		t.Fatalf("diagnostics remain after fix all: %+v", got)
	}
}

func TestFormatReturnsEditsAndRevalidates(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist", 1)

	edits, err := h.o.Format(context.Background(), docURI)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(edits) != 1 || edits[0].NewText != "allowlist" {
		t.Fatalf("unexpected edits %+v", edits)
	}
	if calls := h.pub.forURI(docURI); len(calls) != 1 || len(calls[0].diags) != 1 {
		t.Fatalf("format must not clear first: %+v", calls)
	}
	if h.status.kinds()[0] != StatusLintStartFormat {
		t.Fatalf("unexpected first status %v", h.status.kinds()[0])
	}
	eventually(t, "re-validation after format", func() bool { return h.linter.calls.Load() == 2 })
}

func TestFormatWithoutEditsDoesNotRevalidate(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "all good", 1)

	edits, err := h.o.Format(context.Background(), docURI)
	if err != nil || len(edits) != 0 {
		t.Fatalf("unexpected result %v %v", edits, err)
	}
	time.Sleep(50 * time.Millisecond)
	if n := h.linter.calls.Load(); n != 1 {
		t.Fatalf("linter ran %d times", n)
	}
}

func TestConfigBurstTriggersOneSweep(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, wordlist.New(), settings.Config{}, func(c *Config) {
		c.ConfigQuiet = 30 * time.Millisecond
	})
	other := "file:///work/other.md"
	h.docs.put(docURI, "our whitelist", 1)
	h.docs.put(other, "a blacklist", 1)
	for _, uri := range h.docs.URIs() {
		if err := h.o.DidOpen(ctx, uri); err != nil {
			t.Fatalf("DidOpen %s: %v", uri, err)
		}
	}
	h.linter.calls.Store(0)

	for range 5 {
		h.o.ConfigChanged()
		time.Sleep(5 * time.Millisecond)
	}
	eventually(t, "sweep", func() bool { return h.linter.calls.Load() == 2 })
	time.Sleep(80 * time.Millisecond)
	if n := h.linter.calls.Load(); n != 2 {
		t.Fatalf("burst caused %d validations, want 2", n)
	}
}

func TestSweepAppliesNewSettings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, wordlist.New(), settings.Config{}, func(c *Config) {
		c.ConfigQuiet = 10 * time.Millisecond
	})
	h.docs.put(docURI, "our whitelist", 1)
	if err := h.o.DidOpen(ctx, docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	if len(h.pub.last(docURI)) != 1 {
		t.Fatal("expected a diagnostic before the change")
	}

	h.client.Update(settings.Config{Strategy: "user"})
	h.o.ConfigChanged()
	eventually(t, "diagnostics cleared", func() bool {
		calls := h.pub.forURI(docURI)
		return len(calls) == 3 && len(calls[2].diags) == 0
	})
	if h.linter.calls.Load() != 1 {
		t.Fatal("user strategy document was linted during sweep")
	}
}

func TestDidCloseDropsState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist", 1)
	if err := h.o.DidOpen(ctx, docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	h.docs.remove(docURI)
	h.o.DidClose(ctx, docURI)

	if h.o.Fixes().Has(docURI) || h.cache.Cached(docURI) || h.o.Active() != "" {
		t.Fatal("per-document state survived close")
	}
	if _, ok := h.o.Tasks().Current(docURI); ok {
		t.Fatal("task entry survived close")
	}
	if got := h.pub.last(docURI); len(got) != 0 {
		t.Fatalf("close did not clear diagnostics: %+v", got)
	}
}

func TestValidateClosedDocumentPublishesNothing(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{})
	if _, err := h.o.Validate(context.Background(), docURI, ValidateOptions{}); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, c := range h.pub.forURI(docURI) {
		if len(c.diags) != 0 {
			t.Fatalf("closed document got diagnostics: %+v", c)
		}
	}
	if h.linter.calls.Load() != 0 {
		t.Fatal("closed document was linted")
	}
}

func TestCodeActions(t *testing.T) {
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist and a blacklist", 1)
	if err := h.o.DidOpen(context.Background(), docURI); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	diags := h.pub.last(docURI)

	actions := h.o.CodeActions(docURI, diags)
	if len(actions) != 5 {
		t.Fatalf("expected 4 fixes and fix-all, got %d", len(actions))
	}
	if actions[0].Title != "Fix: Change to `allowlist`" || !actions[0].Preferred || actions[1].Preferred {
		t.Fatalf("unexpected first actions %+v %+v", actions[0], actions[1])
	}
	req, ok := actions[0].Request.(QuickFixRequest)
	if !ok || req.Replacement != "allowlist" || req.Diagnostic.Code != diags[0].Code {
		t.Fatalf("unexpected request %+v", actions[0].Request)
	}
	last := actions[len(actions)-1]
	if last.Title != "Fix: all 2 issues in file" || last.Request.Command() != CommandQuickFixFile {
		t.Fatalf("unexpected fix-all action %+v", last)
	}

	if got := h.o.CodeActions(docURI, diags[:1]); len(got) != 2 {
		t.Fatalf("single diagnostic should not offer fix-all, got %d actions", len(got))
	}
}

type unknownRequest struct{}

func (unknownRequest) Command() string { return "alexLinter.nope" }

func TestExecuteCommand(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, wordlist.New(), settings.Config{})
	h.docs.put(docURI, "our whitelist", 1)

	if err := h.o.ExecuteCommand(ctx, LintRequest{URI: docURI}); err != nil {
		t.Fatalf("lint command: %v", err)
	}
	if len(h.pub.last(docURI)) != 1 {
		t.Fatal("lint command did not publish")
	}
	err := h.o.ExecuteCommand(ctx, unknownRequest{})
	if !errors.Is(err, ErrUnknownCommand) || !strings.Contains(err.Error(), "alexLinter.nope") {
		t.Fatalf("unexpected error %v", err)
	}
	if !errors.Is(h.o.ExecuteCommand(ctx, nil), ErrUnknownCommand) {
		t.Fatal("nil request accepted")
	}
}
