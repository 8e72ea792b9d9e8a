package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"alexls/internal/engine"
	"alexls/internal/fix"
	"alexls/internal/translate"
	"alexls/internal/ui"
)

// workspace stands in for an editor: files read from disk are its open
// documents, published diagnostics are kept per document, and submitted
// edits are applied in memory.
type workspace struct {
	progress ui.ChannelSink

	mu     sync.Mutex
	docs   map[string]engine.Document
	paths  map[string]string
	diags  map[string][]translate.Diagnostic
	failed map[string]bool
}

var (
	_ engine.DocumentStore = (*workspace)(nil)
	_ engine.Publisher     = (*workspace)(nil)
	_ engine.StatusSink    = (*workspace)(nil)
	_ engine.EditSubmitter = (*workspace)(nil)
)

func newWorkspace() *workspace {
	return &workspace{
		docs:   make(map[string]engine.Document),
		paths:  make(map[string]string),
		diags:  make(map[string][]translate.Diagnostic),
		failed: make(map[string]bool),
	}
}

// load reads path and opens it at version 1. It returns the document URI.
func (w *workspace) load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	uri, err := fileURI(path)
	if err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[uri] = engine.Document{URI: uri, Version: 1, Text: string(data)}
	w.paths[uri] = path
	return uri, nil
}

func (w *workspace) Get(uri string) (engine.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[uri]
	return doc, ok
}

func (w *workspace) URIs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.docs))
	for uri := range w.docs {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

func (w *workspace) Publish(_ context.Context, uri string, diagnostics []translate.Diagnostic) error {
	w.mu.Lock()
	w.diags[uri] = diagnostics
	w.mu.Unlock()
	return nil
}

func (w *workspace) Status(_ context.Context, ev engine.StatusEvent) {
	switch ev.Kind {
	case engine.StatusLintStart, engine.StatusLintStartFix, engine.StatusLintStartFormat:
		w.mu.Lock()
		delete(w.failed, ev.URI)
		w.mu.Unlock()
		w.progress.Report(ui.Event{File: w.path(ev.URI), Status: ui.StatusLinting})
	case engine.StatusLintError:
		w.mu.Lock()
		w.failed[ev.URI] = true
		w.mu.Unlock()
	}
}

// Submit applies edit to the in-memory text when it targets the current
// version, bumping the version as an editor would.
func (w *workspace) Submit(_ context.Context, edit engine.VersionedEdit) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[edit.URI]
	if !ok || doc.Version != edit.Version {
		return fmt.Errorf("%w: %s version %d", engine.ErrStaleVersion, edit.URI, edit.Version)
	}
	text, err := fix.ApplyText(doc.Text, edit.Edits)
	if err != nil {
		return fmt.Errorf("%w: %w", engine.ErrEditRejected, err)
	}
	doc.Text = text
	doc.Version++
	w.docs[edit.URI] = doc
	return nil
}

// result returns the diagnostics last published for uri and whether the
// last lint of it failed.
func (w *workspace) result(uri string) ([]translate.Diagnostic, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.diags[uri], w.failed[uri]
}

func (w *workspace) path(uri string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paths[uri]
}

func fileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	slashed := filepath.ToSlash(abs)
	if len(slashed) > 0 && slashed[0] != '/' {
		slashed = "/" + slashed
	}
	u := url.URL{Scheme: "file", Path: slashed}
	return u.String(), nil
}
