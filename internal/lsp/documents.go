package lsp

import (
	"sort"
	"sync"

	"alexls/internal/engine"
)

// Documents is the server's view of open documents. It is updated on the
// read loop before any validation is dispatched, so a validation always
// sees text at least as new as the event that triggered it.
type Documents struct {
	mu   sync.RWMutex
	docs map[string]engine.Document
}

// NewDocuments returns an empty store.
func NewDocuments() *Documents {
	return &Documents{docs: make(map[string]engine.Document)}
}

// Open records a newly opened document.
func (d *Documents) Open(doc engine.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[doc.URI] = doc
}

// Change applies incremental changes and records version. It reports false
// for a document that is not open.
func (d *Documents) Change(uri string, version int, changes []textDocumentContentChangeEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[uri]
	if !ok {
		return false
	}
	doc.Text = applyChanges(doc.Text, changes)
	doc.Version = version
	d.docs[uri] = doc
	return true
}

// Save replaces the text when the client included it.
func (d *Documents) Save(uri string, text *string) {
	if text == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if doc, ok := d.docs[uri]; ok {
		doc.Text = *text
		d.docs[uri] = doc
	}
}

// Close forgets uri.
func (d *Documents) Close(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.docs, uri)
}

// Get implements engine.DocumentStore.
func (d *Documents) Get(uri string) (engine.Document, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.docs[uri]
	return doc, ok
}

// URIs implements engine.DocumentStore. The result is sorted.
func (d *Documents) URIs() []string {
	d.mu.RLock()
	out := make([]string, 0, len(d.docs))
	for uri := range d.docs {
		out = append(out, uri)
	}
	d.mu.RUnlock()
	sort.Strings(out)
	return out
}
