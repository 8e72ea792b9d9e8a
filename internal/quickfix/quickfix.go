// Package quickfix keeps the replacement candidates offered for each
// diagnostic of an open document.
package quickfix

import (
	"sort"
	"sync"
)

// Fix is one replacement candidate for a diagnostic.
type Fix struct {
	Code        string
	Label       string
	Replacement string
}

// LabelFor returns the label shown for a replacement.
func LabelFor(replacement string) string {
	return "Change to `" + replacement + "`"
}

// Set maps a diagnostic code to its candidates, in suggestion order.
type Set map[string][]Fix

// Add appends a candidate for code.
func (s Set) Add(code, replacement string) {
	s[code] = append(s[code], Fix{Code: code, Label: LabelFor(replacement), Replacement: replacement})
}

// Codes lists codes in sorted order.
func (s Set) Codes() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Registry holds the current Set per document uri. Sets are replaced
// wholesale, never merged. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]Set
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]Set)}
}

// Set installs set for uri, discarding whatever was there. An empty set
// still replaces the previous one.
func (r *Registry) Set(uri string, set Set) {
	cp := make(Set, len(set))
	for code, fixes := range set {
		cp[code] = append([]Fix(nil), fixes...)
	}
	r.mu.Lock()
	r.sets[uri] = cp
	r.mu.Unlock()
}

// Get returns the candidates registered for code in uri.
func (r *Registry) Get(uri, code string) []Fix {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fixes := r.sets[uri][code]
	if len(fixes) == 0 {
		return nil
	}
	return append([]Fix(nil), fixes...)
}

// Has reports whether uri has a set installed.
func (r *Registry) Has(uri string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sets[uri]
	return ok
}

// Delete drops the set for uri.
func (r *Registry) Delete(uri string) {
	r.mu.Lock()
	delete(r.sets, uri)
	r.mu.Unlock()
}
