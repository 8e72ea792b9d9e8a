// Package cache memoizes lint results on disk, keyed by a digest of the
// request. Linters are pure functions of (text, options), so a hit can be
// returned without calling the linter at all.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"alexls/internal/lint"
)

// Current schema version - increment when payload format changes
const schemaVersion uint16 = 1

// Digest is a sha256 cache key.
type Digest [32]byte

// DiskCache stores lint results as msgpack files. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type payload struct {
	Schema   uint16
	Messages []cachedMessage
}

type cachedMessage struct {
	Reason      string
	Fatal       bool
	HasLocation bool
	StartLine   uint32
	StartCol    uint32
	EndLine     uint32
	EndCol      uint32
	Line        uint32
	Column      uint32
	RuleID      string
	Source      string
	Actual      string
	Expected    []string
}

// Open returns a cache under $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func Open(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app))
}

// OpenDir returns a cache rooted at dir, creating it if needed.
func OpenDir(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// KeyFor digests everything a lint result depends on.
func KeyFor(namespace string, req lint.Request) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(req.LanguageID))
	_, _ = h.Write([]byte{0})
	// the file extension picks markdown/latex handling when no language id is sent
	_, _ = h.Write([]byte(filepath.Ext(req.URI)))
	_, _ = h.Write([]byte{0})
	opts, _ := json.Marshal(req.Options)
	_, _ = h.Write(opts)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(req.Text))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "lint", hexKey[:2], hexKey+".mp")
}

// Put writes res under key, replacing any previous entry atomically.
func (c *DiskCache) Put(key Digest, res lint.Result) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := msgpack.NewEncoder(f).Encode(encodePayload(res)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads the entry for key. A missing entry or one written by another
// schema version is a miss, not an error.
func (c *DiskCache) Get(key Digest) (lint.Result, bool, error) {
	if c == nil {
		return lint.Result{}, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lint.Result{}, false, nil
		}
		return lint.Result{}, false, err
	}
	defer f.Close()

	var p payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return lint.Result{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if p.Schema != schemaVersion {
		return lint.Result{}, false, nil
	}
	return decodePayload(p), true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "lint"))
}

// Dir reports the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func encodePayload(res lint.Result) payload {
	p := payload{
		Schema:   schemaVersion,
		Messages: make([]cachedMessage, 0, len(res.Messages)),
	}
	for _, m := range res.Messages {
		cm := cachedMessage{
			Reason:   m.Reason,
			Fatal:    m.Fatal,
			Line:     narrow(m.Line),
			Column:   narrow(m.Column),
			RuleID:   m.RuleID,
			Source:   m.Source,
			Actual:   m.Actual,
			Expected: m.Expected,
		}
		if m.Location != nil {
			cm.HasLocation = true
			cm.StartLine = narrow(m.Location.Start.Line)
			cm.StartCol = narrow(m.Location.Start.Column)
			cm.EndLine = narrow(m.Location.End.Line)
			cm.EndCol = narrow(m.Location.End.Column)
		}
		p.Messages = append(p.Messages, cm)
	}
	return p
}

func decodePayload(p payload) lint.Result {
	res := lint.Result{Messages: make([]lint.Message, 0, len(p.Messages))}
	for _, cm := range p.Messages {
		m := lint.Message{
			Reason:   cm.Reason,
			Fatal:    cm.Fatal,
			Line:     int(cm.Line),
			Column:   int(cm.Column),
			RuleID:   cm.RuleID,
			Source:   cm.Source,
			Actual:   cm.Actual,
			Expected: cm.Expected,
		}
		if cm.HasLocation {
			m.Location = &lint.Location{
				Start: lint.Position{Line: int(cm.StartLine), Column: int(cm.StartCol)},
				End:   lint.Position{Line: int(cm.EndLine), Column: int(cm.EndCol)},
			}
		}
		res.Messages = append(res.Messages, m)
	}
	return res
}

const maxUint32 = ^uint32(0)

// narrow converts a linter position to uint32; negatives become 0 (absent).
func narrow(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// Stats counts cache lookups.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Linter wraps another linter with a disk cache.
type Linter struct {
	inner     lint.Linter
	cache     *DiskCache
	namespace string
	onError   func(error)
	hits      atomic.Uint64
	misses    atomic.Uint64
}

var _ lint.Linter = (*Linter)(nil)

// Wrap returns inner backed by c. namespace must change whenever the inner
// linter's behaviour does (for example its rule table version).
func Wrap(inner lint.Linter, c *DiskCache, namespace string, onError func(error)) *Linter {
	return &Linter{inner: inner, cache: c, namespace: namespace, onError: onError}
}

// Lint returns a cached result when one exists; otherwise it runs the inner
// linter and stores a successful result. Cache I/O failures never fail a lint.
func (l *Linter) Lint(ctx context.Context, req lint.Request) (lint.Result, error) {
	key := KeyFor(l.namespace, req)
	if res, ok, err := l.cache.Get(key); err != nil {
		l.report(err)
	} else if ok {
		l.hits.Add(1)
		return res, nil
	}
	l.misses.Add(1)
	res, err := l.inner.Lint(ctx, req)
	if err != nil {
		return lint.Result{}, err
	}
	if err := l.cache.Put(key, res); err != nil {
		l.report(err)
	}
	return res, nil
}

// Stats reports hit and miss counts since construction.
func (l *Linter) Stats() Stats {
	return Stats{Hits: l.hits.Load(), Misses: l.misses.Load()}
}

func (l *Linter) report(err error) {
	if l.onError != nil {
		l.onError(err)
	}
}
