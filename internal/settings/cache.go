package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrFetch marks a configuration fetch or validation failure.
var ErrFetch = errors.New("settings fetch failed")

// Source supplies raw configuration for a document.
type Source interface {
	Fetch(ctx context.Context, uri string) (Config, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, uri string) (Config, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, uri string) (Config, error) {
	return f(ctx, uri)
}

// Cache memoizes resolved settings per document uri until invalidated.
// Concurrent misses for the same uri share one fetch.
type Cache struct {
	src Source

	mu       sync.Mutex
	entries  map[string]Settings
	inflight map[string]struct{}
	epoch    uint64

	group singleflight.Group
}

// NewCache returns a cache over src.
func NewCache(src Source) *Cache {
	return &Cache{
		src:      src,
		entries:  make(map[string]Settings),
		inflight: make(map[string]struct{}),
	}
}

// Get returns memoized settings for uri, fetching them on a miss. Errors are
// wrapped with ErrFetch and nothing is cached.
func (c *Cache) Get(ctx context.Context, uri string) (Settings, error) {
	c.mu.Lock()
	if s, ok := c.entries[uri]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(uri, func() (any, error) {
		c.mu.Lock()
		if s, ok := c.entries[uri]; ok {
			c.mu.Unlock()
			return s, nil
		}
		epoch := c.epoch
		c.inflight[uri] = struct{}{}
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, uri)
			c.mu.Unlock()
		}()

		cfg, err := c.src.Fetch(ctx, uri)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %s: %w", ErrFetch, uri, err)
		}
		s, err := cfg.Resolve()
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %s: %w", ErrFetch, uri, err)
		}

		c.mu.Lock()
		// an invalidation raced the fetch; hand out the result but do not keep it
		if c.epoch == epoch {
			c.entries[uri] = s
		}
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return Settings{}, err
	}
	return v.(Settings), nil
}

// Cached reports whether uri currently has a memoized entry.
func (c *Cache) Cached(uri string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[uri]
	return ok
}

// Invalidate drops the entry for uri.
func (c *Cache) Invalidate(uri string) {
	c.mu.Lock()
	delete(c.entries, uri)
	c.epoch++
	c.mu.Unlock()
	c.group.Forget(uri)
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	uris := make([]string, 0, len(c.entries)+len(c.inflight))
	for uri := range c.entries {
		uris = append(uris, uri)
	}
	for uri := range c.inflight {
		uris = append(uris, uri)
	}
	c.entries = make(map[string]Settings)
	c.epoch++
	c.mu.Unlock()
	for _, uri := range uris {
		c.group.Forget(uri)
	}
}
