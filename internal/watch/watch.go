// Package watch reports changes to workspace configuration files.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher watches directories for create, write, remove and rename
// events on a fixed set of file names. Directories are watched rather than
// files because editors commonly save by renaming a temporary file over the
// original.
type ConfigWatcher struct {
	names  map[string]struct{}
	notify func(path string)
	log    *slog.Logger

	watcher *fsnotify.Watcher

	mu       sync.Mutex
	dirs     map[string]struct{}
	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// New returns a watcher calling notify with the path of every changed file
// whose base name is one of names. notify runs on the watcher goroutine.
func New(names []string, notify func(path string), log *slog.Logger) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &ConfigWatcher{
		names:   set,
		notify:  notify,
		log:     log.With("component", "watch"),
		watcher: w,
		dirs:    make(map[string]struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start processes events until ctx is done or Stop is called.
func (w *ConfigWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
}

// Watch adds dir to the watch list. Adding a directory twice is a no-op.
func (w *ConfigWatcher) Watch(dir string) error {
	dir = filepath.Clean(dir)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.dirs[dir] = struct{}{}
	return nil
}

// WatchAncestors watches the directory of file and every directory above
// it, matching the upward search used to find a config file. Directories
// that cannot be watched are skipped.
func (w *ConfigWatcher) WatchAncestors(file string) {
	dir := filepath.Dir(file)
	for {
		if err := w.Watch(dir); err != nil {
			w.log.Debug("not watching directory", "dir", dir, "err", err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// Dirs returns the number of watched directories.
func (w *ConfigWatcher) Dirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

// Stop ends the event loop and releases the underlying watcher.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
	w.wg.Wait()
}

func (w *ConfigWatcher) loop(ctx context.Context) {
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&relevant == 0 {
				continue
			}
			if _, ok := w.names[filepath.Base(ev.Name)]; !ok {
				continue
			}
			w.log.Info("configuration file changed", "path", ev.Name, "op", ev.Op.String())
			w.notify(ev.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}
