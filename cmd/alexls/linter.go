package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"alexls/internal/lint"
	"alexls/internal/lint/cache"
	"alexls/internal/lint/wordlist"
	"alexls/internal/version"
)

const cacheApp = "alexls"

// buildLinter returns the word-list linter, wrapped in the disk cache unless
// --no-cache is set. A cache that cannot be opened is logged and skipped.
// The second result is nil when no cache is in use.
func buildLinter(cmd *cobra.Command, log *slog.Logger) (lint.Linter, *cache.Linter, error) {
	flags := cmd.Root().PersistentFlags()
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	cacheDir, err := flags.GetString("cache-dir")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}

	base := wordlist.New()
	if noCache {
		return base, nil, nil
	}
	var dc *cache.DiskCache
	if cacheDir != "" {
		dc, err = cache.OpenDir(cacheDir)
	} else {
		dc, err = cache.Open(cacheApp)
	}
	if err != nil {
		log.Warn("lint cache disabled", "err", err)
		return base, nil, nil
	}
	log.Debug("lint cache", "dir", dc.Dir())
	cached := cache.Wrap(base, dc, "wordlist@"+version.Current().Version, func(err error) {
		log.Debug("lint cache error", "err", err)
	})
	return cached, cached, nil
}
