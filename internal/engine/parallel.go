package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runParallel calls fn for each uri with at most jobs calls in flight.
// Failures are fn's to report; one document never stops the others.
func runParallel(ctx context.Context, uris []string, jobs int, fn func(ctx context.Context, uri string)) {
	if len(uris) == 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(uris)))
	for _, uri := range uris {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fn(gctx, uri)
			return nil
		})
	}
	_ = g.Wait()
}
