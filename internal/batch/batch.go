package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map calls fn for every item and returns the results in input order.
//
// At most limit calls run at once; limit <= 0 means no bound. If any call
// fails, the context passed to the others is cancelled and Map returns the
// first error with a nil result slice.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
