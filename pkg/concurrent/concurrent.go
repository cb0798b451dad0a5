package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs action for every item with at most limit goroutines in flight
// (no bound when limit <= 0). The first error cancels the context handed to
// the remaining actions and is returned once all started actions finished.
func ForEach[T any](ctx context.Context, items []T, limit int, action func(context.Context, T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return action(gctx, item)
		})
	}
	return g.Wait()
}

// GroupBy splits items into buckets keyed by key, keeping the original order
// inside each bucket and the order of first appearance across buckets.
func GroupBy[T any, K comparable](items []T, key func(T) K) [][]T {
	index := make(map[K]int)
	var out [][]T
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], item)
	}
	return out
}
