package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ParallelLimit runs every function with at most limit in flight and joins
// the results in the order the functions were given. A limit below one means
// unbounded. The first error cancels the shared context and is returned; no
// partial results are ever returned.
//
// Example:
//
//	jokes, err := ParallelLimit(ctx, 4, Repeat(3, fetch)...)
func ParallelLimit[T any](
	ctx context.Context,
	limit int,
	fns ...func(context.Context) (T, error),
) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]T, len(fns))

	for i, fn := range fns {
		g.Go(func() error {
			result, err := fn(ctx)
			if err != nil {
				return err
			}

			// Each goroutine owns its slot, so the join keeps call order.
			results[i] = result

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("parallel execution failed: %w", err)
	}

	return results, nil
}

// Repeat returns n copies of fn, for fanning the same call out n times.
func Repeat[T any](n int, fn func(context.Context) (T, error)) []func(context.Context) (T, error) {
	if n <= 0 {
		return nil
	}

	fns := make([]func(context.Context) (T, error), n)
	for i := range fns {
		fns[i] = fn
	}

	return fns
}
