package chunked

import (
	"context"

	"github.com/hupe1980/chunkstore/resource"
	"golang.org/x/sync/errgroup"
)

// ParallelForEachView runs f on every chunk view of [start, start+count)
// concurrently. Each call holds one of ctrl's background slots, so arrays
// sharing a controller share its parallelism; a nil ctrl runs one view at a
// time. Views do not overlap, so f may write through its view. The first
// error cancels the remaining calls and is returned.
//
// The array must not be mutated structurally while this runs.
func (a *Array[T]) ParallelForEachView(ctx context.Context, ctrl *resource.Controller, start, count int, f func(ctx context.Context, start int, view []T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(ctrl.Workers()))

	a.ForEachView(start, count, func(s int, view []T) {
		g.Go(func() error {
			if err := ctrl.AcquireBackground(gctx); err != nil {
				return err
			}
			defer ctrl.ReleaseBackground()
			return f(gctx, s, view)
		})
	})
	return g.Wait()
}
