// Package batch runs independent, indexed jobs on a bounded pool of workers.
package batch

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Job processes item i. Returning an error cancels the remaining jobs.
type Job func(ctx context.Context, i int) error

// Stats reports how much of a run completed.
type Stats struct {
	Workers   int
	Processed int64
}

// Run executes job for every index in [0, n) using numWorkers goroutines.
//
// Args:
//   - ctx: Context for cancellation.
//   - n: Number of items.
//   - numWorkers: Number of parallel workers (0 = auto-detect based on CPU cores).
//   - job: Function applied to each index.
//
// Returns:
//   - Stats for the run and the first error returned by a job or by ctx.
func Run(ctx context.Context, n, numWorkers int, job Job) (Stats, error) {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > n {
		numWorkers = n
	}

	stats := Stats{Workers: numWorkers}
	if n == 0 {
		return stats, ctx.Err()
	}

	g, ctx := errgroup.WithContext(ctx)
	work := make(chan int, numWorkers*10)

	var processed int64

	// Generate work items
	g.Go(func() error {
		defer close(work)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case work <- i:
			}
		}
		return nil
	})

	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			for i := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := job(ctx, i); err != nil {
					return err
				}
				atomic.AddInt64(&processed, 1)
			}
			return nil
		})
	}

	err := g.Wait()
	stats.Processed = atomic.LoadInt64(&processed)
	return stats, err
}
