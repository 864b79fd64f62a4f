package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultConcurrency is the default number of concurrent workers
const DefaultConcurrency = 4

// DefaultRate caps bulk requests per second.
const DefaultRate = 5.0

// BulkResult is the outcome of one operation in a bulk run.
type BulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type bulkOptions struct {
	Concurrency int64
	Rate        float64
	Progress    io.Writer
}

// runBulkOperation runs operation for every id with bounded parallelism and a
// shared request rate. Results come back in input order. One failure does
// not stop the others; cancellation does.
func runBulkOperation[T any](ctx context.Context, ids []string, opts bulkOptions, operation func(ctx context.Context, id string) (T, error)) []BulkResult {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	sem := semaphore.NewWeighted(opts.Concurrency)
	limiter := rate.NewLimiter(rate.Limit(opts.Rate), 1)

	var mu sync.Mutex
	byIndex := make(map[int]BulkResult, len(ids))
	total := len(ids)
	var done int64

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)
			if err := limiter.Wait(gctx); err != nil {
				return nil
			}

			data, err := operation(gctx, id)

			r := BulkResult{ID: id, Success: err == nil}
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Data = data
			}
			mu.Lock()
			byIndex[i] = r
			mu.Unlock()

			n := atomic.AddInt64(&done, 1)
			_, _ = fmt.Fprintf(progress, "\r[%d/%d] done", n, total)
			return nil
		})
	}
	_ = g.Wait()
	if total > 0 {
		_, _ = fmt.Fprintln(progress)
	}

	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	results := make([]BulkResult, 0, len(indexes))
	for _, i := range indexes {
		results = append(results, byIndex[i])
	}
	return results
}

// countResults returns success and failure counts
func countResults(results []BulkResult) (success, failed int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
		}
	}
	return success, failed
}
