// Package driver runs the concurrent demo workload and reports limiter
// occupancy while it runs.
package driver

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	sgctx "github.com/vnykmshr/slidegate/pkg/common/context"
)

// Task is one unit of demo work. n is the worker number, starting at 1.
type Task func(ctx context.Context, n int) error

// Result is the outcome of one worker.
type Result struct {
	Worker   int
	Err      error
	Duration time.Duration
}

// Summary aggregates the results of a Run.
type Summary struct {
	Results []Result
	Elapsed time.Duration
}

// Failed returns the results that ended in an error.
func (s Summary) Failed() []Result {
	var failed []Result
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Run starts workers goroutines at once, each running task a single time,
// and waits for all of them. A panicking task is reported as a failure.
func Run(ctx context.Context, workers int, task Task, logger zerolog.Logger) Summary {
	start := time.Now()
	results := make([]Result, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n-1] = execute(ctx, n, task)
		}(i + 1)
	}
	wg.Wait()

	summary := Summary{Results: results, Elapsed: time.Since(start)}
	logger.Info().
		Int("workers", workers).
		Int("failed", len(summary.Failed())).
		Dur("elapsed", summary.Elapsed).
		Bool("canceled", sgctx.IsCanceled(ctx)).
		Msg("workload finished")
	return summary
}

func execute(ctx context.Context, n int, task Task) (res Result) {
	start := time.Now()
	res.Worker = n

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("worker %d panicked: %v\n%s", n, r, debug.Stack())
		}
		res.Duration = time.Since(start)
	}()

	res.Err = task(ctx, n)
	return res
}
