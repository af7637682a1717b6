// Package supervisor runs a planned case sequence concurrently with a
// bounded worker budget, propagates a global cancel, and implements
// advisory fast-fail cancellation of not-yet-started non-flaky cases.
//
// The worker-pool shape — a bounded number of goroutines draining shared
// work, fanning results into a shared slice, with fail-fast handled by
// gating not-yet-scheduled work rather than pre-empting in-flight work —
// mirrors a common parallel scenario-runner pattern. The fast-fail check is
// evaluated once, immediately before a case would start, and never cancels
// a case already running.
package supervisor

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"matrixrunner/internal/matrix"
	"matrixrunner/pkg/logging"
)

// Executor runs one case to completion and returns its Result. It never
// returns an error: per-case failures are represented as Failed results.
type Executor interface {
	Execute(ctx context.Context, c matrix.Case) matrix.Result
}

// Run schedules cases with at most workerBudget concurrently in flight.
// ctx carries the global cancel signal: if it is cancelled, every case not
// yet complete yields Skipped and Run returns promptly once all in-flight
// children have been reaped.
func Run(ctx context.Context, cases []matrix.Case, workerBudget int, exec Executor) []matrix.Result {
	if workerBudget < 1 {
		workerBudget = 1
	}

	sem := semaphore.NewWeighted(int64(workerBudget))
	var fastFail atomic.Bool

	results := make([]matrix.Result, len(cases))
	var g errgroup.Group

	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			results[i] = runOne(ctx, sem, &fastFail, exec, c)
			return nil
		})
	}

	g.Wait()
	return results
}

func runOne(ctx context.Context, sem *semaphore.Weighted, fastFail *atomic.Bool, exec Executor, c matrix.Case) matrix.Result {
	if err := sem.Acquire(ctx, 1); err != nil {
		return matrix.NewSkipped(c)
	}
	defer sem.Release(1)

	if ctx.Err() != nil {
		return matrix.NewSkipped(c)
	}

	isFlaky := c.IsFlaky(runtime.GOOS)
	if fastFail.Load() && !isFlaky {
		logging.Info("supervisor", "skipping case %s: fast-fail active", c.Name)
		return matrix.NewSkipped(c)
	}

	res := safeExecute(ctx, exec, c)

	if ctx.Err() != nil && res.Kind != matrix.Passed {
		return matrix.NewSkipped(c)
	}

	if res.Kind == matrix.Failed && !isFlaky {
		fastFail.Store(true)
		logging.Warn("supervisor", "case %s failed, fast-fail engaged for pending non-flaky cases", c.Name)
	}

	return res
}

// safeExecute recovers a panicking executor so that the result sequence
// remains total: one Result per scheduled case, even if a worker crashes.
func safeExecute(ctx context.Context, exec Executor, c matrix.Case) (res matrix.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = matrix.NewFailed(c, matrix.ReasonBuildFailed, fmt.Sprintf("internal error: %v", r), 0)
		}
	}()
	return exec.Execute(ctx, c)
}
