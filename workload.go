package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Caller is anything that performs one rate limited call
// and reports whether it was admitted, like LoadHarness.
type Caller interface {
	Call() bool
}

// WorkloadConfig holds the configuration of a concurrent load run.
type WorkloadConfig struct {
	// Workers is the number of independent goroutines issuing calls.
	Workers int

	// CallsPerWorker is the number of calls each worker issues.
	CallsPerWorker int

	// MaxPause bounds the random pause a worker takes after each call.
	// Pauses are drawn uniformly in [0, MaxPause). Zero disables pausing.
	MaxPause time.Duration

	// SleepFunc can be overridden to allow for easier testing.
	SleepFunc func(ctx context.Context, d time.Duration)

	// you can pass your custom logger if you'd like to
	// but it's not required
	Logger Logger
}

// WorkloadResult summarizes a load run.
type WorkloadResult struct {
	Calls    uint64
	Admitted uint64
	Rejected uint64
	Elapsed  time.Duration
}

// RunWorkload spawns the configured workers against caller and waits for
// all of them to finish. Workers don't coordinate: a rejected call is simply
// counted and the worker moves on.
//
// If ctx is cancelled workers stop before their next call and
// the partial result is returned together with ctx.Err().
func RunWorkload(ctx context.Context, caller Caller, config *WorkloadConfig) (WorkloadResult, error) {
	if caller == nil {
		return WorkloadResult{}, invalidConfiguration("caller", "is required")
	}
	if config == nil {
		return WorkloadResult{}, invalidConfiguration("config", "is required")
	}
	if config.Workers <= 0 {
		return WorkloadResult{}, invalidConfiguration("Workers", "should be positive (given: %v)", config.Workers)
	}
	if config.CallsPerWorker < 0 {
		return WorkloadResult{}, invalidConfiguration("CallsPerWorker", "should be zero or positive (given: %v)", config.CallsPerWorker)
	}
	if config.MaxPause < 0 {
		return WorkloadResult{}, invalidConfiguration("MaxPause", "should be zero or positive (given: %v)", config.MaxPause)
	}

	logger := effectiveLogger(config.Logger)
	sleep := config.SleepFunc
	if sleep == nil {
		sleep = sleepContext
	}

	var admitted, rejected atomic.Uint64

	logger.Info(fmt.Sprintf("starting %d workers issuing %d calls each", config.Workers, config.CallsPerWorker))
	started := time.Now()

	var wg sync.WaitGroup
	for n := 0; n < config.Workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := 0; i < config.CallsPerWorker; i++ {
				if ctx.Err() != nil {
					return
				}

				if caller.Call() {
					admitted.Add(1)
				} else {
					rejected.Add(1)
				}

				if config.MaxPause > 0 {
					sleep(ctx, rand.N(config.MaxPause))
				}
			}
		}()
	}
	wg.Wait()

	out := WorkloadResult{
		Admitted: admitted.Load(),
		Rejected: rejected.Load(),
		Elapsed:  time.Since(started),
	}
	out.Calls = out.Admitted + out.Rejected

	logger.Info(fmt.Sprintf("workload completed in %v: %d calls, %d admitted, %d rejected",
		out.Elapsed, out.Calls, out.Admitted, out.Rejected))

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("workload interrupted after %d calls: %w", out.Calls, err)
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
