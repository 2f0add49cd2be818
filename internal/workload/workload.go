package workload

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result captures execution summary.
type Result struct {
	Total    int64
	Errors   int64
	Duration time.Duration
}

// Runner drives a Probe from one worker goroutine per stream.
type Runner struct {
	opt     Options
	arrival arrivalController

	completed atomic.Int64
	errors    atomic.Int64
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, arrival: newArrivalController(opt)}
}

// Progress returns the iterations completed and failed so far. It is safe to
// call while Run is in progress.
func (r *Runner) Progress() (completed, errors int64) {
	return r.completed.Load(), r.errors.Load()
}

func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.opt.Duration > 0 {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, r.opt.Duration)
		ctx = deadlineCtx
		defer deadlineCancel()
	}

	// The scheduler hands out iteration ids; pacing is serialized here so
	// workers never burst past the configured rate.
	ids := make(chan uint64, r.opt.Streams)
	go func() {
		defer close(ids)
		for issued := uint64(0); ; issued++ {
			if r.opt.Iterations > 0 && issued >= uint64(r.opt.Iterations) {
				return
			}
			if err := r.arrival.Wait(ctx); err != nil {
				return
			}
			select {
			case ids <- issued:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Streams)
	for stream := 0; stream < r.opt.Streams; stream++ {
		go func() {
			defer wg.Done()
			for id := range ids {
				if ctx.Err() != nil {
					return
				}
				if r.opt.Probe != nil {
					if err := r.opt.Probe.Do(ctx, stream, id); err != nil {
						r.errors.Add(1)
						r.opt.Logger.Debug("iteration failed", "stream", stream, "id", id, "error", err)
					}
				}
				r.completed.Add(1)
			}
		}()
	}
	wg.Wait()

	result := Result{
		Total:    r.completed.Load(),
		Errors:   r.errors.Load(),
		Duration: time.Since(start),
	}
	r.opt.Logger.Info("workload finished",
		"iterations", result.Total,
		"errors", result.Errors,
		"duration", result.Duration,
	)
	return result
}
