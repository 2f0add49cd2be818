package workload

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Probe runs one iteration on a stream. Each worker calls Do only with its
// own stream index; id is unique across the whole run.
type Probe interface {
	Do(ctx context.Context, stream int, id uint64) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context, stream int, id uint64) error

// Do calls f.
func (f ProbeFunc) Do(ctx context.Context, stream int, id uint64) error {
	return f(ctx, stream, id)
}

// ArrivalModel selects how iterations are spaced in time.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Options configure the Runner.
type Options struct {
	Streams        int                         // number of workers, one per stream
	Iterations     int                         // total iterations across all streams (0 means until duration/cancel)
	Duration       time.Duration               // overall time limit (0 means no duration cap)
	RatePerSecond  int                         // iterations per second pacing (0 means unlimited)
	ArrivalModel   ArrivalModel                // uniform (default) or poisson
	RandomSeed     int64                       // seed for the poisson sampler
	PoissonSampler func() float64              // optional injection for tests
	Probe          Probe                       // iteration executor (required)
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	Logger         *slog.Logger
}

func (o *Options) normalize() {
	if o.Streams <= 0 {
		o.Streams = 1
	}
	if o.Iterations < 0 {
		o.Iterations = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}
