package workload

import (
	"context"
	"time"

	"github.com/torosent/rtperf/internal/tag"
)

// Recorder is the part of a store a probe writes to. *store.Session
// satisfies it.
type Recorder interface {
	Append(t tag.ID, id uint64, stream int) error
}

// SleepProbe records the start tag of Pair, performs Work worth of waiting
// and records the end tag with the same id on the worker's stream.
type SleepProbe struct {
	Recorder Recorder
	Pair     tag.Pair
	Work     time.Duration
	// Spin busy-waits instead of sleeping, for work shorter than the
	// scheduler's timer resolution.
	Spin bool
}

// Do implements Probe. A full store is reported as an error; the end tag is
// still attempted so the store's rejection counter reflects both entries.
func (p SleepProbe) Do(ctx context.Context, stream int, id uint64) error {
	startErr := p.Recorder.Append(p.Pair.Start, id, stream)
	if err := p.work(ctx); err != nil {
		return err
	}
	if err := p.Recorder.Append(p.Pair.End, id, stream); err != nil {
		return err
	}
	return startErr
}

func (p SleepProbe) work(ctx context.Context) error {
	if p.Work <= 0 {
		return nil
	}
	if p.Spin {
		deadline := time.Now().Add(p.Work)
		for time.Now().Before(deadline) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return nil
	}

	timer := time.NewTimer(p.Work)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
