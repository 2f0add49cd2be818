package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// ProgressSnapshot is a point-in-time view of a running workload.
type ProgressSnapshot struct {
	Iterations int64
	Errors     int64
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	snapshot func() ProgressSnapshot
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. snapshot is called from the reporter goroutine and must be safe
// for concurrent use.
func NewProgressReporter(snapshot func() ProgressSnapshot, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		snapshot: snapshot,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, progressLine(p.snapshot(), time.Since(p.start)))
		case <-p.done:
			return
		}
	}
}

func progressLine(s ProgressSnapshot, elapsed time.Duration) string {
	rate := 0.0
	if elapsed > 0 {
		rate = float64(s.Iterations) / elapsed.Seconds()
	}
	return fmt.Sprintf("\rIterations: %d | Errors: %d | Rate: %.1f/s", s.Iterations, s.Errors, rate)
}
