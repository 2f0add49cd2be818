package clock

import (
	_ "unsafe" // required for go:linkname
)

// runtimeNanoTime is the clock behind time.Now's monotonic reading
// (CLOCK_MONOTONIC through the vDSO on Linux).
//
//go:linkname runtimeNanoTime runtime.nanotime
func runtimeNanoTime() int64

func monotonicNow() Instant {
	ns := runtimeNanoTime()
	return Instant{Sec: ns / nanosPerSecond, Nsec: ns % nanosPerSecond}
}
