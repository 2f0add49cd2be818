package clock

import "math/bits"

// ticksToInstant converts a cycle count into seconds and nanoseconds at hz.
func ticksToInstant(ticks, hz uint64) Instant {
	sec := ticks / hz
	rem := ticks % hz
	// rem < hz, so the high word of rem*1e9 is always below hz.
	hi, lo := bits.Mul64(rem, uint64(nanosPerSecond))
	nsec, _ := bits.Div64(hi, lo, hz)
	return Instant{Sec: int64(sec), Nsec: int64(nsec)}
}
