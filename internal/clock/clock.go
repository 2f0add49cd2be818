// Package clock provides the timestamp type recorded by the event store and
// the clock sources that produce it.
//
// An [Instant] is a seconds+nanoseconds pair. The same type is used for
// differences between two instants, so a value returned by [Elapsed] may
// carry a negative seconds part with a positive nanosecond remainder.
package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const nanosPerSecond = int64(time.Second)

var (
	// ErrUnsupportedStrategy is returned when a strategy is unknown or not
	// available on the current platform.
	ErrUnsupportedStrategy = errors.New("clock strategy not supported on this platform")
	// ErrMissingFrequency is returned when the cycle counter is selected
	// without a calibrated frequency.
	ErrMissingFrequency = errors.New("cycle counter requires a frequency in Hz")
)

// Instant is a timestamp (or a difference of timestamps) in seconds and
// nanoseconds. Nsec is kept in [0, 1e9) by every function in this package.
type Instant struct {
	Sec  int64
	Nsec int64
}

// FromDuration converts d into an Instant measured from zero.
func FromDuration(d time.Duration) Instant {
	sec := int64(d / time.Second)
	nsec := int64(d % time.Second)
	if nsec < 0 {
		sec--
		nsec += nanosPerSecond
	}
	return Instant{Sec: sec, Nsec: nsec}
}

// Nanoseconds returns the total value in nanoseconds.
func (i Instant) Nanoseconds() int64 {
	return i.Sec*nanosPerSecond + i.Nsec
}

// Duration converts the instant into a time.Duration measured from zero.
func (i Instant) Duration() time.Duration {
	return time.Duration(i.Nanoseconds())
}

// IsZero reports whether both parts are zero.
func (i Instant) IsZero() bool {
	return i.Sec == 0 && i.Nsec == 0
}

// String formats the instant as seconds.nanoseconds with nine fractional
// digits. Negative values are printed with a leading minus sign.
func (i Instant) String() string {
	if i.Sec < 0 {
		return "-" + Elapsed(i, Instant{}).String()
	}
	return fmt.Sprintf("%d.%09d", i.Sec, i.Nsec)
}

// Elapsed returns end - start, borrowing one second when the nanosecond
// difference is negative.
func Elapsed(start, end Instant) Instant {
	if end.Nsec-start.Nsec < 0 {
		return Instant{
			Sec:  end.Sec - start.Sec - 1,
			Nsec: nanosPerSecond + end.Nsec - start.Nsec,
		}
	}
	return Instant{
		Sec:  end.Sec - start.Sec,
		Nsec: end.Nsec - start.Nsec,
	}
}

// Compare returns -1 if a is before b, 0 if they are equal and 1 otherwise.
func Compare(a, b Instant) int {
	switch {
	case a.Sec < b.Sec:
		return -1
	case a.Sec > b.Sec:
		return 1
	case a.Nsec < b.Nsec:
		return -1
	case a.Nsec > b.Nsec:
		return 1
	default:
		return 0
	}
}

// Milliseconds converts a duration-valued Instant to fractional milliseconds.
func Milliseconds(d Instant) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// Strategy selects how a Source reads time.
type Strategy string

const (
	// StrategyMonotonic reads the OS monotonic clock.
	StrategyMonotonic Strategy = "monotonic"
	// StrategyWall reads the OS wall clock (time of day).
	StrategyWall Strategy = "wall"
	// StrategyCycles reads the raw CPU cycle counter and converts ticks using
	// an externally calibrated frequency.
	StrategyCycles Strategy = "cycles"
)

// ParseStrategy maps a configuration string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monotonic", "realtime":
		return StrategyMonotonic, nil
	case "wall", "timeofday", "walltime":
		return StrategyWall, nil
	case "cycles", "rdtscp", "tsc":
		return StrategyCycles, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedStrategy, s)
	}
}

// Source produces timestamps. Now must not allocate or block.
type Source interface {
	Now() Instant
	Strategy() Strategy
}

// New returns the Source for strategy. cycleHz is only used by
// StrategyCycles and must be positive there.
func New(strategy Strategy, cycleHz uint64) (Source, error) {
	switch strategy {
	case StrategyMonotonic:
		return monotonicSource{}, nil
	case StrategyWall:
		return wallSource{}, nil
	case StrategyCycles:
		if !cyclesSupported {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, strategy)
		}
		if cycleHz == 0 {
			return nil, ErrMissingFrequency
		}
		return cycleSource{hz: cycleHz}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strategy)
	}
}

type monotonicSource struct{}

func (monotonicSource) Now() Instant       { return monotonicNow() }
func (monotonicSource) Strategy() Strategy { return StrategyMonotonic }

type wallSource struct{}

func (wallSource) Now() Instant       { return wallNow() }
func (wallSource) Strategy() Strategy { return StrategyWall }

type cycleSource struct {
	hz uint64
}

func (c cycleSource) Now() Instant       { return ticksToInstant(readCycles(), c.hz) }
func (c cycleSource) Strategy() Strategy { return StrategyCycles }
