package clock

import (
	"errors"
	"testing"
	"time"
)

func TestElapsedBorrowsAcrossSecondBoundary(t *testing.T) {
	start := Instant{Sec: 1, Nsec: 900_000_000}
	end := Instant{Sec: 2, Nsec: 100_000_000}

	got := Elapsed(start, end)
	want := Instant{Sec: 0, Nsec: 200_000_000}
	if got != want {
		t.Fatalf("Elapsed() = %+v, want %+v", got, want)
	}
}

func TestElapsedIsAntisymmetric(t *testing.T) {
	tests := []struct {
		name string
		a, b Instant
	}{
		{name: "same second", a: Instant{Sec: 3, Nsec: 100}, b: Instant{Sec: 3, Nsec: 900}},
		{name: "borrow", a: Instant{Sec: 0, Nsec: 300_000_000}, b: Instant{Sec: 1, Nsec: 100_000_000}},
		{name: "whole seconds", a: Instant{Sec: 10}, b: Instant{Sec: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward := Elapsed(tt.a, tt.b).Nanoseconds()
			backward := Elapsed(tt.b, tt.a).Nanoseconds()
			if forward != -backward {
				t.Fatalf("Elapsed(a,b)=%dns, Elapsed(b,a)=%dns", forward, backward)
			}
			if fm, bm := Milliseconds(Elapsed(tt.a, tt.b)), Milliseconds(Elapsed(tt.b, tt.a)); fm != -bm {
				t.Fatalf("milliseconds not antisymmetric: %v vs %v", fm, bm)
			}
		})
	}
}

func TestElapsedSelfIsZero(t *testing.T) {
	a := Instant{Sec: 42, Nsec: 123_456_789}
	if got := Elapsed(a, a); !got.IsZero() {
		t.Fatalf("Elapsed(a, a) = %+v, want zero", got)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Instant
		want int
	}{
		{Instant{Sec: 1}, Instant{Sec: 2}, -1},
		{Instant{Sec: 2}, Instant{Sec: 1}, 1},
		{Instant{Sec: 1, Nsec: 5}, Instant{Sec: 1, Nsec: 6}, -1},
		{Instant{Sec: 1, Nsec: 7}, Instant{Sec: 1, Nsec: 6}, 1},
		{Instant{Sec: 1, Nsec: 6}, Instant{Sec: 1, Nsec: 6}, 0},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMilliseconds(t *testing.T) {
	if got := Milliseconds(Instant{Sec: 1, Nsec: 500_000_000}); got != 1500 {
		t.Fatalf("Milliseconds() = %v, want 1500", got)
	}
	if got := Milliseconds(FromDuration(5 * time.Millisecond)); got != 5 {
		t.Fatalf("Milliseconds(5ms) = %v, want 5", got)
	}
	if got := Milliseconds(Instant{Sec: -1, Nsec: 999_999_200}); got != -0.0008 {
		t.Fatalf("Milliseconds(-800ns) = %v, want -0.0008", got)
	}
}

func TestFromDurationNormalizesNegative(t *testing.T) {
	got := FromDuration(-1500 * time.Millisecond)
	want := Instant{Sec: -2, Nsec: 500_000_000}
	if got != want {
		t.Fatalf("FromDuration(-1.5s) = %+v, want %+v", got, want)
	}
	if got.Duration() != -1500*time.Millisecond {
		t.Fatalf("round trip = %s", got.Duration())
	}
}

func TestString(t *testing.T) {
	if got := (Instant{Sec: 3, Nsec: 42}).String(); got != "3.000000042" {
		t.Fatalf("String() = %q", got)
	}
	negative := Elapsed(Instant{Sec: 1}, Instant{Sec: 0, Nsec: 500_000_000})
	if got := negative.String(); got != "-0.500000000" {
		t.Fatalf("String() of negative = %q", got)
	}
}

func TestTicksToInstant(t *testing.T) {
	got := ticksToInstant(5_000_000_001, 2_000_000_000)
	want := Instant{Sec: 2, Nsec: 500_000_000}
	if got != want {
		t.Fatalf("ticksToInstant() = %+v, want %+v", got, want)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "", want: StrategyMonotonic},
		{in: "Monotonic", want: StrategyMonotonic},
		{in: "timeofday", want: StrategyWall},
		{in: "rdtscp", want: StrategyCycles},
		{in: "sundial", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedStrategy) {
				t.Errorf("ParseStrategy(%q) error = %v, want ErrUnsupportedStrategy", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestNewRejectsCyclesWithoutFrequency(t *testing.T) {
	_, err := New(StrategyCycles, 0)
	if cyclesSupported {
		if !errors.Is(err, ErrMissingFrequency) {
			t.Fatalf("expected ErrMissingFrequency, got %v", err)
		}
		return
	}
	if !errors.Is(err, ErrUnsupportedStrategy) {
		t.Fatalf("expected ErrUnsupportedStrategy, got %v", err)
	}
}

func TestMonotonicSourceDoesNotGoBackwards(t *testing.T) {
	src, err := New(StrategyMonotonic, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	prev := src.Now()
	for i := 0; i < 1000; i++ {
		next := src.Now()
		if Compare(next, prev) < 0 {
			t.Fatalf("monotonic clock went backwards: %v -> %v", prev, next)
		}
		if next.Nsec < 0 || next.Nsec >= nanosPerSecond {
			t.Fatalf("nanoseconds out of range: %d", next.Nsec)
		}
		prev = next
	}
}

func TestWallSourceTracksTimeNow(t *testing.T) {
	src, err := New(StrategyWall, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := src.Now()
	now := time.Now().Unix()
	if diff := now - got.Sec; diff < -1 || diff > 1 {
		t.Fatalf("wall clock %d differs from time.Now %d", got.Sec, now)
	}
}
