package store

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sys/cpu"

	"github.com/torosent/rtperf/internal/clock"
	"github.com/torosent/rtperf/internal/tag"
)

var (
	// ErrInitialization wraps allocation, pinning and configuration failures
	// from New. No session is returned alongside it.
	ErrInitialization = errors.New("store initialization failed")
	// ErrStreamNotFound is returned when the stream index is out of range.
	ErrStreamNotFound = errors.New("stream not found")
	// ErrStreamFull is returned when the stream has no free slot.
	ErrStreamFull = errors.New("stream full")
	// ErrClosed is returned by Close on a session that was already closed.
	ErrClosed = errors.New("session closed")
)

// Entry is one recorded event.
type Entry struct {
	Tag       tag.ID
	ID        uint64
	Timestamp clock.Instant
}

// Config describes the session to reserve.
type Config struct {
	Streams          int
	Capacity         int
	Clock            clock.Strategy
	CycleFrequencyHz uint64
	// Pin locks the entry buffer resident so recording never page-faults.
	Pin bool
	// Source overrides the clock built from Clock.
	Source clock.Source
}

// cursor is the per-stream bookkeeping, padded so that writers on
// neighbouring streams do not share a cache line.
type cursor struct {
	next     int
	rejected atomic.Uint64
	_        cpu.CacheLinePad
}

// Session is a set of append-only event streams backed by a single
// allocation.
type Session struct {
	id        ulid.ULID
	streams   int
	capacity  int
	source    clock.Source
	entries   []Entry
	cursors   []cursor
	misrouted atomic.Uint64
	pinned    bool
	closed    bool
}

// New reserves Streams*Capacity entries and, when cfg.Pin is set, locks them
// in memory.
func New(cfg Config) (*Session, error) {
	if cfg.Streams <= 0 {
		return nil, fmt.Errorf("%w: streams must be > 0, got %d", ErrInitialization, cfg.Streams)
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", ErrInitialization, cfg.Capacity)
	}
	total := cfg.Streams * cfg.Capacity
	if total/cfg.Streams != cfg.Capacity {
		return nil, fmt.Errorf("%w: %d streams x %d entries overflows", ErrInitialization, cfg.Streams, cfg.Capacity)
	}

	source := cfg.Source
	if source == nil {
		strategy := cfg.Clock
		if strategy == "" {
			strategy = clock.StrategyMonotonic
		}
		var err error
		source, err = clock.New(strategy, cfg.CycleFrequencyHz)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
		}
	}

	s := &Session{
		id:       ulid.Make(),
		streams:  cfg.Streams,
		capacity: cfg.Capacity,
		source:   source,
		entries:  make([]Entry, total),
		cursors:  make([]cursor, cfg.Streams),
	}

	if cfg.Pin {
		if err := pin(s.entries, s.cursors); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
		}
		s.pinned = true
	} else {
		prefault(s.entries)
	}
	return s, nil
}

// Append records tag/id on stream using the session clock.
//
// Append does not allocate or lock. Only one goroutine may append to a given
// stream at a time.
func (s *Session) Append(t tag.ID, id uint64, stream int) error {
	if uint(stream) >= uint(s.streams) {
		s.misrouted.Add(1)
		return ErrStreamNotFound
	}
	c := &s.cursors[stream]
	if c.next >= s.capacity {
		c.rejected.Add(1)
		return ErrStreamFull
	}
	e := &s.entries[stream*s.capacity+c.next]
	e.Timestamp = s.source.Now()
	e.ID = id
	e.Tag = t
	c.next++
	return nil
}

// AppendAt records tag/id on stream with a caller-supplied timestamp. The
// timestamp is stored as given, even if it is earlier than the previous entry.
func (s *Session) AppendAt(t tag.ID, id uint64, stream int, ts clock.Instant) error {
	if uint(stream) >= uint(s.streams) {
		s.misrouted.Add(1)
		return ErrStreamNotFound
	}
	c := &s.cursors[stream]
	if c.next >= s.capacity {
		c.rejected.Add(1)
		return ErrStreamFull
	}
	s.entries[stream*s.capacity+c.next] = Entry{Tag: t, ID: id, Timestamp: ts}
	c.next++
	return nil
}

// Now reads the session clock.
func (s *Session) Now() clock.Instant {
	return s.source.Now()
}

// Reset rewinds every stream to slot zero and clears all rejection
// counters. Memory stays reserved.
func (s *Session) Reset() {
	for i := range s.cursors {
		s.cursors[i].next = 0
		s.cursors[i].rejected.Store(0)
	}
	s.misrouted.Store(0)
}

// ErrorCounts returns a copy of the per-stream rejected-append counts. It is
// safe to call while writers are appending.
func (s *Session) ErrorCounts() []uint64 {
	counts := make([]uint64, len(s.cursors))
	for i := range s.cursors {
		counts[i] = s.cursors[i].rejected.Load()
	}
	return counts
}

// Misrouted returns the number of appends addressed to a stream index
// outside the session.
func (s *Session) Misrouted() uint64 {
	return s.misrouted.Load()
}

// StreamCount returns the number of streams.
func (s *Session) StreamCount() int { return s.streams }

// Capacity returns the per-stream capacity.
func (s *Session) Capacity() int { return s.capacity }

// Len returns the number of entries recorded on stream, or 0 when the index
// is out of range.
func (s *Session) Len(stream int) int {
	if uint(stream) >= uint(s.streams) {
		return 0
	}
	return s.cursors[stream].next
}

// Total returns the number of entries recorded across all streams.
func (s *Session) Total() int {
	n := 0
	for i := range s.cursors {
		n += s.cursors[i].next
	}
	return n
}

// Stream returns the recorded entries of stream in insertion order. The
// slice aliases session memory: it must be treated as read-only and is only
// valid until the next Reset or Close.
func (s *Session) Stream(stream int) []Entry {
	if uint(stream) >= uint(s.streams) {
		return nil
	}
	lo := stream * s.capacity
	hi := lo + s.cursors[stream].next
	return s.entries[lo:hi:hi]
}

// ID identifies the session in logs and report names.
func (s *Session) ID() ulid.ULID { return s.id }

// Clock returns the strategy of the session clock.
func (s *Session) Clock() clock.Strategy { return s.source.Strategy() }

// Pinned reports whether the entry buffer is locked in memory.
func (s *Session) Pinned() bool { return s.pinned }

// Close unlocks and releases the session memory. The session must not be
// used afterwards; appends on a closed session return ErrStreamNotFound.
func (s *Session) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true

	var err error
	if s.pinned {
		err = unpin(s.entries, s.cursors)
		s.pinned = false
	}
	s.entries = nil
	s.cursors = nil
	s.streams = 0
	s.capacity = 0
	if err != nil {
		return fmt.Errorf("unpin session memory: %w", err)
	}
	return nil
}
