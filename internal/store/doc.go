// Package store provides the preallocated event store written from
// latency-critical code.
//
// A [Session] owns one contiguous buffer of [Entry] values split into
// fixed-capacity streams. All memory is reserved (and, when requested,
// locked resident with mlock) by [New], so recording never allocates,
// never locks and never performs I/O:
//
//	s, err := store.New(store.Config{Streams: 4, Capacity: 100_000, Pin: true})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	// On the real-time path, from the goroutine that owns stream 2:
//	_ = s.Append(tagStart, cycle, 2)
//	doWork()
//	_ = s.Append(tagEnd, cycle, 2)
//
// # Streams and concurrency
//
// Streams are independent. Each stream must be written by a single
// goroutine at a time; different goroutines may append concurrently as long
// as they use different stream indexes. Nothing enforces this: two writers on
// the same stream is a caller bug with undefined results.
//
// Reading ([Session.Stream], evaluation, export) must only happen once all
// writers have stopped.
//
// # Rejections
//
// Appends to a full stream return [ErrStreamFull] and increment that
// stream's counter in [Session.ErrorCounts]. Appends to an index outside the
// session return [ErrStreamNotFound] and are counted in
// [Session.Misrouted]. Rejected entries are dropped.
//
// [Session.Reset] rewinds every stream and clears all counters without
// releasing memory, for repeated measurement runs.
package store
