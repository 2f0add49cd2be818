// Package workload generates synthetic recording load against an event store.
//
// A [Runner] starts one worker goroutine per stream and binds worker i to
// stream i, which is the only way the store allows concurrent appends. A
// single scheduler goroutine paces the run and hands out iteration ids, so
// ids are unique across streams.
//
// # Basic Usage
//
//	r := workload.New(workload.Options{
//		Streams:       4,
//		Iterations:    1000,
//		RatePerSecond: 500,
//		Probe: workload.SleepProbe{
//			Recorder: session,
//			Pair:     pair,
//			Work:     100 * time.Microsecond,
//		},
//	})
//	result := r.Run(ctx)
//
// # Arrival Models
//
//   - [ArrivalModelUniform]: iterations at fixed intervals via a token bucket
//   - [ArrivalModelPoisson]: exponentially distributed gaps between iterations
//
// The run ends when Iterations have been issued, Duration elapses or the
// context is cancelled, whichever comes first.
package workload
