// Package evaluate correlates start and end events recorded in a store and
// turns the matched pairs into latency statistics.
//
// Matching is first-match in a fixed scan order: streams in index order,
// entries in insertion order. For every start entry the engine pairs the
// first end entry, anywhere in the store, carrying the same id. Start entries
// without an end are skipped. The cost is quadratic in the number of
// recorded events, so evaluation belongs after recording has finished.
package evaluate

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/rtperf/internal/clock"
	"github.com/torosent/rtperf/internal/store"
	"github.com/torosent/rtperf/internal/tag"
)

// ErrNoData marks a pair without a single matched start/end.
var ErrNoData = errors.New("no matched events")

// Source is a read-only view of recorded streams. *store.Session satisfies
// it. Writers must have stopped before a Source is evaluated.
type Source interface {
	StreamCount() int
	Stream(i int) []store.Entry
}

// Summary holds the statistics of one pair in milliseconds.
type Summary struct {
	Pair   tag.Pair
	Label  string
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P90    float64
	P99    float64
	// NoData is set when Count is zero; the statistics are then undefined
	// and left at zero.
	NoData bool
}

// Err returns ErrNoData (wrapped with the pair label) for an empty summary.
func (s Summary) Err() error {
	if s.NoData {
		return fmt.Errorf("%s: %w", s.Label, ErrNoData)
	}
	return nil
}

// Diff is one matched start/end pair.
type Diff struct {
	Pair       tag.Pair
	StartLabel string
	EndLabel   string
	ID         uint64
	Ms         float64
}

// Label returns "<start>-<end>".
func (d Diff) Label() string {
	return d.StartLabel + "-" + d.EndLabel
}

// Row is one exported entry with its timestamp relative to the start of the
// export.
type Row struct {
	Stream   int
	Tag      tag.ID
	Label    string
	ID       uint64
	Relative clock.Instant
}

// Evaluator runs pair evaluation and exports over a Source.
type Evaluator struct {
	src  Source
	dict tag.Dictionary
}

// New returns an Evaluator reading src and labelling tags with dict.
func New(src Source, dict tag.Dictionary) *Evaluator {
	return &Evaluator{src: src, dict: dict}
}

// Summaries computes one Summary per pair, in the order of pairs.
func (e *Evaluator) Summaries(pairs []tag.Pair) []Summary {
	out := make([]Summary, 0, len(pairs))
	for _, p := range pairs {
		var diffs []float64
		e.match(p, func(start, end store.Entry) {
			diffs = append(diffs, clock.Milliseconds(clock.Elapsed(start.Timestamp, end.Timestamp)))
		})
		s := summarize(diffs)
		s.Pair = p
		s.Label = e.dict.PairLabel(p)
		out = append(out, s)
	}
	return out
}

// Diffs returns every matched pair's elapsed time in scan order.
func (e *Evaluator) Diffs(pairs []tag.Pair) []Diff {
	var out []Diff
	for _, p := range pairs {
		startLabel, endLabel := e.dict.Label(p.Start), e.dict.Label(p.End)
		e.match(p, func(start, end store.Entry) {
			out = append(out, Diff{
				Pair:       p,
				StartLabel: startLabel,
				EndLabel:   endLabel,
				ID:         start.ID,
				Ms:         clock.Milliseconds(clock.Elapsed(start.Timestamp, end.Timestamp)),
			})
		})
	}
	return out
}

// Entries exports the entries of the selected streams (all streams when
// streams is empty) with timestamps relative to the earliest first entry
// among them. Out-of-range stream indexes are ignored.
func (e *Evaluator) Entries(streams []int) []Row {
	selected := e.selectStreams(streams)

	var base clock.Instant
	found := false
	for _, i := range selected {
		entries := e.src.Stream(i)
		if len(entries) == 0 {
			continue
		}
		if !found || clock.Compare(entries[0].Timestamp, base) < 0 {
			base = entries[0].Timestamp
			found = true
		}
	}

	var rows []Row
	for _, i := range selected {
		for _, entry := range e.src.Stream(i) {
			rows = append(rows, Row{
				Stream:   i,
				Tag:      entry.Tag,
				Label:    e.dict.Label(entry.Tag),
				ID:       entry.ID,
				Relative: clock.Elapsed(base, entry.Timestamp),
			})
		}
	}
	return rows
}

func (e *Evaluator) selectStreams(streams []int) []int {
	n := e.src.StreamCount()
	if len(streams) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	selected := make([]int, 0, len(streams))
	for i := 0; i < n; i++ {
		if slices.Contains(streams, i) {
			selected = append(selected, i)
		}
	}
	return selected
}

// match calls visit for every start entry of p that has an end entry.
func (e *Evaluator) match(p tag.Pair, visit func(start, end store.Entry)) {
	n := e.src.StreamCount()
	for i := 0; i < n; i++ {
		for _, start := range e.src.Stream(i) {
			if start.Tag != p.Start {
				continue
			}
			if end, ok := e.firstEnd(p.End, start.ID); ok {
				visit(start, end)
			}
		}
	}
}

func (e *Evaluator) firstEnd(endTag tag.ID, id uint64) (store.Entry, bool) {
	n := e.src.StreamCount()
	for k := 0; k < n; k++ {
		for _, entry := range e.src.Stream(k) {
			if entry.Tag == endTag && entry.ID == id {
				return entry, true
			}
		}
	}
	return store.Entry{}, false
}

// Percentile histogram bounds, in nanoseconds.
const (
	histLowest  = 1
	histHighest = int64(time.Minute)
	histSigFigs = 3
)

func summarize(diffs []float64) Summary {
	if len(diffs) == 0 {
		return Summary{NoData: true}
	}

	s := Summary{Count: len(diffs), Min: diffs[0], Max: diffs[0]}
	hist := hdrhistogram.New(histLowest, histHighest, histSigFigs)
	sum := 0.0
	for _, d := range diffs {
		if d < s.Min {
			s.Min = d
		}
		if d > s.Max {
			s.Max = d
		}
		sum += d

		ns := int64(d * 1e6)
		if ns < hist.LowestTrackableValue() {
			ns = hist.LowestTrackableValue()
		}
		if ns > hist.HighestTrackableValue() {
			ns = hist.HighestTrackableValue()
		}
		_ = hist.RecordValue(ns)
	}
	s.Mean = sum / float64(len(diffs))

	sorted := slices.Clone(diffs)
	slices.Sort(sorted)
	s.Median = median(sorted)

	s.P90 = s.bound(float64(hist.ValueAtQuantile(90)) / 1e6)
	s.P99 = s.bound(float64(hist.ValueAtQuantile(99)) / 1e6)
	return s
}

// bound keeps a histogram estimate inside the exact [Min, Max] range.
// ValueAtQuantile reports the upper edge of a bucket, which can overshoot.
func (s Summary) bound(v float64) float64 {
	return min(max(v, s.Min), s.Max)
}

// median expects sorted, non-empty input.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 != 0 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
