package output

import (
	"fmt"
	"io"

	"github.com/torosent/rtperf/internal/evaluate"
	"github.com/torosent/rtperf/internal/threshold"
)

// SessionInfo describes the recording session behind a report.
type SessionInfo struct {
	ID        string   `json:"id"`
	Clock     string   `json:"clock"`
	Streams   int      `json:"streams"`
	Capacity  int      `json:"capacity"`
	Recorded  int      `json:"recorded"`
	Rejected  []uint64 `json:"rejected"`
	Misrouted uint64   `json:"misrouted"`
	Pinned    bool     `json:"pinned"`
}

// TotalRejected sums the per-stream rejections and the misrouted appends.
func (s SessionInfo) TotalRejected() uint64 {
	total := s.Misrouted
	for _, n := range s.Rejected {
		total += n
	}
	return total
}

// PrintSession outputs a human-readable description of the session.
func PrintSession(w io.Writer, info SessionInfo) {
	fmt.Fprintln(w, "\n--- Session ---")
	fmt.Fprintf(w, "ID:                %s\n", info.ID)
	fmt.Fprintf(w, "Clock:             %s\n", info.Clock)
	fmt.Fprintf(w, "Streams:           %d x %d entries\n", info.Streams, info.Capacity)
	fmt.Fprintf(w, "Pinned:            %t\n", info.Pinned)
	fmt.Fprintf(w, "Recorded:          %d\n", info.Recorded)
	if info.TotalRejected() == 0 {
		return
	}
	fmt.Fprintln(w, "\nRejected:")
	for i, n := range info.Rejected {
		if n > 0 {
			fmt.Fprintf(w, "  stream %d: %d (full)\n", i, n)
		}
	}
	if info.Misrouted > 0 {
		fmt.Fprintf(w, "  unknown stream: %d\n", info.Misrouted)
	}
}

// PrintSummaries outputs one line per pair.
func PrintSummaries(w io.Writer, summaries []evaluate.Summary) {
	for _, s := range summaries {
		if s.NoData {
			fmt.Fprintf(w, "%s | Count:0 no data\n", s.Label)
			continue
		}
		fmt.Fprintf(w, "%s | Count:%d Min:%.5fms Max:%.5fms Mean:%.5fms Median:%.5fms\n",
			s.Label, s.Count, s.Min, s.Max, s.Mean, s.Median)
	}
}

// PrintDiffs outputs every matched pair as "start-end: ms".
func PrintDiffs(w io.Writer, diffs []evaluate.Diff) {
	for _, d := range diffs {
		fmt.Fprintf(w, "%s: %.12f\n", d.Label(), d.Ms)
	}
}

// PrintThresholds outputs the threshold results followed by a pass/fail line.
func PrintThresholds(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	passed := 0
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
		if r.Pass {
			passed++
		}
	}
	fmt.Fprintf(w, "%d/%d thresholds passed\n", passed, len(results))
}
