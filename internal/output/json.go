package output

import (
	"encoding/json"
	"io"

	"github.com/torosent/rtperf/internal/evaluate"
)

// JSONReport is the document written by WriteSummaryJSON.
type JSONReport struct {
	Session *SessionInfo  `json:"session,omitempty"`
	Data    []JSONSummary `json:"data"`
}

// JSONSummary is one pair in a JSONReport. Statistics are null when the pair
// has no data.
type JSONSummary struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	P90    *float64 `json:"p90"`
	P99    *float64 `json:"p99"`
}

// NewJSONReport converts summaries into their JSON form.
func NewJSONReport(summaries []evaluate.Summary) JSONReport {
	report := JSONReport{Data: make([]JSONSummary, 0, len(summaries))}
	for _, s := range summaries {
		js := JSONSummary{Name: s.Label, Count: s.Count}
		if !s.NoData {
			js.Min = floatPtr(s.Min)
			js.Max = floatPtr(s.Max)
			js.Mean = floatPtr(s.Mean)
			js.Median = floatPtr(s.Median)
			js.P90 = floatPtr(s.P90)
			js.P99 = floatPtr(s.P99)
		}
		report.Data = append(report.Data, js)
	}
	return report
}

// WriteSummaryJSON writes {"data":[...]} for the given summaries.
func WriteSummaryJSON(w io.Writer, summaries []evaluate.Summary) error {
	return PrintJSONReport(w, NewJSONReport(summaries))
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report JSONReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func floatPtr(v float64) *float64 {
	return &v
}
