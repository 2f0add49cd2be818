package threshold

import (
	"errors"
	"strings"
	"testing"

	"github.com/torosent/rtperf/internal/evaluate"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "p99 on bare tag name",
			input: "DEMO:p99 < 0.5",
			want: Threshold{
				Pair:      "DEMO",
				Aggregate: "p99",
				Operator:  "<",
				Value:     0.5,
				Raw:       "DEMO:p99 < 0.5",
			},
		},
		{
			name:  "median on full pair label",
			input: "DEMO_START-DEMO_END:median <= 2",
			want: Threshold{
				Pair:      "DEMO_START-DEMO_END",
				Aggregate: "median",
				Operator:  "<=",
				Value:     2,
				Raw:       "DEMO_START-DEMO_END:median <= 2",
			},
		},
		{
			name:  "count with >= and surrounding whitespace",
			input: "  LOOP:count >= 1000 ",
			want: Threshold{
				Pair:      "LOOP",
				Aggregate: "count",
				Operator:  ">=",
				Value:     1000,
				Raw:       "LOOP:count >= 1000",
			},
		},
		{
			name:  "mean without spaces",
			input: "DEMO:mean<3.25",
			want: Threshold{
				Pair:      "DEMO",
				Aggregate: "mean",
				Operator:  "<",
				Value:     3.25,
				Raw:       "DEMO:mean<3.25",
			},
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
		{
			name:      "missing operator",
			input:     "DEMO:p99 0.5",
			wantError: true,
		},
		{
			name:      "unknown aggregate",
			input:     "DEMO:p95 < 0.5",
			wantError: true,
		},
		{
			name:      "unknown operator",
			input:     "DEMO:max << 0.5",
			wantError: true,
		},
		{
			name:      "value not a number",
			input:     "DEMO:max < fast",
			wantError: true,
		},
		{
			name:      "value with two dots",
			input:     "DEMO:max < 1.2.3",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("Parse() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		wantCount int
		wantError bool
	}{
		{
			name:      "multiple valid thresholds",
			input:     []string{"DEMO:p99 < 5", "DEMO:count > 0", "LOOP_START-LOOP_END:max < 10"},
			wantCount: 3,
		},
		{
			name:      "empty slice",
			input:     []string{},
			wantCount: 0,
		},
		{
			name:      "one valid, one invalid",
			input:     []string{"DEMO:p99 < 5", "invalid threshold"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMultiple(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseMultiple() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && len(got) != tt.wantCount {
				t.Errorf("ParseMultiple() returned %d thresholds, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func sampleSummaries() []evaluate.Summary {
	return []evaluate.Summary{
		{
			Label:  "DEMO_START-DEMO_END",
			Count:  200,
			Min:    0.5,
			Max:    9,
			Mean:   2,
			Median: 1.5,
			P90:    4,
			P99:    8,
		},
		{
			Label:  "IDLE_START-IDLE_END",
			NoData: true,
		},
	}
}

func TestEvaluator(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []string
		wantPass   []bool
	}{
		{
			name:       "all thresholds pass",
			thresholds: []string{"DEMO:p99 < 10", "DEMO:median <= 1.5", "DEMO:count >= 200"},
			wantPass:   []bool{true, true, true},
		},
		{
			name:       "some thresholds fail",
			thresholds: []string{"DEMO:p90 < 3", "DEMO:max < 10", "DEMO:min > 1"},
			wantPass:   []bool{false, true, false},
		},
		{
			name:       "full label and mean alias",
			thresholds: []string{"DEMO_START-DEMO_END:avg == 2", "DEMO_START-DEMO_END:mean == 2"},
			wantPass:   []bool{true, true},
		},
		{
			name:       "unknown pair fails",
			thresholds: []string{"MISSING:max < 1"},
			wantPass:   []bool{false},
		},
		{
			name:       "no data fails latency but not count",
			thresholds: []string{"IDLE:max < 1", "IDLE:count == 0"},
			wantPass:   []bool{false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := ParseMultiple(tt.thresholds)
			if err != nil {
				t.Fatalf("ParseMultiple() error = %v", err)
			}

			results := NewEvaluator(thresholds).Evaluate(sampleSummaries())
			if len(results) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.wantPass))
			}

			allPass := true
			for i, result := range results {
				if result.Pass != tt.wantPass[i] {
					t.Errorf("threshold[%d] %q: got pass=%v, want %v (actual=%.2f, msg=%s)",
						i, result.Threshold.Raw, result.Pass, tt.wantPass[i], result.Actual, result.Message)
				}
				allPass = allPass && tt.wantPass[i]
			}
			if Passed(results) != allPass {
				t.Errorf("Passed() = %v, want %v", Passed(results), allPass)
			}
		})
	}
}

func TestEvaluateNoThresholds(t *testing.T) {
	if got := NewEvaluator(nil).Evaluate(sampleSummaries()); got != nil {
		t.Fatalf("expected nil results, got %v", got)
	}
	if !Passed(nil) {
		t.Fatal("Passed(nil) should be true")
	}
}

func TestNoDataMessageNamesPair(t *testing.T) {
	th, err := Parse("IDLE:p99 < 1")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	res := NewEvaluator([]Threshold{th}).Evaluate(sampleSummaries())[0]
	if !strings.Contains(res.Message, "IDLE_START-IDLE_END") || !strings.Contains(res.Message, "no matched events") {
		t.Fatalf("unexpected message %q", res.Message)
	}
	_, extractErr := extractValue(th, sampleSummaries())
	if !errors.Is(extractErr, evaluate.ErrNoData) {
		t.Fatalf("extractValue() error = %v, want ErrNoData", extractErr)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than false", 100, "<", 50, false},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal true", 50, "<=", 100, true},
		{"less than or equal equal", 100, "<=", 100, true},
		{"less than or equal false", 150, "<=", 100, false},
		{"greater than true", 150, ">", 100, true},
		{"greater than false", 50, ">", 100, false},
		{"greater than equal", 100, ">", 100, false},
		{"greater than or equal true", 150, ">=", 100, true},
		{"greater than or equal equal", 100, ">=", 100, true},
		{"greater than or equal false", 50, ">=", 100, false},
		{"equal true", 100, "==", 100, true},
		{"equal false", 100, "==", 101, false},
		{"equal with floating point precision", 100.0000000001, "==", 100, true},
		{"unknown operator", 1, "!=", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.actual, tt.operator, tt.expected)
			if got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}

func TestFromJSONReport(t *testing.T) {
	body := []byte(`{
  "session": "01J0000000000000000000000",
  "data": [
    {"name": "DEMO_START-DEMO_END", "count": 2, "min": 2, "max": 5, "mean": 3.5, "median": 3.5, "p90": 5, "p99": 5},
    {"name": "IDLE_START-IDLE_END", "count": 0, "min": null, "max": null, "mean": null, "median": null}
  ]
}`)

	got, err := FromJSONReport(body)
	if err != nil {
		t.Fatalf("FromJSONReport() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	demo := got[0]
	if demo.Label != "DEMO_START-DEMO_END" || demo.Count != 2 || demo.Min != 2 || demo.Max != 5 || demo.Mean != 3.5 || demo.Median != 3.5 || demo.P99 != 5 {
		t.Errorf("unexpected summary %+v", demo)
	}
	if !got[1].NoData {
		t.Errorf("expected NoData for null statistics, got %+v", got[1])
	}

	thresholds, err := ParseMultiple([]string{"DEMO:max <= 5", "IDLE:max < 1"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	results := NewEvaluator(thresholds).Evaluate(got)
	if !results[0].Pass || results[1].Pass {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestFromJSONReportErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"data": [`},
		{"missing data", `{"rows": []}`},
		{"data not array", `{"data": {}}`},
		{"entry without name", `{"data": [{"count": 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromJSONReport([]byte(tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
