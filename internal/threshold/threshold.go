// Package threshold asserts limits on evaluated pair statistics.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/rtperf/internal/evaluate"
)

// Threshold represents a latency assertion that can pass or fail.
type Threshold struct {
	Pair      string  // pair label ("DEMO_START-DEMO_END") or tag base name ("DEMO")
	Aggregate string  // e.g., "p99", "median", "max", "count"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // milliseconds, or a plain number for count
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against pair summaries.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided summaries.
func (e *Evaluator) Evaluate(summaries []evaluate.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, summaries))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluateOne(t Threshold, summaries []evaluate.Summary) Result {
	actual, err := extractValue(t, summaries)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: %v", t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.4f %s %.4f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

var thresholdPattern = regexp.MustCompile(`^([A-Za-z0-9_.\-]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "DEMO:p99 < 0.5"                       (99th percentile in ms)
// - "DEMO_START-DEMO_END:median <= 0.2"    (median in ms, full pair label)
// - "DEMO:max < 2"                         (maximum in ms)
// - "DEMO:count >= 1000"                   (number of matched pairs)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: pair:aggregate operator value, e.g., 'DEMO:p99 < 0.5')", s)
	}

	pair := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: count, min, max, avg, mean, median, p50, p90, p99)", aggregate)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Pair:      pair,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func isValidAggregate(aggregate string) bool {
	valid := []string{"count", "min", "max", "avg", "mean", "median", "p50", "p90", "p99"}
	for _, v := range valid {
		if aggregate == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

// findSummary resolves a threshold pair name. A bare name matches the pair
// generated for it ("DEMO" -> "DEMO_START-DEMO_END").
func findSummary(name string, summaries []evaluate.Summary) (evaluate.Summary, bool) {
	generated := name + "_START-" + name + "_END"
	for _, s := range summaries {
		if s.Label == name || s.Label == generated {
			return s, true
		}
	}
	return evaluate.Summary{}, false
}

func extractValue(t Threshold, summaries []evaluate.Summary) (float64, error) {
	s, ok := findSummary(t.Pair, summaries)
	if !ok {
		return 0, fmt.Errorf("unknown pair %q", t.Pair)
	}
	if t.Aggregate == "count" {
		return float64(s.Count), nil
	}
	if err := s.Err(); err != nil {
		return 0, err
	}

	switch t.Aggregate {
	case "min":
		return s.Min, nil
	case "max":
		return s.Max, nil
	case "avg", "mean":
		return s.Mean, nil
	case "median", "p50":
		return s.Median, nil
	case "p90":
		return s.P90, nil
	case "p99":
		return s.P99, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q", t.Aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
