package threshold

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/torosent/rtperf/internal/evaluate"
)

// FromJSONReport reads the summaries of a previously written JSON report
// ({"data":[{"name":...,"count":...,"min":...}]}) so thresholds can be
// checked without re-running a session. Null statistics mark NoData pairs.
func FromJSONReport(body []byte) ([]evaluate.Summary, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("report is not valid JSON")
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || !data.IsArray() {
		return nil, fmt.Errorf("report has no data array")
	}

	var summaries []evaluate.Summary
	var err error
	data.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("name")
		if !name.Exists() {
			err = fmt.Errorf("report entry %d has no name", len(summaries))
			return false
		}
		s := evaluate.Summary{
			Label: name.String(),
			Count: int(item.Get("count").Int()),
		}
		mean := item.Get("mean")
		if s.Count == 0 || mean.Type == gjson.Null || !mean.Exists() {
			s.NoData = true
			summaries = append(summaries, s)
			return true
		}
		s.Min = item.Get("min").Float()
		s.Max = item.Get("max").Float()
		s.Mean = mean.Float()
		s.Median = item.Get("median").Float()
		s.P90 = item.Get("p90").Float()
		s.P99 = item.Get("p99").Float()
		summaries = append(summaries, s)
		return true
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
