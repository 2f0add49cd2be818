package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/rtperf/internal/evaluate"
	"github.com/torosent/rtperf/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Session          SessionInfo
	Summaries        []evaluate.Summary
	ThresholdResults []threshold.Result
	ThresholdSummary *ThresholdSummary
	SeriesJSON       string
}

// ThresholdSummary counts passed and failed thresholds.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []ThresholdResultJSON
}

// ThresholdResultJSON is one threshold row of the report.
type ThresholdResultJSON struct {
	Threshold string  `json:"threshold"`
	Pair      string  `json:"pair"`
	Aggregate string  `json:"aggregate"`
	Operator  string  `json:"operator"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Pass      bool    `json:"pass"`
}

// pairSeries is the chart data of one pair: elapsed ms per match, in scan order.
type pairSeries struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// WriteHTMLReport generates a standalone HTML report. diffs feed the per-pair
// charts and may be nil.
func WriteHTMLReport(w io.Writer, session SessionInfo, summaries []evaluate.Summary, diffs []evaluate.Diff, thresholdResults []threshold.Result) error {
	var thresholdSummary *ThresholdSummary
	if len(thresholdResults) > 0 {
		thresholdSummary = &ThresholdSummary{
			Total:   len(thresholdResults),
			Results: make([]ThresholdResultJSON, len(thresholdResults)),
		}
		for i, tr := range thresholdResults {
			thresholdSummary.Results[i] = ThresholdResultJSON{
				Threshold: tr.Threshold.Raw,
				Pair:      tr.Threshold.Pair,
				Aggregate: tr.Threshold.Aggregate,
				Operator:  tr.Threshold.Operator,
				Expected:  tr.Threshold.Value,
				Actual:    tr.Actual,
				Pass:      tr.Pass,
			}
			if tr.Pass {
				thresholdSummary.Passed++
			} else {
				thresholdSummary.Failed++
			}
		}
	}

	seriesJSON, err := json.Marshal(groupSeries(diffs))
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Session:          session,
		Summaries:        summaries,
		ThresholdResults: thresholdResults,
		ThresholdSummary: thresholdSummary,
		SeriesJSON:       string(seriesJSON),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatMs": func(f float64) string {
			return fmt.Sprintf("%.5f", f)
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.4f", f)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

func groupSeries(diffs []evaluate.Diff) []pairSeries {
	series := []pairSeries{}
	index := make(map[string]int)
	for _, d := range diffs {
		label := d.Label()
		i, ok := index[label]
		if !ok {
			i = len(series)
			index[label] = i
			series = append(series, pairSeries{Label: label})
		}
		series[i].Values = append(series[i].Values, d.Ms)
	}
	return series
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>rtperf Session Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f4f6f8;
            color: #1f2933;
            line-height: 1.6;
            padding: 20px;
        }
        .container { max-width: 1200px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; }
        header { background: #243b53; color: white; padding: 24px 32px; }
        header h1 { font-size: 1.8rem; }
        header .meta { opacity: 0.85; font-size: 0.85rem; }
        .content { padding: 32px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; margin-bottom: 32px; }
        .card { background: #f8f9fa; border-radius: 6px; padding: 16px; border-left: 4px solid #486581; }
        .card h3 { font-size: 0.8rem; color: #627d98; text-transform: uppercase; }
        .card .value { font-size: 1.6rem; font-weight: bold; }
        .card.error { border-left-color: #d64545; }
        .section { margin-bottom: 32px; }
        .section h2 { font-size: 1.3rem; margin-bottom: 16px; border-bottom: 2px solid #e4e7eb; }
        .chart { width: 100%; height: 240px; margin-bottom: 24px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px; border-bottom: 1px solid #e4e7eb; font-variant-numeric: tabular-nums; }
        th { background: #f8f9fa; font-size: 0.8rem; text-transform: uppercase; color: #486581; }
        .badge { display: inline-block; padding: 2px 10px; border-radius: 10px; font-size: 0.8rem; font-weight: 600; }
        .badge-success { background: #d1fae5; color: #065f46; }
        .badge-error { background: #fee2e2; color: #991b1b; }
        .no-data { color: #9aa5b1; font-style: italic; }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>rtperf Session Report</h1>
            <div class="meta">Session: {{.Session.ID}} | Clock: {{.Session.Clock}} | Generated: {{.GeneratedAt}}</div>
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Streams</h3>
                    <div class="value">{{.Session.Streams}}</div>
                </div>
                <div class="card">
                    <h3>Recorded</h3>
                    <div class="value">{{.Session.Recorded}}</div>
                </div>
                <div class="card{{if .Session.TotalRejected}} error{{end}}">
                    <h3>Rejected</h3>
                    <div class="value">{{.Session.TotalRejected}}</div>
                </div>
                <div class="card">
                    <h3>Pairs</h3>
                    <div class="value">{{len .Summaries}}</div>
                </div>
            </div>

            <div class="section">
                <h2>Pair Statistics (ms)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Pair</th>
                            <th>Count</th>
                            <th>Min</th>
                            <th>Max</th>
                            <th>Mean</th>
                            <th>Median</th>
                            <th>P90</th>
                            <th>P99</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Summaries}}
                        <tr>
                            <td><strong>{{.Label}}</strong></td>
                            <td>{{.Count}}</td>
                            {{if .NoData}}
                            <td colspan="6" class="no-data">no data</td>
                            {{else}}
                            <td>{{formatMs .Min}}</td>
                            <td>{{formatMs .Max}}</td>
                            <td>{{formatMs .Mean}}</td>
                            <td>{{formatMs .Median}}</td>
                            <td>{{formatMs .P90}}</td>
                            <td>{{formatMs .P99}}</td>
                            {{end}}
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Pair</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold}}</td>
                            <td>{{.Pair}} ({{.Aggregate}})</td>
                            <td>{{.Operator}} {{formatFloat .Expected}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            <div class="section">
                <h2>Elapsed Time per Match</h2>
                <div id="charts"></div>
            </div>
        </div>
    </div>

    <script>
        const series = JSON.parse({{.SeriesJSON}});
        const root = document.getElementById('charts');
        for (const s of series) {
            const el = document.createElement('div');
            el.className = 'chart';
            root.appendChild(el);
            new uPlot({
                title: s.label,
                width: root.offsetWidth,
                height: 220,
                scales: { x: { time: false } },
                series: [
                    { label: "Match" },
                    { label: "ms", stroke: "#486581", width: 1 }
                ],
                axes: [
                    { label: "Match #" },
                    { label: "Elapsed (ms)" }
                ]
            }, [s.values.map((_, i) => i + 1), s.values], el);
        }
    </script>
</body>
</html>
`
