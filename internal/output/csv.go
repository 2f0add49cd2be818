package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/torosent/rtperf/internal/evaluate"
)

// WriteSummaryCSV writes one semicolon separated row per pair. Statistics of
// a pair without data are left empty.
//
// Labels accepted by tag.CheckLabel are written verbatim. Any other label is
// quoted by encoding/csv so that the row still parses.
func WriteSummaryCSV(w io.Writer, summaries []evaluate.Summary) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"TAGS", "COUNT", "MIN", "MAX", "AVG", "MEDIAN"}); err != nil {
		return err
	}
	for _, s := range summaries {
		row := []string{s.Label, strconv.Itoa(s.Count), "", "", "", ""}
		if !s.NoData {
			row[2] = formatFixed(s.Min, 10)
			row[3] = formatFixed(s.Max, 10)
			row[4] = formatFixed(s.Mean, 10)
			row[5] = formatFixed(s.Median, 10)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDiffCSV writes every matched pair as "start;end;ms".
func WriteDiffCSV(w io.Writer, diffs []evaluate.Diff) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"TAGS", "DIFF"}); err != nil {
		return err
	}
	for _, d := range diffs {
		if err := cw.Write([]string{d.StartLabel, d.EndLabel, formatFixed(d.Ms, 12)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEntriesCSV writes raw entries as "label,id,sec.nnnnnnnnn" without a
// header. The output can be fed back through the replay package.
func WriteEntriesCSV(w io.Writer, rows []evaluate.Row) error {
	cw := csv.NewWriter(w)
	for _, r := range rows {
		if err := cw.Write([]string{r.Label, strconv.FormatUint(r.ID, 10), r.Relative.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	return nil
}

func formatFixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
