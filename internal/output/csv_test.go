package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/torosent/rtperf/internal/clock"
	"github.com/torosent/rtperf/internal/evaluate"
	"github.com/torosent/rtperf/internal/tag"
)

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, sampleSummaries()); err != nil {
		t.Fatalf("WriteSummaryCSV() error = %v", err)
	}

	want := "TAGS;COUNT;MIN;MAX;AVG;MEDIAN\n" +
		"DEMO_START-DEMO_END;2;2.0000000000;5.0000000000;3.5000000000;3.5000000000\n" +
		"IDLE_START-IDLE_END;0;;;;\n"
	if buf.String() != want {
		t.Errorf("WriteSummaryCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteSummaryCSVWritesCheckedLabelsVerbatim(t *testing.T) {
	for _, label := range []string{"LOOP A_START-LOOP A_END", "ÉTAPE_START-ÉTAPE_END", "x-y"} {
		if err := tag.CheckLabel(label); err != nil {
			t.Fatalf("CheckLabel(%q) error = %v", label, err)
		}
		var buf bytes.Buffer
		if err := WriteSummaryCSV(&buf, []evaluate.Summary{{Label: label, NoData: true}}); err != nil {
			t.Fatalf("WriteSummaryCSV() error = %v", err)
		}
		if row := strings.Split(buf.String(), "\n")[1]; row != label+";0;;;;" {
			t.Errorf("row = %q, want label written verbatim", row)
		}
	}
}

func TestWriteDiffCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDiffCSV(&buf, sampleDiffs()); err != nil {
		t.Fatalf("WriteDiffCSV() error = %v", err)
	}

	want := "TAGS;DIFF\n" +
		"DEMO_START;DEMO_END;5.000000000000\n" +
		"DEMO_START;DEMO_END;2.000000000000\n"
	if buf.String() != want {
		t.Errorf("WriteDiffCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteEntriesCSV(t *testing.T) {
	rows := []evaluate.Row{
		{Label: "DEMO_START", ID: 1, Relative: clock.Instant{}},
		{Label: "DEMO_END", ID: 1, Relative: clock.Instant{Sec: 1, Nsec: 5}},
		{Label: "", ID: 18446744073709551615, Relative: clock.Instant{Sec: 0, Nsec: 123_456_789}},
	}

	var buf bytes.Buffer
	if err := WriteEntriesCSV(&buf, rows); err != nil {
		t.Fatalf("WriteEntriesCSV() error = %v", err)
	}

	want := "DEMO_START,1,0.000000000\n" +
		"DEMO_END,1,1.000000005\n" +
		",18446744073709551615,0.123456789\n"
	if buf.String() != want {
		t.Errorf("WriteEntriesCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, nil); err != nil {
		t.Fatalf("WriteSummaryCSV() error = %v", err)
	}
	if buf.String() != "TAGS;COUNT;MIN;MAX;AVG;MEDIAN\n" {
		t.Errorf("expected header only, got %q", buf.String())
	}

	buf.Reset()
	if err := WriteEntriesCSV(&buf, nil); err != nil {
		t.Fatalf("WriteEntriesCSV() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
