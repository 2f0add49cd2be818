package replay

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/torosent/rtperf/internal/clock"
	"github.com/torosent/rtperf/internal/evaluate"
	"github.com/torosent/rtperf/internal/output"
	"github.com/torosent/rtperf/internal/store"
	"github.com/torosent/rtperf/internal/tag"
)

func demoDict() tag.Dictionary {
	defs, _ := tag.Enumerate("DEMO")
	return tag.NewDictionary(defs...)
}

func TestLoad(t *testing.T) {
	input := "DEMO_START,1,0.000000000\n\nDEMO_END,1,0.005000000\nDEMO_START, 2, 1.5\n"

	records, err := Load(strings.NewReader(input), demoDict(), 3)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []Record{
		{Line: 1, Stream: 3, Tag: 0, ID: 1, Timestamp: clock.Instant{}},
		{Line: 3, Stream: 3, Tag: 1, ID: 1, Timestamp: clock.Instant{Nsec: 5_000_000}},
		{Line: 4, Stream: 3, Tag: 0, ID: 2, Timestamp: clock.Instant{Sec: 1, Nsec: 500_000_000}},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown label", "NOPE_START,1,0.0\n"},
		{"bad id", "DEMO_START,x,0.0\n"},
		{"negative id", "DEMO_START,-1,0.0\n"},
		{"bad timestamp", "DEMO_START,1,abc\n"},
		{"too many fields", "DEMO_START,1,0.0,extra\n"},
		{"too few fields", "DEMO_START,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input), demoDict(), 0)
			if !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("Load() error = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestParseInstant(t *testing.T) {
	tests := []struct {
		in      string
		want    clock.Instant
		wantErr bool
	}{
		{in: "0.000000000", want: clock.Instant{}},
		{in: "12.000000042", want: clock.Instant{Sec: 12, Nsec: 42}},
		{in: "3", want: clock.Instant{Sec: 3}},
		{in: "3.25", want: clock.Instant{Sec: 3, Nsec: 250_000_000}},
		{in: "-0.500000000", want: clock.Instant{Sec: -1, Nsec: 500_000_000}},
		{in: "-2.000000000", want: clock.Instant{Sec: -2}},
		{in: "1.0000000001", wantErr: true},
		{in: ".5", wantErr: true},
		{in: "1.-5", wantErr: true},
		{in: "--1.0", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseInstant(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseInstant(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseInstant(%q) = %+v, %v; want %+v", tt.in, got, err, tt.want)
		}
	}
}

func TestParseInstantRoundTrip(t *testing.T) {
	for _, ts := range []clock.Instant{
		{Sec: 0, Nsec: 1},
		{Sec: 59, Nsec: 999_999_999},
		clock.Elapsed(clock.Instant{Sec: 3, Nsec: 700}, clock.Instant{Sec: 1}),
	} {
		got, err := ParseInstant(ts.String())
		if err != nil || got != ts {
			t.Errorf("ParseInstant(%q) = %+v, %v; want %+v", ts.String(), got, err, ts)
		}
	}
}

type recordingAppender struct {
	accepted int
	limit    int
}

func (r *recordingAppender) AppendAt(tag.ID, uint64, int, clock.Instant) error {
	if r.accepted >= r.limit {
		return store.ErrStreamFull
	}
	r.accepted++
	return nil
}

func TestApplyCountsRejections(t *testing.T) {
	records := make([]Record, 5)
	dst := &recordingAppender{limit: 3}
	if rejected := Apply(dst, records); rejected != 2 {
		t.Fatalf("Apply() rejected = %d, want 2", rejected)
	}
	if dst.accepted != 3 {
		t.Fatalf("accepted = %d, want 3", dst.accepted)
	}
}

func TestExportReplayRoundTrip(t *testing.T) {
	for _, name := range []string{"DEMO", "CONTROLLOOP_CYCLE_TIME_MAIN"} {
		t.Run(name, func(t *testing.T) {
			defs, pairs := tag.Enumerate(name)
			dict := tag.NewDictionary(defs...)
			src, err := store.New(store.Config{Streams: 1, Capacity: 8})
			if err != nil {
				t.Fatalf("store.New() error = %v", err)
			}
			defer src.Close()
			_ = src.AppendAt(0, 1, 0, clock.Instant{Sec: 10})
			_ = src.AppendAt(1, 1, 0, clock.Instant{Sec: 10, Nsec: 2_000_000})
			_ = src.AppendAt(0, 2, 0, clock.Instant{Sec: 10, Nsec: 5_000_000})
			_ = src.AppendAt(1, 2, 0, clock.Instant{Sec: 10, Nsec: 12_000_000})

			var buf bytes.Buffer
			if err := output.WriteEntriesCSV(&buf, evaluate.New(src, dict).Entries(nil)); err != nil {
				t.Fatalf("WriteEntriesCSV() error = %v", err)
			}

			records, err := Load(&buf, dict, 0)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			dst, err := store.New(store.Config{Streams: 1, Capacity: 8})
			if err != nil {
				t.Fatalf("store.New() error = %v", err)
			}
			defer dst.Close()
			if rejected := Apply(dst, records); rejected != 0 {
				t.Fatalf("Apply() rejected = %d", rejected)
			}

			before := evaluate.New(src, dict).Summaries(pairs)[0]
			after := evaluate.New(dst, dict).Summaries(pairs)[0]
			if before.Count != 2 {
				t.Fatalf("source count = %d, want 2", before.Count)
			}
			if before.Count != after.Count || before.Min != after.Min || before.Max != after.Max || before.Median != after.Median {
				t.Fatalf("replayed summary %+v differs from source %+v", after, before)
			}
		})
	}
}

func TestApplyToFullStore(t *testing.T) {
	records, err := Load(strings.NewReader("DEMO_START,1,0\nDEMO_END,1,0.1\nDEMO_START,2,0.2\n"), demoDict(), 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s, err := store.New(store.Config{Streams: 1, Capacity: 2})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	if rejected := Apply(s, records); rejected != 1 {
		t.Fatalf("Apply() rejected = %d, want 1", rejected)
	}
	if got := s.ErrorCounts()[0]; got != 1 {
		t.Fatalf("ErrorCounts()[0] = %d, want 1", got)
	}
}
