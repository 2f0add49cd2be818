// Package replay loads entries exported as "label,id,sec.nnnnnnnnn" rows and
// feeds them back into a store, so a recorded run can be evaluated offline.
package replay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/torosent/rtperf/internal/clock"
	"github.com/torosent/rtperf/internal/tag"
)

// ErrMalformedRecord is returned for rows that cannot be parsed.
var ErrMalformedRecord = errors.New("malformed entry record")

// Record is one parsed row.
type Record struct {
	Line      int
	Stream    int
	Tag       tag.ID
	ID        uint64
	Timestamp clock.Instant
}

// Appender is the part of a store used by Apply. *store.Session satisfies it.
type Appender interface {
	AppendAt(t tag.ID, id uint64, stream int, ts clock.Instant) error
}

// Load parses every row of r. Labels are resolved through dict; every record
// is assigned to stream. Blank lines are skipped.
func Load(r io.Reader, dict tag.Dictionary, stream int) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		line, _ := reader.FieldPos(0)

		rec, err := parseRow(row, dict)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		rec.Line = line
		rec.Stream = stream
		records = append(records, rec)
	}
	return records, nil
}

// Apply appends records in order using their recorded timestamps and returns
// how many the store rejected.
func Apply(dst Appender, records []Record) int {
	rejected := 0
	for _, rec := range records {
		if err := dst.AppendAt(rec.Tag, rec.ID, rec.Stream, rec.Timestamp); err != nil {
			rejected++
		}
	}
	return rejected
}

func parseRow(row []string, dict tag.Dictionary) (Record, error) {
	label := strings.TrimSpace(row[0])
	t, ok := dict.Lookup(label)
	if !ok {
		return Record{}, fmt.Errorf("unknown tag %q", label)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(row[1]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid id %q: %w", row[1], err)
	}
	ts, err := ParseInstant(strings.TrimSpace(row[2]))
	if err != nil {
		return Record{}, err
	}
	return Record{Tag: t, ID: id, Timestamp: ts}, nil
}

// ParseInstant parses "sec.nnnnnnnnn" (optionally negative) as written by
// clock.Instant.String. Fewer than nine fractional digits are accepted.
func ParseInstant(s string) (clock.Instant, error) {
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	secPart, fracPart, _ := strings.Cut(body, ".")
	if secPart == "" || len(fracPart) > 9 {
		return clock.Instant{}, fmt.Errorf("invalid timestamp %q", s)
	}
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil || sec < 0 {
		return clock.Instant{}, fmt.Errorf("invalid timestamp %q", s)
	}
	var nsec int64
	if fracPart != "" {
		nsec, err = strconv.ParseInt(fracPart+strings.Repeat("0", 9-len(fracPart)), 10, 64)
		if err != nil || nsec < 0 {
			return clock.Instant{}, fmt.Errorf("invalid timestamp %q", s)
		}
	}

	ts := clock.Instant{Sec: sec, Nsec: nsec}
	if neg {
		ts = clock.Elapsed(ts, clock.Instant{})
	}
	return ts, nil
}
