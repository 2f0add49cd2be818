// Package tag defines event tag identifiers, their human-readable labels and
// the start/end pairs evaluated by the engine.
package tag

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxLabelLen is the maximum label length in bytes. Longer labels are
// truncated silently at a rune boundary.
const MaxLabelLen = 24

const (
	startSuffix = "_START"
	endSuffix   = "_END"
)

// MaxNameLen is the longest name Enumerate expands without truncation. Longer
// names are cut to it so that NAME_START and NAME_END stay distinct.
const MaxNameLen = MaxLabelLen - len(startSuffix)

// reserved are the CSV separators and quoting characters used by the
// exporters.
const reserved = ";,\"\r\n"

// ID identifies an event class. Values are chosen by the caller.
type ID int

// Definition attaches a label to a tag.
type Definition struct {
	Tag   ID
	Label string
}

// Define returns a Definition with the label bounded to MaxLabelLen.
func Define(id ID, label string) Definition {
	return Definition{Tag: id, Label: Truncate(label)}
}

// Pair is a start/end tag combination whose matched-by-id latency is measured.
type Pair struct {
	Start ID
	End   ID
}

// Truncate cuts s to at most MaxLabelLen bytes without splitting a rune.
func Truncate(s string) string {
	return truncate(s, MaxLabelLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// CheckLabel reports an error when label would not be written verbatim by
// the CSV exporters or read back by replay.
func CheckLabel(label string) error {
	if label == "" {
		return errors.New("label is empty")
	}
	if label != strings.TrimSpace(label) {
		return fmt.Errorf("label %q has leading or trailing space", label)
	}
	if i := strings.IndexAny(label, reserved); i >= 0 {
		return fmt.Errorf("label %q contains reserved character %q", label, label[i])
	}
	if label == `\.` {
		return fmt.Errorf("label %q is reserved", label)
	}
	return nil
}

// CheckName is CheckLabel for names passed to Enumerate, which must also fit
// in MaxNameLen.
func CheckName(name string) error {
	if len(name) > MaxNameLen {
		return fmt.Errorf("name %q is longer than %d bytes", name, MaxNameLen)
	}
	return CheckLabel(name)
}

// Dictionary resolves tags to labels. The zero value is an empty dictionary.
type Dictionary struct {
	labels map[ID]string
	byName map[string]ID
}

// NewDictionary builds a dictionary from defs. When a tag is defined more than
// once the first definition wins.
func NewDictionary(defs ...Definition) Dictionary {
	d := Dictionary{
		labels: make(map[ID]string, len(defs)),
		byName: make(map[string]ID, len(defs)),
	}
	for _, def := range defs {
		if _, ok := d.labels[def.Tag]; ok {
			continue
		}
		label := Truncate(def.Label)
		d.labels[def.Tag] = label
		if _, ok := d.byName[label]; !ok {
			d.byName[label] = def.Tag
		}
	}
	return d
}

// Label returns the label for id, or "" when it is not defined.
func (d Dictionary) Label(id ID) string {
	return d.labels[id]
}

// Lookup returns the tag carrying label.
func (d Dictionary) Lookup(label string) (ID, bool) {
	id, ok := d.byName[label]
	return id, ok
}

// PairLabel returns "<start>-<end>".
func (d Dictionary) PairLabel(p Pair) string {
	return d.Label(p.Start) + "-" + d.Label(p.End)
}

// Len returns the number of defined tags.
func (d Dictionary) Len() int {
	return len(d.labels)
}

// Enumerate generates NAME_START/NAME_END definitions for each name, with
// ids 2i and 2i+1, and the matching pairs. Names are cut to MaxNameLen.
func Enumerate(names ...string) ([]Definition, []Pair) {
	defs := make([]Definition, 0, len(names)*2)
	pairs := make([]Pair, 0, len(names))
	for i, name := range names {
		name = truncate(strings.TrimSpace(name), MaxNameLen)
		start, end := ID(2*i), ID(2*i+1)
		defs = append(defs,
			Define(start, name+startSuffix),
			Define(end, name+endSuffix),
		)
		pairs = append(pairs, Pair{Start: start, End: end})
	}
	return defs, pairs
}

// PairByName resolves a pair from two labels.
func (d Dictionary) PairByName(start, end string) (Pair, error) {
	s, ok := d.Lookup(start)
	if !ok {
		return Pair{}, fmt.Errorf("unknown start tag %q", start)
	}
	e, ok := d.Lookup(end)
	if !ok {
		return Pair{}, fmt.Errorf("unknown end tag %q", end)
	}
	return Pair{Start: s, End: e}, nil
}

// StartEnd returns the tag ids generated by Enumerate for name.
func (d Dictionary) StartEnd(name string) (Pair, error) {
	name = truncate(strings.TrimSpace(name), MaxNameLen)
	return d.PairByName(name+startSuffix, name+endSuffix)
}
