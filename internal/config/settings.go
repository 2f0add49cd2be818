// Package config loads rtperf settings from flags, an optional config file
// and an optional YAML tag catalog.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	pairType     = reflect.TypeOf(PairConfig{})
)

// decodeSettings decodes config file settings into out through the
// mapstructure tags on Config. Keys match tags ignoring case, '_' and '-', so
// cycle_hz, cycleHz and cycle-hz are the same key.
func decodeSettings(settings map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		MatchName:        matchKey,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			rejectNegativeUnsigned,
			secondsToDuration,
			mapstructure.StringToTimeDurationHookFunc(),
			pairShorthand,
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(settings)
}

func matchKey(key, field string) bool {
	return strings.EqualFold(foldKey(key), foldKey(field))
}

func foldKey(s string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(strings.TrimSpace(s))
}

// rejectNegativeUnsigned stops weak typing from wrapping -1 into a huge
// cycle frequency.
func rejectNegativeUnsigned(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	v := reflect.ValueOf(data)
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() < 0 {
			return nil, fmt.Errorf("must be >= 0, got %d", v.Int())
		}
	case reflect.Float32, reflect.Float64:
		if v.Float() < 0 {
			return nil, fmt.Errorf("must be >= 0, got %g", v.Float())
		}
	}
	return data, nil
}

// secondsToDuration reads bare numbers as seconds ("duration: 30") and an
// empty string as zero.
func secondsToDuration(from, to reflect.Type, data any) (any, error) {
	if to != durationType || from == durationType {
		return data, nil
	}
	v := reflect.ValueOf(data)
	switch from.Kind() {
	case reflect.String:
		if strings.TrimSpace(v.String()) == "" {
			return time.Duration(0), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(v.Int()) * time.Second, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(v.Uint()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(v.Float() * float64(time.Second)), nil
	}
	return data, nil
}

// pairShorthand accepts "START:END" wherever a {start, end} pair is expected.
func pairShorthand(from, to reflect.Type, data any) (any, error) {
	if to != pairType || from.Kind() != reflect.String {
		return data, nil
	}
	return parsePairSpec(reflect.ValueOf(data).String())
}

// normalize trims and lower-cases free-form values and restores defaults
// that a config file blanked out.
func (c *Config) normalize() {
	c.Clock = strings.ToLower(strings.TrimSpace(c.Clock))
	if c.Clock == "" {
		c.Clock = string(defaultClock)
	}
	c.ArrivalModel = ArrivalModel(strings.ToLower(strings.TrimSpace(string(c.ArrivalModel))))
	if c.ArrivalModel == "" {
		c.ArrivalModel = ArrivalModelUniform
	}
	c.TagsFile = strings.TrimSpace(c.TagsFile)
	c.Replay = strings.TrimSpace(c.Replay)
	c.Check = strings.TrimSpace(c.Check)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	for i := range c.Pairs {
		c.Pairs[i].Start = strings.TrimSpace(c.Pairs[i].Start)
		c.Pairs[i].End = strings.TrimSpace(c.Pairs[i].End)
	}
	for id, label := range c.Labels {
		c.Labels[id] = strings.TrimSpace(label)
	}

	o := &c.Outputs
	for _, path := range []*string{&o.CSV, &o.JSON, &o.Diff, &o.Entries, &o.HTML} {
		*path = strings.TrimSpace(*path)
	}

	c.Tracing.Endpoint = strings.TrimSpace(c.Tracing.Endpoint)
	c.Tracing.ServiceName = strings.TrimSpace(c.Tracing.ServiceName)
	c.Tracing.Protocol = strings.ToLower(strings.TrimSpace(c.Tracing.Protocol))
	if c.Tracing.Protocol == "" {
		c.Tracing.Protocol = defaultTracingProtocol
	}
}
