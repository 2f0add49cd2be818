package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/torosent/rtperf/internal/clock"
	"github.com/torosent/rtperf/internal/tag"
)

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type Config struct {
	Streams          int            `mapstructure:"streams"`
	Capacity         int            `mapstructure:"capacity"`
	Clock            string         `mapstructure:"clock"`
	CycleFrequencyHz uint64         `mapstructure:"cycle_hz"`
	Pin              bool           `mapstructure:"pin"`
	Tags             []string       `mapstructure:"tags"`
	Pairs            []PairConfig   `mapstructure:"pairs"`
	Labels           map[int]string `mapstructure:"labels"`
	TagsFile         string         `mapstructure:"tags_file"`
	Iterations       int            `mapstructure:"iterations"`
	Rate             int            `mapstructure:"rate"`
	Duration         time.Duration  `mapstructure:"duration"`
	Work             time.Duration  `mapstructure:"work"`
	Spin             bool           `mapstructure:"spin"`
	ArrivalModel     ArrivalModel   `mapstructure:"arrival_model"`
	Replay           string         `mapstructure:"replay"`
	Check            string         `mapstructure:"check"`
	Outputs          OutputConfig   `mapstructure:"outputs"`
	Thresholds       []string       `mapstructure:"thresholds"`
	LogLevel         string         `mapstructure:"log_level"`
	LogFormat        string         `mapstructure:"log_format"`
	Tracing          TracingConfig  `mapstructure:"tracing"`
	ConfigFile       string         `mapstructure:"-"`
}

// PairConfig names a start and end label to evaluate together.
type PairConfig struct {
	Start string `mapstructure:"start" yaml:"start"`
	End   string `mapstructure:"end" yaml:"end"`
}

// OutputConfig selects the report sinks. Paths may contain {session}, and
// "-" writes to stdout.
type OutputConfig struct {
	Console bool   `mapstructure:"console"`
	CSV     string `mapstructure:"csv"`
	JSON    string `mapstructure:"json"`
	Diff    string `mapstructure:"diff"`
	Entries string `mapstructure:"entries"`
	HTML    string `mapstructure:"html"`
}

// Files reports whether any file sink is configured.
func (o OutputConfig) Files() bool {
	return o.CSV != "" || o.JSON != "" || o.Diff != "" || o.Entries != "" || o.HTML != ""
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether an OTLP endpoint is configured, either directly or
// through OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.Check == "" {
		if len(c.Tags) == 0 && len(c.Pairs) == 0 {
			issues = append(issues, "at least one tag or pair is required (use --help for usage information)")
		}
		if c.Streams < 1 {
			issues = append(issues, "streams must be >= 1")
		}
		if c.Capacity < 1 {
			issues = append(issues, "capacity must be >= 1")
		}
	} else if len(c.Thresholds) == 0 {
		issues = append(issues, "check requires at least one threshold")
	}

	if c.Replay != "" && c.Check != "" {
		issues = append(issues, "replay and check are mutually exclusive")
	}

	strategy, err := clock.ParseStrategy(c.Clock)
	if err != nil {
		issues = append(issues, fmt.Sprintf("clock %q is not supported", c.Clock))
	} else if strategy == clock.StrategyCycles && c.CycleFrequencyHz == 0 {
		issues = append(issues, "clock \"cycles\" requires cycle-hz")
	}

	if c.Iterations < 0 {
		issues = append(issues, "iterations must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Work < 0 {
		issues = append(issues, "work must be >= 0")
	}

	if issue := validateArrivalModel(c.ArrivalModel); issue != "" {
		issues = append(issues, issue)
	}

	issues = append(issues, validateTags(c.Tags, c.Pairs)...)
	issues = append(issues, validateLabels(c.Labels)...)
	issues = append(issues, validateLogging(c.LogLevel, c.LogFormat)...)
	issues = append(issues, validateTracing(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validateArrivalModel(model ArrivalModel) string {
	switch model {
	case "", ArrivalModelUniform, ArrivalModelPoisson:
		return ""
	default:
		return fmt.Sprintf("arrival model %q is not supported", model)
	}
}

func validateTags(tags []string, pairs []PairConfig) []string {
	var issues []string
	seen := make(map[string]bool, len(tags))
	for i, name := range tags {
		name = strings.TrimSpace(name)
		if name == "" {
			issues = append(issues, fmt.Sprintf("tags[%d]: name is required", i))
			continue
		}
		if err := tag.CheckName(name); err != nil {
			issues = append(issues, fmt.Sprintf("tags[%d]: %v", i, err))
		}
		if seen[name] {
			issues = append(issues, fmt.Sprintf("tags[%d]: duplicate name %q", i, name))
		}
		seen[name] = true
	}
	for i, p := range pairs {
		if strings.TrimSpace(p.Start) == "" || strings.TrimSpace(p.End) == "" {
			issues = append(issues, fmt.Sprintf("pairs[%d]: start and end are required", i))
		}
	}
	return issues
}

func validateLabels(labels map[int]string) []string {
	ids := make([]int, 0, len(labels))
	for id := range labels {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var issues []string
	for _, id := range ids {
		if err := tag.CheckLabel(labels[id]); err != nil {
			issues = append(issues, fmt.Sprintf("labels[%d]: %v", id, err))
		}
	}
	return issues
}

func validateLogging(level, format string) []string {
	var issues []string
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("log level %q is not supported", level))
	}
	switch strings.ToLower(format) {
	case "", "text", "json":
	default:
		issues = append(issues, fmt.Sprintf("log format %q is not supported: use \"text\" or \"json\"", format))
	}
	return issues
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported: use \"grpc\" or \"http\"", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}

// AsValidationError unwraps err into a ValidationError.
func AsValidationError(err error) (ValidationError, bool) {
	var verr ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
