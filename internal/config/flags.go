package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rtperf",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Session flags
	flags.Int("streams", 1, "Number of independent event streams (one per recording context)")
	flags.Int("capacity", defaultCapacity, "Entries reserved per stream")
	flags.String("clock", "monotonic", "Clock strategy: 'monotonic', 'wall', or 'cycles'")
	flags.Uint64("cycle-hz", 0, "Calibrated cycle counter frequency in Hz (required for --clock cycles)")
	flags.Bool("pin", false, "Lock the entry buffer in memory")

	// Tag flags
	flags.StringSlice("tag", nil, "Tag name expanded to NAME_START/NAME_END (repeatable)")
	flags.StringSlice("pair", nil, "Additional pair to evaluate as START:END labels (repeatable)")
	flags.String("tags-file", "", "Path to a YAML tag catalog")

	// Workload flags
	flags.IntP("iterations", "n", defaultIterations, "Number of workload iterations (0 means unlimited)")
	flags.IntP("rate", "r", 0, "Iterations per second limit (0 means unlimited)")
	flags.DurationP("duration", "d", 0, "How long to run the workload (e.g. 30s, 1m)")
	flags.Duration("work", 0, "Time spent between the start and end tag of each iteration")
	flags.Bool("spin", false, "Busy-wait for --work instead of sleeping")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model to use when pacing iterations (uniform or poisson)")

	// Mode flags
	flags.String("replay", "", "Load recorded entries from an entries CSV instead of running the workload")
	flags.String("check", "", "Evaluate thresholds against an existing JSON report")

	// Output flags
	flags.String("csv", "", "Write the summary CSV to this path ('-' for stdout)")
	flags.String("json", "", "Write the summary JSON to this path ('-' for stdout)")
	flags.String("diff", "", "Write per-occurrence differences to this path")
	flags.String("entries", "", "Write raw entries to this path")
	flags.String("html", "", "Generate HTML report to the specified file path")
	flags.BoolP("quiet", "q", false, "Suppress the console report and progress output")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Performance thresholds (repeatable, e.g., 'PARSE:p99 < 2')")

	// Logging flags
	flags.String("log-level", "info", "Log level: debug, info, warn, or error")
	flags.String("log-format", "text", "Log format: text or json")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (e.g. localhost:4317)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.String("tracing-service-name", "", "Service name reported with spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of traces to sample (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Disable TLS to the OTLP collector")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("streams") {
		val, err := fs.GetInt("streams")
		if err != nil {
			return err
		}
		cfg.Streams = val
	}
	if fs.Changed("capacity") {
		val, err := fs.GetInt("capacity")
		if err != nil {
			return err
		}
		cfg.Capacity = val
	}
	if fs.Changed("clock") {
		val, err := fs.GetString("clock")
		if err != nil {
			return err
		}
		cfg.Clock = val
	}
	if fs.Changed("cycle-hz") {
		val, err := fs.GetUint64("cycle-hz")
		if err != nil {
			return err
		}
		cfg.CycleFrequencyHz = val
	}
	if fs.Changed("pin") {
		val, err := fs.GetBool("pin")
		if err != nil {
			return err
		}
		cfg.Pin = val
	}
	if fs.Changed("tag") {
		val, err := fs.GetStringSlice("tag")
		if err != nil {
			return err
		}
		cfg.Tags = val
	}
	if fs.Changed("pair") {
		val, err := fs.GetStringSlice("pair")
		if err != nil {
			return err
		}
		pairs := make([]PairConfig, 0, len(val))
		for _, spec := range val {
			pair, err := parsePairSpec(spec)
			if err != nil {
				return err
			}
			pairs = append(pairs, pair)
		}
		cfg.Pairs = pairs
	}
	if fs.Changed("tags-file") {
		val, err := fs.GetString("tags-file")
		if err != nil {
			return err
		}
		cfg.TagsFile = val
	}
	if fs.Changed("iterations") {
		val, err := fs.GetInt("iterations")
		if err != nil {
			return err
		}
		cfg.Iterations = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("work") {
		val, err := fs.GetDuration("work")
		if err != nil {
			return err
		}
		cfg.Work = val
	}
	if fs.Changed("spin") {
		val, err := fs.GetBool("spin")
		if err != nil {
			return err
		}
		cfg.Spin = val
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.ArrivalModel = ArrivalModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("replay") {
		val, err := fs.GetString("replay")
		if err != nil {
			return err
		}
		cfg.Replay = val
	}
	if fs.Changed("check") {
		val, err := fs.GetString("check")
		if err != nil {
			return err
		}
		cfg.Check = val
	}

	outputs := []struct {
		flag string
		dst  *string
	}{
		{"csv", &cfg.Outputs.CSV},
		{"json", &cfg.Outputs.JSON},
		{"diff", &cfg.Outputs.Diff},
		{"entries", &cfg.Outputs.Entries},
		{"html", &cfg.Outputs.HTML},
	}
	for _, o := range outputs {
		if !fs.Changed(o.flag) {
			continue
		}
		val, err := fs.GetString(o.flag)
		if err != nil {
			return err
		}
		*o.dst = strings.TrimSpace(val)
	}
	if fs.Changed("quiet") {
		val, err := fs.GetBool("quiet")
		if err != nil {
			return err
		}
		cfg.Outputs.Console = !val
	}

	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(val))
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}

	return nil
}
