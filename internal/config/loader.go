package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/torosent/rtperf/internal/clock"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// Flags override the config file; a tag catalog named by tags_file is merged
// after both.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Streams:      1,
		Capacity:     defaultCapacity,
		Clock:        string(defaultClock),
		Iterations:   defaultIterations,
		ArrivalModel: ArrivalModelUniform,
		Outputs:      OutputConfig{Console: true},
		LogLevel:     "info",
		LogFormat:    "text",
		Tracing:      TracingConfig{Protocol: defaultTracingProtocol, SampleRate: 1.0},
		ConfigFile:   configPath,
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if path := strings.TrimSpace(cfg.TagsFile); path != "" {
		catalog, err := LoadTagCatalog(path)
		if err != nil {
			return nil, err
		}
		catalog.merge(cfg)
	}

	cfg.normalize()
	return cfg, nil
}

const (
	defaultCapacity        = 10000
	defaultIterations      = 1000
	defaultClock           = clock.StrategyMonotonic
	defaultTracingProtocol = "grpc"
)

// applyConfigSettings decodes the config file settings onto cfg. Keys that
// are absent leave the current value in place.
func applyConfigSettings(cfg *Config, settings map[string]any) error {
	if len(settings) == 0 {
		return nil
	}
	if err := decodeSettings(settings, cfg); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	for id := range cfg.Labels {
		if id < 0 {
			return fmt.Errorf("config file: labels: id %d must be >= 0", id)
		}
	}
	return nil
}

func parsePairSpec(spec string) (PairConfig, error) {
	start, end, ok := strings.Cut(spec, ":")
	if !ok {
		return PairConfig{}, fmt.Errorf("invalid pair %q: expected START:END", spec)
	}
	return PairConfig{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}, nil
}
