package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TagCatalog is a YAML file describing the tags of an instrumented program:
//
//	tags: [PARSE, SOLVE]
//	pairs:
//	  - {start: PARSE_START, end: SOLVE_END}
//	labels:
//	  100: FLUSH
type TagCatalog struct {
	Tags   []string       `yaml:"tags"`
	Pairs  []PairConfig   `yaml:"pairs"`
	Labels map[int]string `yaml:"labels"`
}

// LoadTagCatalog reads a tag catalog. Unknown keys are rejected.
func LoadTagCatalog(path string) (*TagCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag catalog: %w", err)
	}

	var catalog TagCatalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse tag catalog: %w", err)
	}

	for id, label := range catalog.Labels {
		if id < 0 {
			return nil, fmt.Errorf("tag catalog: label id %d must be >= 0", id)
		}
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("tag catalog: label %d is empty", id)
		}
	}
	return &catalog, nil
}

// merge appends the catalog after whatever the config already defines.
func (c *TagCatalog) merge(cfg *Config) {
	cfg.Tags = append(cfg.Tags, c.Tags...)
	cfg.Pairs = append(cfg.Pairs, c.Pairs...)
	if len(c.Labels) == 0 {
		return
	}
	if cfg.Labels == nil {
		cfg.Labels = make(map[int]string, len(c.Labels))
	}
	for id, label := range c.Labels {
		if _, exists := cfg.Labels[id]; !exists {
			cfg.Labels[id] = label
		}
	}
}
