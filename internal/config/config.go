// Package config loads solver settings from YAML or JSON files and applies
// command-line overrides on top.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/edp1096/circuit-sim/pkg/analysis"
	"github.com/edp1096/circuit-sim/pkg/linsolve"
	"gopkg.in/yaml.v3"
)

// Load reads path onto analysis.DefaultConfig. Keys absent from the file
// keep their defaults; unknown keys are rejected.
func Load(path string) (analysis.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return analysis.Config{}, fmt.Errorf("reading config: %v", err)
	}

	cfg, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data by extension: ".json" is JSON, anything else YAML.
func Decode(data []byte, ext string) (analysis.Config, error) {
	cfg := analysis.DefaultConfig()

	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("%w: %v", analysis.ErrInvalidConfig, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document leaves the defaults alone.
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("%w: %v", analysis.ErrInvalidConfig, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Overrides are command-line settings. Zero values leave the config as is.
type Overrides struct {
	Mode       string
	Solver     string
	Dt         float64
	NTimesteps int
	MaxNRIters int
	Adaptive   bool
}

func (o Overrides) Apply(cfg analysis.Config) (analysis.Config, error) {
	var err error

	if o.Mode != "" {
		if cfg.Mode, err = analysis.ParseMode(o.Mode); err != nil {
			return cfg, err
		}
	}
	if o.Solver != "" {
		if cfg.LinearSolver, err = linsolve.ParseMethod(o.Solver); err != nil {
			return cfg, err
		}
	}
	if o.Dt > 0 {
		cfg.Dt = o.Dt
	}
	if o.NTimesteps > 0 {
		cfg.NTimesteps = o.NTimesteps
	}
	if o.MaxNRIters > 0 {
		cfg.MaxNRIters = o.MaxNRIters
	}
	if o.Adaptive {
		cfg.AdaptiveStepSize = true
	}

	return cfg, cfg.Validate()
}
