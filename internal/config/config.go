// Package config loads run and sweep settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"pdcoea/internal/coea"
	"pdcoea/internal/game"
	"pdcoea/internal/sweep"
)

// File is the top-level configuration document.
type File struct {
	Logging LoggingConfig `yaml:"logging"`
	Run     RunConfig     `yaml:"run"`
	Sweep   SweepConfig   `yaml:"sweep"`
}

type LoggingConfig struct {
	// Level is one of "info" (default), "debug", "trace", "warn" or "error".
	Level string `yaml:"level"`
}

// RunConfig configures a single engine run.
type RunConfig struct {
	Game           string  `yaml:"game"`
	PopulationSize int     `yaml:"population_size"`
	N              int     `yaml:"n"`
	Chi            float64 `yaml:"chi"`
	MaxPayoffEvals Count   `yaml:"max_payoff_evals"`
	Seed           int64   `yaml:"seed"`
	// Plot opens the live terminal scatter of both populations.
	Plot bool `yaml:"plot"`
	// Trace records per-generation statistics into the run record.
	Trace bool `yaml:"trace"`
}

func (r RunConfig) Engine() coea.Config {
	return coea.Config{
		PopulationSize: r.PopulationSize,
		N:              r.N,
		Chi:            r.Chi,
		MaxPayoffEvals: int64(r.MaxPayoffEvals),
	}
}

func (r RunConfig) Validate() error {
	if _, err := game.Lookup(r.Game); err != nil {
		return err
	}
	return r.Engine().Validate()
}

// IntRange is a half-open arithmetic progression [Start, Stop) by Step.
type IntRange struct {
	Start int `yaml:"start"`
	Stop  int `yaml:"stop"`
	Step  int `yaml:"step"`
}

// FloatRange is a half-open arithmetic progression [Start, Stop) by Step.
type FloatRange struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Step  float64 `yaml:"step"`
}

// SweepConfig configures a heatmap experiment. Explicit lists take
// precedence over ranges.
type SweepConfig struct {
	Game                string     `yaml:"game"`
	N                   int        `yaml:"n"`
	PopulationSizes     []int      `yaml:"population_sizes"`
	PopulationSizeRange IntRange   `yaml:"population_size_range"`
	Chis                []float64  `yaml:"chis"`
	ChiRange            FloatRange `yaml:"chi_range"`
	Trials              int        `yaml:"trials"`
	MaxPayoffEvals      Count      `yaml:"max_payoff_evals"`
	Seed                int64      `yaml:"seed"`
	Workers             int        `yaml:"workers"`
}

func (s SweepConfig) Grid() sweep.Grid {
	sizes := s.PopulationSizes
	if len(sizes) == 0 {
		sizes = sweep.IntRange(s.PopulationSizeRange.Start, s.PopulationSizeRange.Stop, s.PopulationSizeRange.Step)
	}
	chis := s.Chis
	if len(chis) == 0 {
		chis = sweep.FloatRange(s.ChiRange.Start, s.ChiRange.Stop, s.ChiRange.Step)
	}
	return sweep.Grid{
		N:               s.N,
		PopulationSizes: append([]int(nil), sizes...),
		Chis:            append([]float64(nil), chis...),
		Trials:          s.Trials,
		MaxPayoffEvals:  int64(s.MaxPayoffEvals),
	}
}

func (s SweepConfig) Validate() error {
	if _, err := game.Lookup(s.Game); err != nil {
		return err
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", s.Workers)
	}
	return s.Grid().Validate()
}

// Default returns the settings of the reference experiments.
func Default() *File {
	return &File{
		Logging: LoggingConfig{Level: "info"},
		Run: RunConfig{
			Game:           game.DiagonalName,
			PopulationSize: 500,
			N:              100,
			Chi:            0.3,
			MaxPayoffEvals: 10_000_000,
			Seed:           1,
		},
		Sweep: SweepConfig{
			Game:                game.DiagonalName,
			N:                   100,
			PopulationSizeRange: IntRange{Start: 50, Stop: 100, Step: 10},
			ChiRange:            FloatRange{Start: 0.1, Stop: 0.6, Step: 0.1},
			Trials:              10,
			MaxPayoffEvals:      100_000_000,
			Seed:                1,
			Workers:             1,
		},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Count is an evaluation count that also accepts integral scientific
// notation such as 1e7, in YAML and on the command line.
type Count int64

func ParseCount(s string) (Count, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Count(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	if f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		return 0, fmt.Errorf("count %q is not an integer", s)
	}
	return Count(f), nil
}

func (c *Count) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: count must be a scalar", node.Line)
	}
	v, err := ParseCount(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = v
	return nil
}

func (c *Count) Set(s string) error {
	v, err := ParseCount(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c *Count) String() string {
	return strconv.FormatInt(int64(*c), 10)
}

func (c *Count) Type() string {
	return "count"
}
