// Package config holds the validated settings of a simulation run.
package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/onai/SMTexperiments/internal/bins"
	"github.com/onai/SMTexperiments/internal/fidelity"
	"github.com/onai/SMTexperiments/internal/workload"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// fieldError is one invalid setting. It matches ErrInvalidConfiguration and
// unwraps to the underlying cause only, so multierr counts it once.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.field, e.err, ErrInvalidConfiguration)
}

func (e *fieldError) Unwrap() error { return e.err }

func (e *fieldError) Is(target error) bool { return target == ErrInvalidConfiguration }

type Config struct {
	// Core surface
	InitialCount   int    `yaml:"initial_count"`
	BinCount       int    `yaml:"bin_count"`
	RoundBatchSize int    `yaml:"round_batch_size"`
	Seed           uint64 `yaml:"seed"`

	// Run shape
	Rounds              int    `yaml:"rounds"`
	Strategy            string `yaml:"strategy"`
	HistogramBuckets    int    `yaml:"histogram_buckets"`
	PartitionIterations int    `yaml:"partition_iterations"`

	// Amount distributions
	Initial workload.Distribution `yaml:"initial"`
	Growth  workload.Distribution `yaml:"growth"`
}

func Default() Config {
	return Config{
		InitialCount:        128000,
		BinCount:            128,
		RoundBatchSize:      100,
		Seed:                1,
		Rounds:              100,
		Strategy:            bins.StrategyLinear,
		HistogramBuckets:    fidelity.DefaultBuckets,
		PartitionIterations: 300,
		Initial:             workload.InitialAmounts(),
		Growth:              workload.GrowthAmounts(),
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem at once. Each one wraps
// ErrInvalidConfiguration.
func (c Config) Validate() error {
	var errs error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %d: %w", name, v, ErrInvalidConfiguration))
		}
	}
	positive("initial_count", c.InitialCount)
	positive("bin_count", c.BinCount)
	positive("round_batch_size", c.RoundBatchSize)
	positive("rounds", c.Rounds)
	positive("histogram_buckets", c.HistogramBuckets)
	positive("partition_iterations", c.PartitionIterations)

	if _, err := bins.NewFinder(c.Strategy); err != nil {
		errs = multierr.Append(errs, &fieldError{field: "strategy", err: err})
	}
	if err := c.Initial.Validate(); err != nil {
		errs = multierr.Append(errs, &fieldError{field: "initial", err: err})
	}
	if err := c.Growth.Validate(); err != nil {
		errs = multierr.Append(errs, &fieldError{field: "growth", err: err})
	}
	return errs
}
