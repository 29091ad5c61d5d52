// Package simulation wires generation, partitioning, rounds and scoring
// into one run.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"go.uber.org/zap"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
	"github.com/onai/SMTexperiments/internal/amounts"
	"github.com/onai/SMTexperiments/internal/bins"
	"github.com/onai/SMTexperiments/internal/config"
	"github.com/onai/SMTexperiments/internal/fidelity"
	"github.com/onai/SMTexperiments/internal/partition"
	"github.com/onai/SMTexperiments/internal/round"
	"github.com/onai/SMTexperiments/internal/workload"
)

// Observation is one scored round handed to the sink.
type Observation struct {
	Round bsimv1.Round
	Diffs []float64
}

// Sink receives every round record in order. Returning an error halts the run.
type Sink func(Observation) error

type Simulation struct {
	cfg         config.Config
	logger      *zap.Logger
	partitioner partition.Partitioner

	m      *bins.Maintainer
	driver *round.Driver
}

type Option func(*Simulation)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// WithPartitioner replaces the default k-means partitioner.
func WithPartitioner(p partition.Partitioner) Option {
	return func(s *Simulation) {
		s.partitioner = p
	}
}

// New validates cfg, generates the initial amounts and partitions them.
func New(cfg config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.partitioner == nil {
		s.partitioner = partition.NewKMeans(
			partition.WithMaxIterations(cfg.PartitionIterations),
			partition.WithLogger(s.logger))
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))

	values, err := workload.Generate(rng, cfg.InitialCount, cfg.Initial)
	if err != nil {
		return nil, fmt.Errorf("generate amounts: %w", err)
	}
	res, err := s.partitioner.Partition(values, cfg.BinCount)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}

	finder, err := bins.NewFinder(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	state, err := bins.NewState(values, res.Centers, res.Assignment,
		bins.WithFinder(finder),
		bins.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("seed bins: %w", err)
	}
	coll, err := amounts.New(values)
	if err != nil {
		return nil, err
	}
	if s.m, err = bins.NewMaintainer(coll, state); err != nil {
		return nil, err
	}

	s.driver, err = round.NewDriver(round.Config{
		BatchSize: cfg.RoundBatchSize,
		Growth:    cfg.Growth,
	}, s.m, rng, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.Info("simulation ready",
		zap.Int("amounts", coll.Len()),
		zap.Int("bins", state.K()),
		zap.Int("live_bins", state.Live()),
		zap.String("strategy", state.Strategy()))
	return s, nil
}

func (s *Simulation) Maintainer() *bins.Maintainer { return s.m }

// Run scores the state and then runs one round, cfg.Rounds times. Round i
// is scored before its mutations. It returns the score of the state left
// after the last round.
func (s *Simulation) Run(ctx context.Context, sink Sink) (Observation, error) {
	var moved *int
	for i := 0; i < s.cfg.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			return Observation{}, err
		}

		obs, err := s.Observe(i)
		if err != nil {
			return Observation{}, err
		}
		obs.Round.Moved = moved
		s.logger.Debug("scored round",
			zap.Int("round", i),
			zap.Float64("error", obs.Round.Error),
			zap.Int("live_bins", obs.Round.LiveBins))
		if sink != nil {
			if err := sink(obs); err != nil {
				return Observation{}, fmt.Errorf("round %d: %w", i, err)
			}
		}

		res, err := s.driver.Round()
		if err != nil {
			return Observation{}, err
		}
		moved = &res.Moved
	}

	final, err := s.Observe(s.cfg.Rounds)
	if err != nil {
		return Observation{}, err
	}
	final.Round.Moved = moved
	return final, nil
}

// Observe scores the current state without changing it.
func (s *Simulation) Observe(index int) (Observation, error) {
	score, err := fidelity.Score(s.m.Amounts(), s.m.State())
	if err != nil {
		return Observation{}, fmt.Errorf("round %d: %w", index, err)
	}
	state := s.m.State()
	return Observation{
		Round: bsimv1.Round{
			Index:           index,
			Error:           score.Error,
			ErrorHistogram:  fidelity.Histogram(score.Diffs, s.cfg.HistogramBuckets),
			AmountHistogram: fidelity.Histogram(s.m.Amounts().Values(), s.cfg.HistogramBuckets),
			Amounts:         s.m.Amounts().Len(),
			LiveBins:        state.Live(),
			Digest:          strconv.FormatUint(state.Digest(), 16),
		},
		Diffs: score.Diffs,
	}, nil
}
