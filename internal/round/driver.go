// Package round drives one simulation step over a bin maintainer.
package round

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/onai/SMTexperiments/internal/bins"
	"github.com/onai/SMTexperiments/internal/workload"
)

var ErrInvalidConfig = errors.New("invalid round configuration")

// Config is fixed for the lifetime of a Driver.
type Config struct {
	// BatchSize is the number of amounts halved, and the number of new
	// amounts appended, per round.
	BatchSize int
	Growth    workload.Distribution
}

type Driver struct {
	cfg    Config
	m      *bins.Maintainer
	rng    *rand.Rand
	logger *zap.Logger

	rounds int
}

// Result describes what one round changed.
type Result struct {
	Round    int
	Halved   int
	Appended int
	Moved    int // halved amounts that ended up in a different bin
}

func NewDriver(cfg Config, m *bins.Maintainer, rng *rand.Rand, logger *zap.Logger) (*Driver, error) {
	if cfg.BatchSize < 0 {
		return nil, fmt.Errorf("batch size %d: %w", cfg.BatchSize, ErrInvalidConfig)
	}
	if err := cfg.Growth.Validate(); err != nil {
		return nil, fmt.Errorf("growth: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{cfg: cfg, m: m, rng: rng, logger: logger}, nil
}

// Round halves BatchSize randomly picked amounts, then appends BatchSize new
// ones. Picks are drawn with replacement from the amounts that exist when
// the round starts.
func (d *Driver) Round() (Result, error) {
	res := Result{Round: d.rounds}
	n := d.m.Amounts().Len()
	if n == 0 && d.cfg.BatchSize > 0 {
		return res, fmt.Errorf("round %d: no amounts to pick from: %w", d.rounds, bins.ErrIndexOutOfRange)
	}

	picks := make([]int, d.cfg.BatchSize)
	for i := range picks {
		picks[i] = d.rng.IntN(n)
	}

	for _, index := range picks {
		old, err := d.m.Amounts().Value(index)
		if err != nil {
			return res, fmt.Errorf("round %d: %w", d.rounds, err)
		}
		from, to, err := d.m.MutateAndRebin(index, math.Floor(old/2))
		if err != nil {
			return res, fmt.Errorf("round %d: halve %d: %w", d.rounds, index, err)
		}
		res.Halved++
		if from != to {
			res.Moved++
		}
	}

	for i := 0; i < d.cfg.BatchSize; i++ {
		if _, _, err := d.m.Append(d.cfg.Growth.Draw(d.rng)); err != nil {
			return res, fmt.Errorf("round %d: append: %w", d.rounds, err)
		}
		res.Appended++
	}

	d.logger.Debug("round complete",
		zap.Int("round", res.Round),
		zap.Int("halved", res.Halved),
		zap.Int("moved", res.Moved),
		zap.Int("appended", res.Appended),
		zap.Int("amounts", d.m.Amounts().Len()))

	d.rounds++
	return res, nil
}

func (d *Driver) Rounds() int { return d.rounds }
