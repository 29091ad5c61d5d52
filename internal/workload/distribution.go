// Package workload draws synthetic amounts.
package workload

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrInvalidDistribution = errors.New("invalid distribution")

// Distribution draws integers uniformly from [Min, Max) and divides them by
// Divisor.
type Distribution struct {
	Min     int64   `yaml:"min" json:"min"`
	Max     int64   `yaml:"max" json:"max"`
	Divisor float64 `yaml:"divisor" json:"divisor"`
}

const amountScale = 1_000_000

// InitialAmounts yields fractions in [0, 1) with six decimal digits.
func InitialAmounts() Distribution {
	return Distribution{Min: 0, Max: amountScale, Divisor: amountScale}
}

// GrowthAmounts yields whole amounts well above the initial range.
func GrowthAmounts() Distribution {
	return Distribution{Min: amountScale, Max: 100 * amountScale, Divisor: 1}
}

func (d Distribution) Validate() error {
	if d.Min < 0 {
		return fmt.Errorf("min %d is negative: %w", d.Min, ErrInvalidDistribution)
	}
	if d.Max <= d.Min {
		return fmt.Errorf("max %d must exceed min %d: %w", d.Max, d.Min, ErrInvalidDistribution)
	}
	if d.Divisor <= 0 {
		return fmt.Errorf("divisor %v must be positive: %w", d.Divisor, ErrInvalidDistribution)
	}
	return nil
}

func (d Distribution) Draw(rng *rand.Rand) float64 {
	return float64(d.Min+rng.Int64N(d.Max-d.Min)) / d.Divisor
}

// Generate draws n amounts.
func Generate(rng *rand.Rand, n int, d Distribution) ([]float64, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("count %d is negative: %w", n, ErrInvalidDistribution)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Draw(rng)
	}
	return out, nil
}
