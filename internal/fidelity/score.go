// Package fidelity scores how well bin centers approximate each amount's
// share of the total.
package fidelity

import (
	"errors"
	"fmt"

	"github.com/onai/SMTexperiments/internal/bins"
)

var ErrZeroTotal = errors.New("amounts sum to zero")

type Amounts interface {
	Values() []float64
}

type Bins interface {
	K() int
	Assignment(index int) (int, error)
	Center(id int) (float64, error)
}

type Result struct {
	// Error is the sum of squared differences between the true and the
	// approximated share of every amount.
	Error float64
	// Diffs holds true_i - approx_i per amount index.
	Diffs []float64
}

// Score compares value_i / Σ values against center_i / Σ centers, where
// center_i is the center of the bin holding amount i. It reads but never
// modifies its inputs.
func Score(a Amounts, b Bins) (Result, error) {
	values := a.Values()

	centers := make([]float64, b.K())
	loaded := make([]bool, b.K())
	approx := make([]float64, len(values))

	var total, approxTotal float64
	for i, v := range values {
		id, err := b.Assignment(i)
		if err != nil {
			return Result{}, fmt.Errorf("score: %w", err)
		}
		if id == bins.Detached {
			return Result{}, fmt.Errorf("score index %d: %w", i, bins.ErrNotAssigned)
		}
		if !loaded[id] {
			if centers[id], err = b.Center(id); err != nil {
				return Result{}, fmt.Errorf("score index %d: %w", i, err)
			}
			loaded[id] = true
		}
		approx[i] = centers[id]
		total += v
		approxTotal += centers[id]
	}
	if total == 0 || approxTotal == 0 {
		return Result{}, fmt.Errorf("score %d amounts: %w", len(values), ErrZeroTotal)
	}

	res := Result{Diffs: make([]float64, len(values))}
	for i, v := range values {
		d := v/total - approx[i]/approxTotal
		res.Diffs[i] = d
		res.Error += d * d
	}
	return res, nil
}
