// Package partition produces the initial split of amounts into bins.
package partition

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid partition input")

// Result is the boundary the bin state consumes: one center per bin and one
// bin id per input value.
type Result struct {
	Centers    []float64
	Assignment []int
	Iterations int
}

type Partitioner interface {
	Partition(values []float64, k int) (Result, error)
}

const defaultMaxIterations = 300

// KMeans is Lloyd's algorithm on scalars. Centers are seeded at evenly spaced
// quantiles of the sorted input, so the result depends only on the values.
type KMeans struct {
	maxIterations int
	logger        *zap.Logger
}

var _ Partitioner = (*KMeans)(nil)

type Option func(*KMeans)

func WithMaxIterations(n int) Option {
	return func(km *KMeans) {
		km.maxIterations = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(km *KMeans) {
		km.logger = logger
	}
}

func NewKMeans(opts ...Option) *KMeans {
	km := &KMeans{
		maxIterations: defaultMaxIterations,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(km)
	}
	return km
}

func (km *KMeans) Partition(values []float64, k int) (Result, error) {
	if k <= 0 {
		return Result{}, fmt.Errorf("k=%d: %w", k, ErrInvalidInput)
	}
	if len(values) == 0 {
		return Result{}, fmt.Errorf("no values: %w", ErrInvalidInput)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, fmt.Errorf("value %d is %v: %w", i, v, ErrInvalidInput)
		}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	centers := make([]float64, k)
	for i := range centers {
		q := (float64(i) + 0.5) / float64(k)
		centers[i] = sorted[int(q*float64(len(sorted)))]
	}

	assignment := make([]int, len(values))
	for i := range assignment {
		assignment[i] = -1
	}
	sums := make([]float64, k)
	counts := make([]int, k)

	iter := 0
	for iter < km.maxIterations {
		iter++

		// centers must be ordered for nearest(); labels are arbitrary
		sort.Float64s(centers)

		moved := 0
		for i := range sums {
			sums[i], counts[i] = 0, 0
		}
		for i, v := range values {
			id := nearest(centers, v)
			if assignment[i] != id {
				assignment[i] = id
				moved++
			}
			sums[id] += v
			counts[id]++
		}

		for i := range centers {
			if counts[i] > 0 {
				centers[i] = sums[i] / float64(counts[i])
			}
		}

		km.logger.Debug("kmeans iteration", zap.Int("iteration", iter), zap.Int("moved", moved))
		if moved == 0 {
			break
		}
	}

	km.logger.Info("partitioned amounts",
		zap.Int("values", len(values)),
		zap.Int("bins", k),
		zap.Int("iterations", iter))

	return Result{Centers: centers, Assignment: assignment, Iterations: iter}, nil
}

// nearest returns the closest center in an ascending slice, preferring the
// lower index on ties.
func nearest(centers []float64, v float64) int {
	i := sort.SearchFloat64s(centers, v)
	if i == 0 {
		return 0
	}
	if i < len(centers) && centers[i]-v < v-centers[i-1] {
		return i
	}
	// walk back to the first of any duplicate centers
	j := i - 1
	for j > 0 && centers[j-1] == centers[j] {
		j--
	}
	return j
}
