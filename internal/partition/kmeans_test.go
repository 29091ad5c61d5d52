package partition

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKMeans_TwoGroups(t *testing.T) {
	res, err := NewKMeans().Partition([]float64{1, 1, 9, 9}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 9}, res.Centers)
	assert.Equal(t, []int{0, 0, 1, 1}, res.Assignment)
	assert.Equal(t, 2, res.Iterations)
}

func TestKMeans_Clusters(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	var values []float64
	for _, base := range []float64{0, 100, 1000} {
		for i := 0; i < 50; i++ {
			values = append(values, base+rng.Float64())
		}
	}
	rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	res, err := NewKMeans().Partition(values, 3)
	require.NoError(t, err)
	require.Len(t, res.Centers, 3)
	require.Len(t, res.Assignment, len(values))

	assert.InDelta(t, 0.5, res.Centers[0], 0.5)
	assert.InDelta(t, 100.5, res.Centers[1], 0.5)
	assert.InDelta(t, 1000.5, res.Centers[2], 0.5)
	for i, v := range values {
		want := 2
		switch {
		case v < 50:
			want = 0
		case v < 500:
			want = 1
		}
		assert.Equal(t, want, res.Assignment[i], "value %v", v)
	}
}

func TestKMeans_MoreBinsThanValues(t *testing.T) {
	res, err := NewKMeans().Partition([]float64{5, 5}, 4)
	require.NoError(t, err)
	assert.Len(t, res.Centers, 4)
	for _, id := range res.Assignment {
		assert.GreaterOrEqual(t, id, 0)
		assert.Less(t, id, 4)
	}
	for _, c := range res.Centers {
		assert.Equal(t, 5.0, c)
	}
}

func TestKMeans_IterationCap(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 50}
	res, err := NewKMeans(WithMaxIterations(1)).Partition(values, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
}

func TestKMeans_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		k      int
	}{
		{"zero k", []float64{1}, 0},
		{"negative k", []float64{1}, -2},
		{"no values", nil, 2},
		{"nan value", []float64{1, math.NaN()}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKMeans().Partition(tt.values, tt.k)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestNearest(t *testing.T) {
	centers := []float64{1, 3, 3, 8}
	tests := []struct {
		v    float64
		want int
	}{
		{-5, 0},
		{1, 0},
		{2, 0}, // tie between 1 and 3
		{2.5, 1},
		{3, 1},
		{5.5, 1}, // tie between 3 and 8
		{5, 1},
		{6, 3},
		{100, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nearest(centers, tt.v), "value %v", tt.v)
	}
}
