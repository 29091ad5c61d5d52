package workload

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Bounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		dist   Distribution
		lo, hi float64
	}{
		{"initial", InitialAmounts(), 0, 1},
		{"growth", GrowthAmounts(), 1e6, 1e8},
		{"narrow", Distribution{Min: 4, Max: 5, Divisor: 2}, 2, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Generate(rand.New(rand.NewPCG(1, 1)), 1000, tt.dist)
			require.NoError(t, err)
			require.Len(t, out, 1000)
			for _, v := range out {
				assert.GreaterOrEqual(t, v, tt.lo)
				assert.Less(t, v, tt.hi)
			}
		})
	}
}

func TestGenerate_Seeded(t *testing.T) {
	a, err := Generate(rand.New(rand.NewPCG(9, 9)), 50, GrowthAmounts())
	require.NoError(t, err)
	b, err := Generate(rand.New(rand.NewPCG(9, 9)), 50, GrowthAmounts())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDistribution_Validate(t *testing.T) {
	t.Parallel()

	bad := []Distribution{
		{Min: -1, Max: 5, Divisor: 1},
		{Min: 5, Max: 5, Divisor: 1},
		{Min: 0, Max: 5, Divisor: 0},
	}
	for _, d := range bad {
		assert.ErrorIs(t, d.Validate(), ErrInvalidDistribution, "%+v", d)
	}
	assert.NoError(t, InitialAmounts().Validate())

	_, err := Generate(rand.New(rand.NewPCG(1, 1)), -1, InitialAmounts())
	assert.ErrorIs(t, err, ErrInvalidDistribution)
}
