package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onai/SMTexperiments/internal/bins"
	"github.com/onai/SMTexperiments/internal/config"
	"github.com/onai/SMTexperiments/internal/partition"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.InitialCount = 400
	cfg.BinCount = 8
	cfg.RoundBatchSize = 10
	cfg.Rounds = 6
	cfg.Seed = 17
	return cfg
}

func collect(t *testing.T, cfg config.Config) ([]Observation, Observation) {
	t.Helper()
	sim, err := New(cfg)
	require.NoError(t, err)
	var got []Observation
	final, err := sim.Run(context.Background(), func(o Observation) error {
		got = append(got, o)
		return nil
	})
	require.NoError(t, err)
	return got, final
}

func TestRun_RecordsEveryRound(t *testing.T) {
	cfg := smallConfig()
	got, final := collect(t, cfg)

	require.Len(t, got, cfg.Rounds)
	for i, o := range got {
		assert.Equal(t, i, o.Round.Index)
		assert.Equal(t, cfg.InitialCount+i*cfg.RoundBatchSize, o.Round.Amounts)
		assert.Len(t, o.Diffs, o.Round.Amounts)
		assert.Equal(t, uint64(o.Round.Amounts), o.Round.AmountHistogram.Total())
		assert.Equal(t, uint64(o.Round.Amounts), o.Round.ErrorHistogram.Total())
		assert.Len(t, o.Round.ErrorHistogram.Counts, cfg.HistogramBuckets)
		assert.GreaterOrEqual(t, o.Round.Error, 0.0)
		if i == 0 {
			assert.Nil(t, o.Round.Moved)
		} else {
			assert.NotNil(t, o.Round.Moved)
		}
	}
	assert.Equal(t, cfg.Rounds, final.Round.Index)
	assert.Equal(t, cfg.InitialCount+cfg.Rounds*cfg.RoundBatchSize, final.Round.Amounts)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := smallConfig()
	a, finalA := collect(t, cfg)
	b, finalB := collect(t, cfg)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Round.Error, b[i].Round.Error, "round %d", i)
		assert.Equal(t, a[i].Round.Digest, b[i].Round.Digest, "round %d", i)
	}
	assert.Equal(t, finalA.Round, finalB.Round)

	cfg.Seed++
	c, _ := collect(t, cfg)
	assert.NotEqual(t, a[len(a)-1].Round.Digest, c[len(c)-1].Round.Digest)
}

func TestRun_StrategiesAgree(t *testing.T) {
	cfg := smallConfig()
	cfg.Strategy = bins.StrategyLinear
	linear, _ := collect(t, cfg)
	cfg.Strategy = bins.StrategySorted
	sorted, _ := collect(t, cfg)

	require.Len(t, sorted, len(linear))
	for i := range linear {
		assert.Equal(t, linear[i].Round, sorted[i].Round, "round %d", i)
	}
}

func TestRun_Cancelled(t *testing.T) {
	sim, err := New(smallConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err = sim.Run(ctx, func(Observation) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRun_SinkErrorHalts(t *testing.T) {
	sim, err := New(smallConfig())
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = sim.Run(context.Background(), func(o Observation) error {
		if o.Round.Index == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 400+2*10, sim.Maintainer().Amounts().Len())
}

func TestNew_InvalidConfiguration(t *testing.T) {
	cfg := smallConfig()
	cfg.BinCount = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

type badPartitioner struct{}

func (badPartitioner) Partition(values []float64, k int) (partition.Result, error) {
	return partition.Result{Centers: make([]float64, k), Assignment: make([]int, len(values)-1)}, nil
}

func TestNew_RejectsBadPartition(t *testing.T) {
	_, err := New(smallConfig(), WithPartitioner(badPartitioner{}))
	assert.ErrorIs(t, err, bins.ErrInvalidPartition)
}
