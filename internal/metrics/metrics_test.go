package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe(bsimv1.Round{Index: 3, Error: 0.25, Amounts: 40, LiveBins: 7}, []float64{-1e-3, 0, 1e-8})
	m.Observe(bsimv1.Round{Index: 4, Error: 0.5, Amounts: 42, LiveBins: 6}, nil)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.round))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.score))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.amounts))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.liveBins))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rounds))
	assert.Equal(t, 1, testutil.CollectAndCount(m.diffs))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Observe(bsimv1.Round{Index: 1, Error: 0.125}, nil)

	srv, err := Serve("127.0.0.1:0", reg, zap.NewNop())
	require.NoError(t, err)

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "binsim_fidelity_error 0.125")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
