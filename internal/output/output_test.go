package output

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

type unknownParam struct{}

func (unknownParam) Kind() string { return "unknown" }

func sampleRound() bsimv1.Round {
	moved := 4
	return bsimv1.Round{
		Index:           2,
		Error:           0.015625,
		ErrorHistogram:  bsimv1.Histogram{Edges: []float64{-1, 0, 1}, Counts: []uint64{2, 8}},
		AmountHistogram: bsimv1.Histogram{Edges: []float64{0, 5, 10}, Counts: []uint64{0, 10}},
		Amounts:         10,
		LiveBins:        3,
		Digest:          "deadbeef",
		Moved:           &moved,
	}
}

func TestTextOutput_Round(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextOutput{}).OutputParam(sampleRound(), &buf))
	out := buf.String()

	assert.Contains(t, out, "=== Round 2 ===")
	assert.Contains(t, out, "Error: 1.562500e-02")
	assert.Contains(t, out, "Amounts: 10 | Live bins: 3 | Moved: 4")
	assert.Contains(t, out, "Digest: deadbeef")
	assert.Contains(t, out, strings.Repeat("#", barWidth)+" 8")
	assert.Contains(t, out, strings.Repeat("#", 4)+" ")
	assert.Contains(t, out, "10]")
}

func TestTextOutput_Summary(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ended := started.Add(2 * time.Second)
	cpu := 1500 * time.Millisecond
	lo, hi, cv := 0.1, 0.3, 0.5
	percentiles := map[string]float64{"p99_9": 0.29, "p50": 0.2, "p9": 0.11}
	s := bsimv1.Summary{
		RunID:       "run-1",
		BinCount:    8,
		Strategy:    "sorted",
		Duration:    2 * time.Second,
		Started:     &started,
		Ended:       &ended,
		CPUTime:     &cpu,
		Rounds:      3,
		Mean:        0.2,
		StdDev:      0.1,
		CV:          &cv,
		Min:         &lo,
		Max:         &hi,
		Percentiles: &percentiles,
	}

	var buf bytes.Buffer
	require.NoError(t, (&TextOutput{}).OutputParam(s, &buf))
	out := buf.String()

	assert.Contains(t, out, "Run: run-1")
	assert.Contains(t, out, "Strategy: sorted")
	assert.Contains(t, out, "CPU time: 1.5s")
	assert.Contains(t, out, "Started: 2026-01-02T03:04:05Z")
	assert.Contains(t, out, "Mean: 2.000000e-01")
	p9 := strings.Index(out, "p9:")
	p50 := strings.Index(out, "p50:")
	p999 := strings.Index(out, "p99_9:")
	assert.True(t, p9 < p50 && p50 < p999, "percentiles in ascending order:\n%s", out)
}

func TestTextOutput_Unknown(t *testing.T) {
	assert.Error(t, (&TextOutput{}).OutputParam(unknownParam{}, &bytes.Buffer{}))
}

func TestJsonOutput(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, (&JsonOutput{Pretty: pretty}).OutputParam(sampleRound(), &buf))

		var got struct {
			Kind string       `json:"kind"`
			Data bsimv1.Round `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "round", got.Kind)
		assert.Equal(t, sampleRound(), got.Data)
		assert.Equal(t, pretty, strings.Count(buf.String(), "\n") > 1)
	}
}

func TestNew(t *testing.T) {
	o, err := New("text", false)
	require.NoError(t, err)
	assert.IsType(t, &TextOutput{}, o)

	o, err = New("json", true)
	require.NoError(t, err)
	assert.Equal(t, &JsonOutput{Pretty: true}, o)

	_, err = New("xml", false)
	assert.Error(t, err)

}

func TestParameterOutputFunc(t *testing.T) {
	var kinds []string
	var o ParameterOutput = ParameterOutputFunc(func(par bsimv1.Parameter, _ io.Writer) error {
		kinds = append(kinds, par.Kind())
		return nil
	})
	require.NoError(t, o.OutputParam(sampleRound(), io.Discard))
	require.NoError(t, o.OutputParam(bsimv1.Summary{}, io.Discard))
	assert.Equal(t, []string{"round", "summary"}, kinds)
}
