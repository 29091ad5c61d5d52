package v1

import "time"

type Parameter interface {
	Kind() string
}

func (Round) Kind() string   { return "round" }
func (Summary) Kind() string { return "summary" }

// Histogram has equal-width buckets; Edges has one more entry than Counts
// and the last bucket is closed on the right.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []uint64  `json:"counts"`
}

// Total returns the number of samples in the histogram.
func (h Histogram) Total() uint64 {
	var n uint64
	for _, c := range h.Counts {
		n += c
	}
	return n
}

// Round is the progress record emitted once per simulation round, scored
// before the round's mutations are applied.
type Round struct {
	// Identity
	Index int `json:"round"`

	// Fidelity
	Error           float64   `json:"error"`
	ErrorHistogram  Histogram `json:"error_histogram"`
	AmountHistogram Histogram `json:"amount_histogram"`

	// Bin state
	Amounts  int    `json:"amounts"`
	LiveBins int    `json:"live_bins"`
	Digest   string `json:"digest"` // xxhash64 of bin aggregates and assignment, hex

	// Previous round's activity; nil for the freshly partitioned state
	Moved *int `json:"moved,omitempty"`
}

// Summary describes a complete run.
type Summary struct {
	// Identity
	RunID string `json:"run_id"`

	// Configuration
	InitialCount   int    `json:"initial_count"`
	BinCount       int    `json:"bin_count"`
	RoundBatchSize int    `json:"round_batch_size"`
	Seed           uint64 `json:"seed"`
	Strategy       string `json:"strategy"`

	// Run window
	Duration time.Duration  `json:"duration"`
	Started  *time.Time     `json:"started,omitempty"`
	Ended    *time.Time     `json:"ended,omitempty"`
	CPUTime  *time.Duration `json:"cpu_time,omitempty"` // user+system time of the process

	// Volume
	Rounds   uint64 `json:"rounds"`
	Amounts  int    `json:"amounts"`
	LiveBins int    `json:"live_bins"`

	// Error statistics over all rounds
	Mean   float64  `json:"error_mean"`
	StdDev float64  `json:"error_stddev"`
	CV     *float64 `json:"error_cv,omitempty"` // stddev/mean
	Min    *float64 `json:"error_min,omitempty"`
	Max    *float64 `json:"error_max,omitempty"`

	// Approximate error quantiles: keys like "p50", "p90", "p99"
	Percentiles *map[string]float64 `json:"error_percentiles,omitempty"`

	Final *Round `json:"final,omitempty"`
}
