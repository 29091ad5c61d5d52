package collector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/VividCortex/gohistogram"
	"github.com/google/uuid"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

// histogramBins bounds the memory of the streaming quantile estimate.
const histogramBins = 80

// RunInfo is the configuration echoed into the summary.
type RunInfo struct {
	InitialCount   int
	BinCount       int
	RoundBatchSize int
	Seed           uint64
	Strategy       string
}

type ErrorCollector struct {
	info RunInfo
	s    *Stats
	hist *gohistogram.NumericHistogram
	keys []string

	// Lifecycle management
	mu      sync.RWMutex
	running bool
	runID   string

	// Measurement metadata
	started  time.Time
	ended    time.Time
	cpuStart time.Duration
	cpuEnd   time.Duration
	cpuErr   error
	last     *bsimv1.Round
	final    *bsimv1.Round
}

var _ Collector = (*ErrorCollector)(nil)

// NewErrorCollector creates a collector reporting the given percentile keys
// ("p50", "p99_9", ...).
func NewErrorCollector(info RunInfo, percentileKeys []string) (*ErrorCollector, error) {
	for _, k := range percentileKeys {
		if _, err := quantileOf(k); err != nil {
			return nil, err
		}
	}
	return &ErrorCollector{
		info:  info,
		s:     &Stats{},
		hist:  gohistogram.NewHistogram(histogramBins),
		keys:  percentileKeys,
		runID: uuid.NewString(),
	}, nil
}

// Start opens a measurement window. Starting again after Stop discards the
// previous window.
func (c *ErrorCollector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("collector already running")
	}
	c.s.Reset()
	c.hist = gohistogram.NewHistogram(histogramBins)
	c.last, c.final = nil, nil

	c.running = true
	c.started = time.Now()
	c.cpuStart, c.cpuErr = processCPUTime()
	return nil
}

// Observe records one round. Records arriving while stopped are dropped.
func (c *ErrorCollector) Observe(r bsimv1.Round) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.s.Add(r.Error)
	c.hist.Add(r.Error)
	c.last = &r
}

// SetFinal stores the score of the state left after the last round.
func (c *ErrorCollector) SetFinal(r bsimv1.Round) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.final = &r
}

func (c *ErrorCollector) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return fmt.Errorf("collector not running")
	}
	c.running = false
	c.ended = time.Now()
	if c.cpuErr == nil {
		c.cpuEnd, c.cpuErr = processCPUTime()
	}
	return nil
}

// Snapshot captures the summary so far. It may be called while running.
func (c *ErrorCollector) Snapshot() (bsimv1.Parameter, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := c.s.Count()
	if count == 0 {
		return nil, fmt.Errorf("no rounds collected yet")
	}

	mean := c.s.Mean()
	stddev := math.Sqrt(c.s.Variance())
	lo, hi := c.s.Min(), c.s.Max()

	ended := c.ended
	if c.running || ended.IsZero() {
		ended = time.Now()
	}
	started := c.started

	summary := bsimv1.Summary{
		RunID:          c.runID,
		InitialCount:   c.info.InitialCount,
		BinCount:       c.info.BinCount,
		RoundBatchSize: c.info.RoundBatchSize,
		Seed:           c.info.Seed,
		Strategy:       c.info.Strategy,

		Duration: ended.Sub(started),
		Started:  &started,
		Ended:    &ended,

		Rounds: count,
		Mean:   mean,
		StdDev: stddev,
		Min:    &lo,
		Max:    &hi,
		Final:  c.final,
	}

	if mean != 0 {
		cv := stddev / mean
		summary.CV = &cv
	}

	if c.cpuErr == nil && !c.running {
		cpu := c.cpuEnd - c.cpuStart
		summary.CPUTime = &cpu
	}

	latest := c.last
	if c.final != nil {
		latest = c.final
	}
	if latest != nil {
		summary.Amounts = latest.Amounts
		summary.LiveBins = latest.LiveBins
	}

	if len(c.keys) > 0 {
		percentiles := make(map[string]float64, len(c.keys))
		for _, k := range c.keys {
			q, _ := quantileOf(k)
			percentiles[k] = c.hist.Quantile(q)
		}
		summary.Percentiles = &percentiles
	}

	return summary, nil
}

// quantileOf turns "p99_9" into 0.999.
func quantileOf(key string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimPrefix(key, "p"), "_", ".")
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || p <= 0 || p > 100 {
		return 0, fmt.Errorf("invalid percentile %q", key)
	}
	return p / 100, nil
}
