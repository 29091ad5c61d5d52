package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

// barWidth is the length of the longest histogram bar.
const barWidth = 16

type TextOutput struct{}

func (t *TextOutput) OutputParam(par bsimv1.Parameter, w io.Writer) error {
	switch par.Kind() {
	case "round":
		return t.outputRound(par.(bsimv1.Round), w)
	case "summary":
		return t.outputSummary(par.(bsimv1.Summary), w)
	default:
		return fmt.Errorf("unsupported parameter kind: %s", par.Kind())
	}
}

func (t *TextOutput) outputRound(r bsimv1.Round, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== Round %d ===\n", r.Index))
	sb.WriteString(fmt.Sprintf("Error: %.6e\n", r.Error))
	sb.WriteString(fmt.Sprintf("Amounts: %d | Live bins: %d", r.Amounts, r.LiveBins))
	if r.Moved != nil {
		sb.WriteString(fmt.Sprintf(" | Moved: %d", *r.Moved))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Digest: %s\n\n", r.Digest))

	sb.WriteString("--- Error Distribution ---\n")
	describeHistogram(&sb, r.ErrorHistogram)
	sb.WriteString("\n--- Amount Distribution ---\n")
	describeHistogram(&sb, r.AmountHistogram)
	sb.WriteString("\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

func describeHistogram(sb *strings.Builder, h bsimv1.Histogram) {
	if len(h.Counts) == 0 {
		sb.WriteString("(empty)\n")
		return
	}

	var mx uint64
	for _, c := range h.Counts {
		mx = max(mx, c)
	}

	for i, c := range h.Counts {
		closing := ")"
		if i == len(h.Counts)-1 {
			closing = "]"
		}
		n := 0
		if mx > 0 {
			n = int(float64(barWidth) * float64(c) / float64(mx))
		}
		sb.WriteString(fmt.Sprintf("[%11.4g, %11.4g%s %-*s %d\n",
			h.Edges[i], h.Edges[i+1], closing, barWidth, strings.Repeat("#", n), c))
	}
}

func (t *TextOutput) outputSummary(s bsimv1.Summary, w io.Writer) error {
	var sb strings.Builder

	// Header
	sb.WriteString("=== Simulation Summary ===\n\n")

	// Identity
	sb.WriteString(fmt.Sprintf("Run: %s\n", s.RunID))

	// Configuration
	sb.WriteString(fmt.Sprintf("Initial amounts: %d\n", s.InitialCount))
	sb.WriteString(fmt.Sprintf("Bins: %d\n", s.BinCount))
	sb.WriteString(fmt.Sprintf("Batch size: %d\n", s.RoundBatchSize))
	sb.WriteString(fmt.Sprintf("Seed: %d\n", s.Seed))
	sb.WriteString(fmt.Sprintf("Strategy: %s\n\n", s.Strategy))

	// Run window
	sb.WriteString(fmt.Sprintf("Duration: %s\n", s.Duration))
	if s.CPUTime != nil {
		sb.WriteString(fmt.Sprintf("CPU time: %s\n", *s.CPUTime))
	}
	if s.Started != nil {
		sb.WriteString(fmt.Sprintf("Started: %s\n", s.Started.Format(time.RFC3339)))
	}
	if s.Ended != nil {
		sb.WriteString(fmt.Sprintf("Ended: %s\n", s.Ended.Format(time.RFC3339)))
	}
	sb.WriteString("\n")

	// Volume
	sb.WriteString(fmt.Sprintf("Rounds: %d\n", s.Rounds))
	sb.WriteString(fmt.Sprintf("Final amounts: %d\n", s.Amounts))
	sb.WriteString(fmt.Sprintf("Live bins: %d\n\n", s.LiveBins))

	// Summary stats
	sb.WriteString("--- Error Statistics ---\n")
	sb.WriteString(fmt.Sprintf("Mean: %.6e\n", s.Mean))
	sb.WriteString(fmt.Sprintf("StdDev: %.6e\n", s.StdDev))
	if s.CV != nil {
		sb.WriteString(fmt.Sprintf("CV: %.4f\n", *s.CV))
	}
	if s.Min != nil {
		sb.WriteString(fmt.Sprintf("Min: %.6e\n", *s.Min))
	}
	if s.Max != nil {
		sb.WriteString(fmt.Sprintf("Max: %.6e\n", *s.Max))
	}
	if s.Final != nil {
		sb.WriteString(fmt.Sprintf("Final: %.6e\n", s.Final.Error))
	}
	sb.WriteString("\n")

	// Percentiles
	if s.Percentiles != nil && len(*s.Percentiles) > 0 {
		sb.WriteString("--- Percentiles ---\n")
		keys := make([]string, 0, len(*s.Percentiles))
		for k := range *s.Percentiles {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return percentileOrder(keys[i]) < percentileOrder(keys[j])
		})
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("%s: %.6e\n", k, (*s.Percentiles)[k]))
		}
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}

// percentileOrder sorts "p9" before "p50" before "p99_9".
func percentileOrder(key string) float64 {
	var v float64
	_, err := fmt.Sscanf(strings.ReplaceAll(strings.TrimPrefix(key, "p"), "_", "."), "%g", &v)
	if err != nil {
		return 101
	}
	return v
}
