package fidelity

import (
	"github.com/aclements/go-moremath/stats"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

// DefaultBuckets matches the bucket count of numpy.histogram.
const DefaultBuckets = 10

// Histogram buckets values into n equal-width buckets spanning
// [min(values), max(values)]. A constant sample gets the range
// [v-0.5, v+0.5].
func Histogram(values []float64, n int) bsimv1.Histogram {
	if len(values) == 0 || n <= 0 {
		return bsimv1.Histogram{}
	}

	lo, hi := stats.Sample{Xs: values}.Bounds()
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	h := stats.NewLinearHist(lo, hi, n)
	for _, v := range values {
		h.Add(v)
	}
	under, counts, over := h.Counts()

	out := bsimv1.Histogram{
		Edges:  make([]float64, n+1),
		Counts: make([]uint64, n),
	}
	for i := range out.Edges {
		out.Edges[i] = lo + (hi-lo)*float64(i)/float64(n)
	}
	out.Edges[n] = hi
	for i, c := range counts {
		out.Counts[i] = uint64(c)
	}
	// LinearHist is half-open at hi; the top edge belongs to the last bucket
	out.Counts[0] += uint64(under)
	out.Counts[n-1] += uint64(over)
	return out
}
