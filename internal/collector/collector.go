package collector

import (
	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

// Collector accumulates per-round records into a run summary.
type Collector interface {
	Start() error
	Observe(bsimv1.Round)
	Stop() error
	Snapshot() (bsimv1.Parameter, error)
}
