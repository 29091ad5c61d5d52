// Package metrics exports simulation progress to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

const namespace = "binsim"

type Metrics struct {
	round    prometheus.Gauge
	score    prometheus.Gauge
	amounts  prometheus.Gauge
	liveBins prometheus.Gauge
	rounds   prometheus.Counter
	diffs    prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		round: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "round",
			Help:      "Index of the most recently scored round.",
		}),
		score: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fidelity_error",
			Help:      "Sum of squared share differences of the most recent round.",
		}),
		amounts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "amounts",
			Help:      "Number of amounts under management.",
		}),
		liveBins: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_bins",
			Help:      "Number of bins with at least one member.",
		}),
		rounds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Number of scored rounds.",
		}),
		diffs: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "share_difference",
			Help:      "Per-amount difference between true and approximated share.",
			Buckets:   []float64{-1e-4, -1e-5, -1e-6, -1e-7, 0, 1e-7, 1e-6, 1e-5, 1e-4},
		}),
	}
}

// Observe publishes one round record together with its per-amount
// differences.
func (m *Metrics) Observe(r bsimv1.Round, diffs []float64) {
	m.round.Set(float64(r.Index))
	m.score.Set(r.Error)
	m.amounts.Set(float64(r.Amounts))
	m.liveBins.Set(float64(r.LiveBins))
	m.rounds.Inc()
	for _, d := range diffs {
		m.diffs.Observe(d)
	}
}

// Server serves /metrics until Shutdown is called.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *zap.Logger
	errCh  chan error
}

func Serve(addr string, g prometheus.Gatherer, logger *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	s := &Server{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		logger: logger,
		errCh:  make(chan error, 1),
	}
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.errCh <- err
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return s, nil
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("metrics server stopped")
	return <-s.errCh
}
