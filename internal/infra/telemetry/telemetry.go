package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider holds the application-level Prometheus collectors.
type Provider struct {
	computeRuns     prometheus.Counter
	computeRows     prometheus.Counter
	computeDuration prometheus.Histogram
}

// NewProvider registers the compute collectors with the given registerer.
// A nil registerer falls back to the default one.
func NewProvider(reg prometheus.Registerer) (*Provider, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "daulingo",
		Name:      "compute_runs_total",
		Help:      "Total number of completed state window recomputes",
	})

	rows := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "daulingo",
		Name:      "compute_rows_written_total",
		Help:      "Total number of daily state rows written by recomputes",
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "daulingo",
		Name:      "compute_duration_seconds",
		Help:      "Duration of state window recomputes",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	for _, c := range []prometheus.Collector{runs, rows, duration} {
		if err := register(reg, c); err != nil {
			return nil, err
		}
	}

	return &Provider{
		computeRuns:     runs,
		computeRows:     rows,
		computeDuration: duration,
	}, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return fmt.Errorf("register collector: %w", err)
		}
	}
	return nil
}

// ObserveCompute records measurements for one finished recompute.
func (p *Provider) ObserveCompute(rowsWritten int, duration time.Duration) {
	if p == nil {
		return
	}
	p.computeRuns.Inc()
	p.computeRows.Add(float64(rowsWritten))
	p.computeDuration.Observe(duration.Seconds())
}
