// Package metrics exposes Prometheus metrics for algorithm runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the analytics metric collectors.
type Registry struct {
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	RunRounds   *prometheus.HistogramVec
	ResultRows  *prometheus.HistogramVec
	ActiveRuns  prometheus.Gauge
}

// NewRegistry creates the analytics collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer for process-global metrics.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cluso",
			Subsystem: "analytics",
			Name:      "runs_total",
			Help:      "Algorithm runs by algorithm and status",
		}, []string{"algorithm", "status"}),

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cluso",
			Subsystem: "analytics",
			Name:      "run_duration_seconds",
			Help:      "Algorithm run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"algorithm"}),

		RunRounds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cluso",
			Subsystem: "analytics",
			Name:      "run_rounds",
			Help:      "Rounds (or phases) executed per run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"algorithm"}),

		ResultRows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cluso",
			Subsystem: "analytics",
			Name:      "result_rows",
			Help:      "Result rows produced per run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}, []string{"algorithm"}),

		ActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cluso",
			Subsystem: "analytics",
			Name:      "active_runs",
			Help:      "Currently executing algorithm runs",
		}),
	}
}

// RecordRun records one completed algorithm run.
func (r *Registry) RecordRun(algorithm, status string, duration time.Duration, rounds, rows int) {
	r.RunsTotal.WithLabelValues(algorithm, status).Inc()
	if status == "success" {
		r.RunDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
		r.RunRounds.WithLabelValues(algorithm).Observe(float64(rounds))
		r.ResultRows.WithLabelValues(algorithm).Observe(float64(rows))
	}
}

// RunStarted marks a run as in flight; the returned func marks it finished.
func (r *Registry) RunStarted() func() {
	r.ActiveRuns.Inc()
	return r.ActiveRuns.Dec
}
