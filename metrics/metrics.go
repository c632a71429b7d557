package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	Registry *prometheus.Registry

	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	ArtifactBytes     prometheus.Counter
	ActiveSessions    prometheus.Gauge
	OutputLines       prometheus.Histogram
}

// New creates and registers all collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pybox",
				Name:      "executions_total",
				Help:      "Total number of code executions by status.",
			},
			[]string{"status"},
		),

		ExecutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "pybox",
				Name:      "execution_duration_seconds",
				Help:      "Duration of code executions in seconds.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		ArtifactBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "pybox",
				Name:      "artifact_bytes_written_total",
				Help:      "Total bytes of artifacts written to disk.",
			},
		),

		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "pybox",
				Name:      "active_sessions",
				Help:      "Number of currently registered sessions.",
			},
		),

		OutputLines: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "pybox",
				Name:      "output_lines",
				Help:      "Number of captured output lines per execution.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}

	reg.MustRegister(
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.ArtifactBytes,
		m.ActiveSessions,
		m.OutputLines,
	)

	return m
}

// RecordExecution records metrics for a completed execution.
func (m *Metrics) RecordExecution(status string, durationSec float64, outputLines int) {
	m.ExecutionsTotal.WithLabelValues(status).Inc()
	m.ExecutionDuration.Observe(durationSec)
	m.OutputLines.Observe(float64(outputLines))
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
