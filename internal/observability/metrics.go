// Package observability wires metrics, tracing and logging for the fixpoint
// binaries.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	fixpoint "github.com/njchilds90/gofixpoint"
)

const namespace = "fixpoint"

// Metrics records search and HTTP metrics. It implements fixpoint.Recorder.
type Metrics struct {
	SearchesTotal  *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec
	WorkersStarted prometheus.Counter
	TracesTotal    *prometheus.CounterVec
	TraceLength    *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var _ fixpoint.Recorder = (*Metrics)(nil)

// NewMetrics registers every metric with reg. Tests pass a fresh
// prometheus.NewRegistry to avoid clashing with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "requests_total",
				Help:      "Searches by outcome",
			},
			[]string{"outcome"},
		),
		SearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "duration_seconds",
				Help:      "Search latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"outcome"},
		),
		WorkersStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "workers_launched_total",
				Help:      "Iteration workers started, one per seed",
			},
		),
		TracesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "traces_total",
				Help:      "Finished traces by mode and convergence",
			},
			[]string{"mode", "converged"},
		),
		TraceLength: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "trace_length",
				Help:      "Approximations per finished trace",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"mode"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) SearchCompleted(outcome string, elapsed time.Duration) {
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) WorkersLaunched(n int) {
	m.WorkersStarted.Add(float64(n))
}

func (m *Metrics) TraceFinished(mode fixpoint.Mode, converged bool, iterations int) {
	m.TracesTotal.WithLabelValues(mode.String(), strconv.FormatBool(converged)).Inc()
	m.TraceLength.WithLabelValues(mode.String()).Observe(float64(iterations))
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
