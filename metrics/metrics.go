// Package metrics records query evaluation statistics in a Prometheus
// registry.
//
// A [Recorder] implements [lang.Observer]. Pass it to [lang.WithObserver]
// and export the collected series with [Recorder.WriteFile] or serve them
// from [Recorder.Registry].
package metrics

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ardnew/aql/lang"
	"github.com/ardnew/aql/log"
)

// Namespace prefixes every metric name.
const Namespace = "aql"

// Status label values.
const (
	StatusOK       = "ok"
	StatusSyntax   = "syntax_error"
	StatusRuntime  = "runtime_error"
	StatusCanceled = "canceled"
)

// Recorder collects query statistics. It is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry
	logger   log.Logger

	queries  *prometheus.CounterVec
	rows     prometheus.Counter
	duration *prometheus.HistogramVec
}

// Option configures a [Recorder].
type Option func(*Recorder)

// WithLogger sets the logger that receives a trace record per query.
func WithLogger(logger log.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// WithProcessCollectors adds the Go runtime and process collectors to the
// registry.
func WithProcessCollectors() Option {
	return func(r *Recorder) {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New returns a Recorder backed by a fresh registry.
func New(opts ...Option) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "queries_total",
				Help:      "Total number of evaluated queries by outcome",
			},
			[]string{"status"},
		),
		rows: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rows_total",
				Help:      "Total number of rows returned by successful queries",
			},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "query_duration_seconds",
				Help:      "Query parse and evaluation latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"status"},
		),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveQuery implements [lang.Observer].
func (r *Recorder) ObserveQuery(ctx context.Context, stats lang.QueryStats) {
	status := Status(stats.Err)

	r.queries.WithLabelValues(status).Inc()
	r.duration.WithLabelValues(status).Observe(stats.Duration.Seconds())

	if stats.Err == nil {
		r.rows.Add(float64(stats.Rows))
	}

	r.logger.TraceContext(ctx, "query observed",
		slog.String("cursor", stats.ID.String()),
		slog.String("status", status),
	)
}

// Status classifies a query error as a status label value.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, lang.ErrCanceled):
		return StatusCanceled
	case lang.IsSyntaxError(err):
		return StatusSyntax
	default:
		return StatusRuntime
	}
}

// WriteFile writes all collected metrics to path in the Prometheus text
// exposition format, replacing the file atomically.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
