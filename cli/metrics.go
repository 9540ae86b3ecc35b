package cli

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/ardnew/aql/log"
	"github.com/ardnew/aql/metrics"
)

type metricsConfig struct {
	File    string `help:"Write Prometheus metrics to FILE on exit." placeholder:"FILE" type:"path"`
	Process bool   `help:"Include Go runtime and process metrics."   negatable:""`
}

func (metricsConfig) group() kong.Group {
	return kong.Group{Key: "metrics", Title: "Metrics options"}
}

// recorder returns the query observer, or nil when no metrics file is set.
func (f metricsConfig) recorder(ctx context.Context) *metrics.Recorder {
	if f.File == "" {
		return nil
	}

	opts := []metrics.Option{metrics.WithLogger(log.Default())}
	if f.Process {
		opts = append(opts, metrics.WithProcessCollectors())
	}

	log.DebugContext(ctx, "metrics enabled",
		slog.String("file", f.File),
		slog.Bool("process", f.Process),
	)

	return metrics.New(opts...)
}

// flush writes the collected metrics to the metrics file.
func (f metricsConfig) flush(ctx context.Context, r *metrics.Recorder) error {
	if err := r.WriteFile(f.File); err != nil {
		return ErrMetrics.Wrap(err).With(slog.String("file", f.File))
	}

	log.DebugContext(ctx, "metrics written", slog.String("file", f.File))

	return nil
}
