package lang

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// QueryStats summarizes one call to [Evaluate].
type QueryStats struct {
	Err      error
	ID       uuid.UUID
	Duration time.Duration
	Rows     int
}

// Observer is notified after every call to [Evaluate].
//
// Implementations must be safe for concurrent use when queries are evaluated
// in parallel.
type Observer interface {
	ObserveQuery(ctx context.Context, stats QueryStats)
}

// Evaluate parses text and evaluates it against a fresh top-level
// [Environment] seeded with bindings.
//
// Evaluate never returns a partial result. On any failure the returned
// cursor has its error marker set and yields no rows. The context is checked
// between rows; cancellation fails the query with [ErrCanceled].
func Evaluate(
	ctx context.Context,
	text string,
	bindings map[string]Value,
	opts ...Option,
) *Cursor {
	return evaluate(ctx, text, bindings, makeOptions(opts...))
}

func evaluate(
	ctx context.Context,
	text string,
	bindings map[string]Value,
	o options,
) (c *Cursor) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	env := NewEnvironment(bindings)
	c = newCursor(env)

	defer func() {
		if r := recover(); r != nil {
			c.fail(ErrInvalidNode.With(
				slog.String("panic", fmt.Sprint(r)),
			))
		}

		stats := QueryStats{
			ID:       c.id,
			Duration: time.Since(start),
			Rows:     len(c.rows),
			Err:      c.err,
		}

		if c.err != nil {
			o.logger.DebugContext(ctx, "evaluate failed",
				slog.String("cursor", c.id.String()),
				slog.Any("error", c.err),
			)
		} else {
			o.logger.TraceContext(ctx, "evaluate complete",
				slog.String("cursor", c.id.String()),
				slog.Int("rows", stats.Rows),
				slog.Duration("duration", stats.Duration),
			)
		}

		if o.observer != nil {
			o.observer.ObserveQuery(ctx, stats)
		}
	}()

	var (
		q   *Query
		err error
	)

	if o.cache != nil {
		q, err = o.cache.parse(ctx, text, o)
	} else {
		q, err = parse(ctx, text, o)
	}

	if err != nil {
		c.fail(err)

		return c
	}

	o.logger.TraceContext(ctx, "evaluate start",
		slog.String("cursor", c.id.String()),
		slog.Int("bindings", len(bindings)),
	)

	for v, err := range q.Run(ctx, env, withOptions(o)) {
		if err != nil {
			c.fail(err)

			return c
		}

		c.rows = append(c.rows, v)
	}

	return c
}

// withOptions replaces the whole configuration with o.
func withOptions(o options) Option {
	return func(dst *options) { *dst = o }
}
