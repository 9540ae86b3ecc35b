package lang

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Request is one query of a batch passed to [EvaluateAll].
type Request struct {
	Bindings map[string]Value
	Query    string
}

// EvaluateAll evaluates each request with [Evaluate] on a bounded pool of
// workers. Each request gets its own top-level [Environment]. The returned
// cursors are in request order.
//
// The error result reports only failures to run the batch; per-query
// failures are carried by the error marker of the corresponding cursor.
func EvaluateAll(
	ctx context.Context,
	reqs []Request,
	opts ...Option,
) ([]*Cursor, error) {
	o := makeOptions(opts...)
	out := make([]*Cursor, len(reqs))

	if len(reqs) == 0 {
		return out, nil
	}

	pool, err := ants.NewPool(min(o.poolSize, len(reqs)),
		ants.WithPanicHandler(func(v any) {
			o.logger.ErrorContext(ctx, "batch worker panic",
				slog.String("panic", fmt.Sprint(v)),
			)
		}),
	)
	if err != nil {
		return nil, WrapError(err).With(slog.Int("pool_size", o.poolSize))
	}
	defer pool.Release()

	o.logger.DebugContext(ctx, "batch start",
		slog.Int("queries", len(reqs)),
		slog.Int("workers", pool.Cap()),
	)

	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)

		err := pool.Submit(func() {
			defer wg.Done()

			out[i] = evaluate(ctx, req.Query, req.Bindings, o)
		})
		if err != nil {
			wg.Done()

			out[i] = newCursor(NewEnvironment(req.Bindings))
			out[i].fail(WrapError(err).With(slog.Int("request", i)))
		}
	}

	wg.Wait()

	return out, nil
}
