package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/aql/lang"
)

// Eval evaluates one or more queries and prints the rows of each.
type Eval struct {
	Bindings `embed:""`

	Query   []string    `arg:"" help:"Query text to evaluate."                                   optional:""`
	File    []string    `help:"Query file resolved against the search path, or '-' for stdin." placeholder:"FILE" short:"f"`
	Output  lang.Format `default:"json"                                                         help:"Output format (json, yaml, native)." short:"o"`
	Indent  int         `default:"0"                                                            help:"Indent width for JSON and YAML output; 0 is compact."`
	Workers int         `default:"0"                                                            help:"Queries evaluated concurrently; 0 uses GOMAXPROCS."`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, rt *Runtime) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := collectSources(ctx, rt, e.Query, e.File)
	if err != nil {
		return err
	}

	bindings, err := e.Load(ctx, rt)
	if err != nil {
		return err
	}

	cursors, err := e.evaluate(ctx, rt, srcs, bindings)
	if err != nil {
		return err
	}

	failed := 0

	for i, c := range cursors {
		if c.IsError() {
			failed++

			if len(srcs) > 1 {
				fmt.Fprintf(rt.Stderr, "%s: ", srcs[i].name)
			}

			fmt.Fprintln(rt.Stderr, lang.FormatError(c.Err(), srcs[i].text))

			rt.Logger.DebugContext(ctx, "query failed",
				slog.String("source", srcs[i].name),
				slog.String("cursor", c.ID().String()),
				slog.Any("error", c.Err()),
			)

			continue
		}

		if err := lang.WriteRows(ctx, rt.Stdout, c.ToList(), e.Output, e.Indent); err != nil {
			return ErrWriteOutput.Wrap(err).With(slog.String("source", srcs[i].name))
		}
	}

	if failed > 0 {
		return ErrQueryFailed.With(
			slog.Int("failed", failed),
			slog.Int("queries", len(srcs)),
		)
	}

	return nil
}

// evaluate runs a single query directly and several on the batch pool.
func (e *Eval) evaluate(
	ctx context.Context,
	rt *Runtime,
	srcs []source,
	bindings map[string]lang.Value,
) ([]*lang.Cursor, error) {
	if len(srcs) == 1 {
		return []*lang.Cursor{
			lang.Evaluate(ctx, srcs[0].text, bindings, rt.Options...),
		}, nil
	}

	reqs := make([]lang.Request, len(srcs))
	for i, src := range srcs {
		reqs[i] = lang.Request{Query: src.text, Bindings: bindings}
	}

	opts := append(append([]lang.Option(nil), rt.Options...), lang.WithPoolSize(e.Workers))

	return lang.EvaluateAll(ctx, reqs, opts...)
}
