package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/aql/lang"
)

// Fmt parses queries and prints them in canonical form.
type Fmt struct {
	Query  []string    `arg:"" help:"Query text to format."                                      optional:""`
	File   []string    `help:"Query file resolved against the search path, or '-' for stdin." placeholder:"FILE" short:"f"`
	AST    bool        `help:"Print the syntax tree instead of query text."`
	Output lang.Format `default:"yaml"                                                         help:"Syntax tree format with --ast (json, yaml)." short:"o"`
	Indent int         `default:"2"                                                            help:"Indent width for the syntax tree."          short:"i"`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context, rt *Runtime) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := collectSources(ctx, rt, f.Query, f.File)
	if err != nil {
		return err
	}

	format := lang.FormatNative
	if f.AST {
		format = f.Output
	}

	for _, src := range srcs {
		q, err := lang.Parse(ctx, src.text, rt.Options...)
		if err != nil {
			fmt.Fprintln(rt.Stderr, lang.FormatError(err, src.text))

			return ErrQueryFailed.Wrap(err).With(slog.String("source", src.name))
		}

		if err := q.WriteQuery(ctx, rt.Stdout, format, f.Indent); err != nil {
			return ErrWriteOutput.Wrap(err).
				With(slog.String("source", src.name), slog.String("format", format.String()))
		}
	}

	return nil
}
