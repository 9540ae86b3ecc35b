package cmd

import (
	"context"

	"github.com/ardnew/aql/cli/cmd/repl"
)

// Repl starts the interactive query prompt.
type Repl struct {
	Bindings `embed:""`

	NoHistory bool `help:"Do not read or write the history file."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, rt *Runtime) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	bindings, err := r.Load(ctx, rt)
	if err != nil {
		return err
	}

	cfg := repl.Config{
		Bindings: bindings,
		Options:  rt.Options,
		CacheDir: rt.CacheDir,
		Logger:   rt.Logger,
	}

	if r.NoHistory {
		cfg.CacheDir = ""
	}

	return repl.Run(ctx, cfg)
}
