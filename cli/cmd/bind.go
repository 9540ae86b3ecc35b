package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/aql/lang"
)

// Bindings are the flags that seed the top-level environment of a query.
type Bindings struct {
	Bind     []string `help:"Bind NAME to the value of an expr-lang expression, as NAME=EXPR." placeholder:"NAME=EXPR" sep:"none" short:"b"`
	Bindings string   `help:"YAML or JSON file whose top-level mapping seeds the bindings."    placeholder:"FILE"      type:"existingfile"`
}

// Load builds the binding map. Names from the bindings file are bound first;
// each --bind expression is then evaluated in order and may refer to any
// name bound before it, as well as to env(NAME) for process environment
// variables. A later binding of the same name replaces the earlier one.
func (b *Bindings) Load(ctx context.Context, rt *Runtime) (map[string]lang.Value, error) {
	out := make(map[string]lang.Value)

	if b.Bindings != "" {
		text, err := readFile(b.Bindings)
		if err != nil {
			return nil, ErrBinding.Wrap(err).With(slog.String("file", b.Bindings))
		}

		if err := decodeBindings(text, out); err != nil {
			return nil, ErrBinding.Wrap(err).With(slog.String("file", b.Bindings))
		}
	}

	for _, arg := range b.Bind {
		name, src, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)

		if !ok || !lang.IsIdentifier(name) {
			return nil, ErrBinding.With(slog.String("bind", arg))
		}

		v, err := evalBinding(src, out)
		if err != nil {
			return nil, ErrBinding.Wrap(err).With(slog.String("bind", arg))
		}

		out[name] = v
	}

	rt.Logger.DebugContext(ctx, "bindings loaded", slog.Int("count", len(out)))

	return out, nil
}

// decodeBindings decodes a YAML mapping into dst, keeping member order of
// nested mappings.
func decodeBindings(text string, dst map[string]lang.Value) error {
	var doc yaml.MapSlice

	if err := yaml.UnmarshalWithOptions([]byte(text), &doc, yaml.UseOrderedMap()); err != nil {
		return err
	}

	for _, item := range doc {
		name, ok := item.Key.(string)
		if !ok || !lang.IsIdentifier(name) {
			return ErrBinding.With(slog.Any("key", item.Key))
		}

		v, err := lang.FromNative(item.Value)
		if err != nil {
			return err
		}

		dst[name] = v
	}

	return nil
}

// evalBinding evaluates an expr-lang expression whose environment holds the
// bindings made so far.
func evalBinding(src string, bound map[string]lang.Value) (lang.Value, error) {
	env := make(map[string]any, len(bound)+1)

	for name, v := range bound {
		env[name] = v.Native()
	}

	env["env"] = os.Getenv

	out, err := expr.Eval(src, env)
	if err != nil {
		return lang.Value{}, err
	}

	return lang.FromNative(out)
}
