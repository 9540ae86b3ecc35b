package repl

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/aql/lang"
	"github.com/ardnew/aql/log"
)

// session holds the bindings visible to every query entered at the prompt.
type session struct {
	ctx      func() context.Context
	bindings map[string]lang.Value
	opts     []lang.Option
	logger   log.Logger
}

func newSession(
	ctx context.Context,
	bindings map[string]lang.Value,
	logger log.Logger,
	opts ...lang.Option,
) *session {
	if bindings == nil {
		bindings = make(map[string]lang.Value)
	}

	return &session{
		ctx:      func() context.Context { return ctx },
		bindings: bindings,
		opts:     opts,
		logger:   logger,
	}
}

// eval evaluates text against the session bindings.
func (s *session) eval(text string) *lang.Cursor {
	c := lang.Evaluate(s.ctx(), text, s.bindings, s.opts...)

	s.logger.TraceContext(s.ctx(), "repl eval",
		slog.String("cursor", c.ID().String()),
		slog.Int("rows", c.Count()),
		slog.Bool("failed", c.IsError()),
	)

	return c
}

// let evaluates text and binds name to the result: the row itself when the
// query returns exactly one row, otherwise the list of rows. Rebinding a name
// replaces its value.
func (s *session) let(name, text string) (lang.Value, error) {
	if !lang.IsIdentifier(name) {
		return lang.Value{}, fmt.Errorf("%w: let NAME QUERY (invalid name %q)", ErrUsage, name)
	}

	c := s.eval(text)
	if c.IsError() {
		return lang.Value{}, c.Err()
	}

	rows := c.ToList()

	v := lang.List(rows...)
	if len(rows) == 1 {
		v = rows[0]
	}

	s.bindings[name] = v

	return v, nil
}

// unset removes name from the bindings and reports whether it was bound.
func (s *session) unset(name string) bool {
	_, ok := s.bindings[name]
	delete(s.bindings, name)

	return ok
}

// names returns the bound names, sorted.
func (s *session) names() []string {
	return slices.Sorted(maps.Keys(s.bindings))
}

// lookup resolves a dotted path of object members starting at a bound name.
func (s *session) lookup(path string) (lang.Value, bool) {
	parts := strings.Split(path, ".")

	v, ok := s.bindings[parts[0]]
	if !ok {
		return lang.Value{}, false
	}

	for _, key := range parts[1:] {
		if v, ok = v.Get(key); !ok {
			return lang.Value{}, false
		}
	}

	return v, true
}
