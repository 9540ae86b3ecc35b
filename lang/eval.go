package lang

import (
	"context"
	"iter"
	"log/slog"
	"slices"

	"github.com/ardnew/aql/log"
)

// rows is the active row set flowing between clause stages. Each row is the
// innermost scope of its bindings.
type rows = iter.Seq2[*Environment, error]

// evaluator holds the state of one query invocation.
type evaluator struct {
	ctx      context.Context //nolint:containedctx // scoped to one invocation
	logger   log.Logger
	maxDepth int
	depth    int
}

// Run evaluates q against env and returns its output rows lazily.
//
// Rows are produced in order. Iteration stops at the first error, which is
// yielded as the final pair; rows yielded before it remain valid, so callers
// that need all-or-nothing results should use [Evaluate] instead.
func (q *Query) Run(
	ctx context.Context,
	env *Environment,
	opts ...Option,
) iter.Seq2[Value, error] {
	o := makeOptions(opts...)

	if ctx == nil {
		ctx = context.Background()
	}

	if env == nil {
		env = NewEnvironment(nil)
	}

	return func(yield func(Value, error) bool) {
		if err := checkBindings(q); err != nil {
			yield(Value{}, err)

			return
		}

		ev := &evaluator{ctx: ctx, logger: o.logger, maxDepth: o.maxDepth}

		for v, err := range ev.query(q, env) {
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// query runs the clause pipeline of q in a child scope of env.
func (ev *evaluator) query(q *Query, env *Environment) iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		if q == nil || q.Return == nil {
			yield(Value{}, ErrInvalidNode.With(slog.String("reason", "query without return")))

			return
		}

		var active rows = func(yield func(*Environment, error) bool) {
			yield(env.Push(), nil)
		}

		for _, c := range q.Clauses {
			var err error
			if active, err = ev.stage(c, active); err != nil {
				yield(Value{}, err)

				return
			}
		}

		for row, err := range active {
			if err == nil {
				err = ev.canceled()
			}

			if err != nil {
				yield(Value{}, err)

				return
			}

			v, err := ev.expr(q.Return.Value, row)
			if err != nil {
				yield(Value{}, err)

				return
			}

			if !yield(v, nil) {
				return
			}
		}
	}
}

// stage wraps in with the row transformation performed by c.
func (ev *evaluator) stage(c Clause, in rows) (rows, error) {
	switch c := c.(type) {
	case *ForClause:
		return ev.forRows(c, in), nil
	case *LetClause:
		return ev.letRows(c, in), nil
	case *FilterClause:
		return ev.filterRows(c, in), nil
	case *SortClause:
		return ev.sortRows(c, in), nil
	case *LimitClause:
		return limitRows(c, in), nil
	case *ReturnClause:
		return nil, ErrInvalidNode.WithPosition(c.At).
			With(slog.String("reason", "return must be the final clause"))
	default:
		return nil, ErrInvalidNode.With(slog.String("reason", "unknown clause"))
	}
}

// forRows replaces each row with one child row per element of the source
// list, in outer row order and then element order.
func (ev *evaluator) forRows(c *ForClause, in rows) rows {
	return func(yield func(*Environment, error) bool) {
		for row, err := range in {
			if err != nil {
				yield(nil, err)

				return
			}

			src, err := ev.expr(c.Source, row)
			if err != nil {
				yield(nil, err)

				return
			}

			if src.kind != KindList {
				yield(nil, ErrTypeMismatch.WithPosition(c.Source.Pos()).With(
					slog.String("clause", "for"),
					slog.String("expected", KindList.String()),
					slog.String("found", src.TypeName()),
				))

				return
			}

			for _, elem := range src.list {
				if err := ev.canceled(); err != nil {
					yield(nil, err)

					return
				}

				child := row.Push()
				if err := child.Bind(c.Var, elem); err != nil {
					yield(nil, atPosition(err, c.At))

					return
				}

				if !yield(child, nil) {
					return
				}
			}
		}
	}
}

// letRows binds the variable in the scope of every row.
func (ev *evaluator) letRows(c *LetClause, in rows) rows {
	return func(yield func(*Environment, error) bool) {
		for row, err := range in {
			if err != nil {
				yield(nil, err)

				return
			}

			v, err := ev.expr(c.Value, row)
			if err == nil {
				err = atPosition(row.Bind(c.Var, v), c.At)
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(row, nil) {
				return
			}
		}
	}
}

// filterRows discards the rows whose condition is false or null.
func (ev *evaluator) filterRows(c *FilterClause, in rows) rows {
	return func(yield func(*Environment, error) bool) {
		for row, err := range in {
			if err != nil {
				yield(nil, err)

				return
			}

			v, err := ev.expr(c.Cond, row)
			if err != nil {
				yield(nil, err)

				return
			}

			switch v.kind {
			case KindNull:
				continue

			case KindBool:
				if !v.b {
					continue
				}

			default:
				yield(nil, ErrTypeMismatch.WithPosition(c.Cond.Pos()).With(
					slog.String("clause", "filter"),
					slog.String("expected", KindBool.String()),
					slog.String("found", v.TypeName()),
				))

				return
			}

			if !yield(row, nil) {
				return
			}
		}
	}
}

// sortRows materializes the rows and orders them stably by the sort keys.
func (ev *evaluator) sortRows(c *SortClause, in rows) rows {
	type keyed struct {
		row  *Environment
		keys []Value
	}

	return func(yield func(*Environment, error) bool) {
		var all []keyed

		for row, err := range in {
			if err != nil {
				yield(nil, err)

				return
			}

			keys := make([]Value, len(c.Keys))

			for i, k := range c.Keys {
				if keys[i], err = ev.expr(k.Expr, row); err != nil {
					yield(nil, err)

					return
				}
			}

			all = append(all, keyed{row: row, keys: keys})
		}

		ev.logger.TraceContext(ev.ctx, "sort rows",
			slog.Int("rows", len(all)),
			slog.Int("keys", len(c.Keys)),
		)

		slices.SortStableFunc(all, func(a, b keyed) int {
			for i, k := range c.Keys {
				n := Compare(a.keys[i], b.keys[i])
				if k.Desc {
					n = -n
				}

				if n != 0 {
					return n
				}
			}

			return 0
		})

		for _, r := range all {
			if !yield(r.row, nil) {
				return
			}
		}
	}
}

// limitRows skips Offset rows and then passes at most Count rows. Rows past
// the limit are never pulled from the preceding stage.
func limitRows(c *LimitClause, in rows) rows {
	return func(yield func(*Environment, error) bool) {
		if c.Count <= 0 {
			return
		}

		var seen, sent int64

		for row, err := range in {
			if err != nil {
				yield(nil, err)

				return
			}

			seen++
			if seen <= c.Offset {
				continue
			}

			if !yield(row, nil) {
				return
			}

			sent++
			if sent >= c.Count {
				return
			}
		}
	}
}

// canceled reports the cancellation of the invocation context.
func (ev *evaluator) canceled() error {
	if ev.ctx.Err() == nil {
		return nil
	}

	return ErrCanceled.Wrap(context.Cause(ev.ctx))
}

// checkBindings reports a let clause that rebinds a name already bound in
// the same scope, anywhere in q including its subqueries. It runs before
// evaluation so the error does not depend on how many rows exist.
func checkBindings(q *Query) error {
	if q == nil {
		return ErrInvalidNode.With(slog.String("reason", "nil query"))
	}

	scope := make(map[string]struct{})

	for _, c := range q.Clauses {
		var exprs []Expr

		switch c := c.(type) {
		case *ForClause:
			exprs = append(exprs, c.Source)
			scope = map[string]struct{}{c.Var: {}}

		case *LetClause:
			exprs = append(exprs, c.Value)

			if _, ok := scope[c.Var]; ok {
				return ErrDuplicateBinding.WithPosition(c.At).
					With(slog.String("name", c.Var))
			}

			scope[c.Var] = struct{}{}

		case *FilterClause:
			exprs = append(exprs, c.Cond)

		case *SortClause:
			for _, k := range c.Keys {
				exprs = append(exprs, k.Expr)
			}
		}

		for _, e := range exprs {
			if err := checkSubqueries(e); err != nil {
				return err
			}
		}
	}

	if q.Return == nil {
		return ErrInvalidNode.With(slog.String("reason", "query without return"))
	}

	return checkSubqueries(q.Return.Value)
}

func checkSubqueries(e Expr) error {
	return walkExpr(e, func(e Expr) error {
		if sq, ok := e.(*Subquery); ok {
			return checkBindings(sq.Query)
		}

		return nil
	})
}

// walkExpr calls fn for e and each of its sub-expressions, outermost first.
// Subquery bodies are not entered.
func walkExpr(e Expr, fn func(Expr) error) error {
	if e == nil {
		return nil
	}

	if err := fn(e); err != nil {
		return err
	}

	var children []Expr

	switch e := e.(type) {
	case *BinaryOp:
		children = []Expr{e.Left, e.Right}
	case *UnaryOp:
		children = []Expr{e.Operand}
	case *ListConstructor:
		children = e.Elements
	case *ObjectConstructor:
		for _, m := range e.Members {
			children = append(children, m.Value)
		}
	case *AttributeAccess:
		children = []Expr{e.Object}
	case *IndexAccess:
		children = []Expr{e.Object, e.Index}
	}

	for _, c := range children {
		if err := walkExpr(c, fn); err != nil {
			return err
		}
	}

	return nil
}
