package lang

import (
	"fmt"
	"log/slog"
)

// expr evaluates e in the scope env.
func (ev *evaluator) expr(e Expr, env *Environment) (Value, error) {
	switch e := e.(type) {
	case *Literal:
		return e.Value, nil

	case *VariableRef:
		v, ok := env.Lookup(e.Name)
		if !ok {
			return Value{}, ErrUnboundVariable.WithPosition(e.At).
				With(slog.String("name", e.Name))
		}

		return v, nil

	case *BinaryOp:
		return ev.binary(e, env)

	case *UnaryOp:
		return ev.unary(e, env)

	case *ListConstructor:
		elems := make([]Value, len(e.Elements))

		for i, el := range e.Elements {
			v, err := ev.expr(el, env)
			if err != nil {
				return Value{}, err
			}

			elems[i] = v
		}

		return Value{kind: KindList, list: elems}, nil

	case *ObjectConstructor:
		members := make([]Member, len(e.Members))

		for i, m := range e.Members {
			v, err := ev.expr(m.Value, env)
			if err != nil {
				return Value{}, err
			}

			members[i] = Member{Key: m.Key, Value: v}
		}

		return Object(members...), nil

	case *Subquery:
		return ev.subquery(e, env)

	case *AttributeAccess:
		return ev.attribute(e, env)

	case *IndexAccess:
		return ev.index(e, env)

	case nil:
		return Value{}, ErrInvalidNode.With(slog.String("reason", "nil expression"))

	default:
		return Value{}, ErrInvalidNode.With(slog.String("type", fmt.Sprintf("%T", e)))
	}
}

func (ev *evaluator) binary(e *BinaryOp, env *Environment) (Value, error) {
	left, err := ev.expr(e.Left, env)
	if err != nil {
		return Value{}, err
	}

	// Logical operators short-circuit on their left operand.
	if e.Op == OpAnd || e.Op == OpOr {
		return ev.logical(e, left, env)
	}

	right, err := ev.expr(e.Right, env)
	if err != nil {
		return Value{}, err
	}

	var v Value

	switch e.Op {
	case OpEq:
		return Bool(Equal(left, right)), nil
	case OpNe:
		return Bool(!Equal(left, right)), nil
	case OpLt:
		return Bool(Compare(left, right) < 0), nil
	case OpLe:
		return Bool(Compare(left, right) <= 0), nil
	case OpGt:
		return Bool(Compare(left, right) > 0), nil
	case OpGe:
		return Bool(Compare(left, right) >= 0), nil
	case OpAdd:
		v, err = Add(left, right)
	case OpSub:
		v, err = Sub(left, right)
	case OpMul:
		v, err = Mul(left, right)
	case OpDiv:
		v, err = Div(left, right)
	case OpMod:
		v, err = Mod(left, right)
	default:
		err = ErrInvalidNode.With(slog.String("op", e.Op.String()))
	}

	if err != nil {
		return Value{}, atPosition(err, e.At)
	}

	return v, nil
}

func (ev *evaluator) logical(e *BinaryOp, left Value, env *Environment) (Value, error) {
	l, ok := left.AsBool()
	if !ok {
		return Value{}, mismatch(e.Op, e.Left.Pos(), KindBool, left)
	}

	if (e.Op == OpAnd && !l) || (e.Op == OpOr && l) {
		return Bool(l), nil
	}

	right, err := ev.expr(e.Right, env)
	if err != nil {
		return Value{}, err
	}

	r, ok := right.AsBool()
	if !ok {
		return Value{}, mismatch(e.Op, e.Right.Pos(), KindBool, right)
	}

	return Bool(r), nil
}

func (ev *evaluator) unary(e *UnaryOp, env *Environment) (Value, error) {
	v, err := ev.expr(e.Operand, env)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case OpNeg:
		v, err = Neg(v)

		return v, atPosition(err, e.At)

	case OpPos:
		if v.kind != KindNumber {
			return Value{}, mismatch(e.Op, e.At, KindNumber, v)
		}

		return v, nil

	case OpNot:
		b, ok := v.AsBool()
		if !ok {
			return Value{}, mismatch(e.Op, e.At, KindBool, v)
		}

		return Bool(!b), nil

	default:
		return Value{}, ErrInvalidNode.With(slog.String("op", e.Op.String()))
	}
}

// subquery runs the nested query in a scope chained to env and collects its
// rows into a list.
func (ev *evaluator) subquery(e *Subquery, env *Environment) (Value, error) {
	if ev.depth >= ev.maxDepth {
		return Value{}, ErrMaxDepthExceeded.WithPosition(e.At).
			With(slog.Int("max_depth", ev.maxDepth))
	}

	ev.depth++
	defer func() { ev.depth-- }()

	elems := []Value{}

	for v, err := range ev.query(e.Query, env) {
		if err != nil {
			return Value{}, err
		}

		elems = append(elems, v)
	}

	return Value{kind: KindList, list: elems}, nil
}

// attribute selects a member of an object. Missing members and null objects
// yield null.
func (ev *evaluator) attribute(e *AttributeAccess, env *Environment) (Value, error) {
	obj, err := ev.expr(e.Object, env)
	if err != nil {
		return Value{}, err
	}

	switch obj.kind {
	case KindNull:
		return Value{}, nil

	case KindObject:
		v, _ := obj.Get(e.Name)

		return v, nil

	default:
		return Value{}, ErrTypeMismatch.WithPosition(e.At).With(
			slog.String("attribute", e.Name),
			slog.String("expected", KindObject.String()),
			slog.String("found", obj.TypeName()),
		)
	}
}

// index selects a list element by number or an object member by string.
// Out of range indexes, missing members and null operands yield null.
func (ev *evaluator) index(e *IndexAccess, env *Environment) (Value, error) {
	obj, err := ev.expr(e.Object, env)
	if err != nil {
		return Value{}, err
	}

	idx, err := ev.expr(e.Index, env)
	if err != nil {
		return Value{}, err
	}

	switch obj.kind {
	case KindNull:
		return Value{}, nil

	case KindList:
		i, ok := idx.AsInt()
		if !ok {
			return Value{}, ErrTypeMismatch.WithPosition(e.Index.Pos()).With(
				slog.String("expected", "integer index"),
				slog.String("found", idx.TypeName()),
			)
		}

		v, _ := obj.At(i)

		return v, nil

	case KindObject:
		key, ok := idx.AsString()
		if !ok {
			return Value{}, ErrTypeMismatch.WithPosition(e.Index.Pos()).With(
				slog.String("expected", "string key"),
				slog.String("found", idx.TypeName()),
			)
		}

		v, _ := obj.Get(key)

		return v, nil

	default:
		return Value{}, ErrTypeMismatch.WithPosition(e.At).With(
			slog.String("expected", "list or object"),
			slog.String("found", obj.TypeName()),
		)
	}
}

func mismatch(op Operator, pos Position, want Kind, v Value) error {
	return ErrTypeMismatch.WithPosition(pos).With(
		slog.String("op", op.String()),
		slog.String("expected", want.String()),
		slog.String("found", v.TypeName()),
	)
}
