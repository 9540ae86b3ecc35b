package lang

import (
	"log/slog"
	"math"
)

// Add returns a + b. Both operands must be numbers.
func Add(a, b Value) (Value, error) {
	if err := numbers(OpAdd, a, b); err != nil {
		return Value{}, err
	}

	if !a.float && !b.float {
		r := a.i + b.i
		// Overflow iff both operands share a sign the result does not.
		if (a.i >= 0) == (b.i >= 0) && (r >= 0) != (a.i >= 0) {
			return Float(float64(a.i) + float64(b.i)), nil
		}

		return Int(r), nil
	}

	x, y := floats(a, b)

	return Float(x + y), nil
}

// Sub returns a - b. Both operands must be numbers.
func Sub(a, b Value) (Value, error) {
	if err := numbers(OpSub, a, b); err != nil {
		return Value{}, err
	}

	if !a.float && !b.float {
		r := a.i - b.i
		if (a.i >= 0) != (b.i >= 0) && (r >= 0) != (a.i >= 0) {
			return Float(float64(a.i) - float64(b.i)), nil
		}

		return Int(r), nil
	}

	x, y := floats(a, b)

	return Float(x - y), nil
}

// Mul returns a * b. Both operands must be numbers.
func Mul(a, b Value) (Value, error) {
	if err := numbers(OpMul, a, b); err != nil {
		return Value{}, err
	}

	if !a.float && !b.float {
		if a.i == 0 || b.i == 0 {
			return Int(0), nil
		}

		r := a.i * b.i
		if r/b.i != a.i || (a.i == -1 && b.i == math.MinInt64) ||
			(b.i == -1 && a.i == math.MinInt64) {
			return Float(float64(a.i) * float64(b.i)), nil
		}

		return Int(r), nil
	}

	x, y := floats(a, b)

	return Float(x * y), nil
}

// Div returns a / b. Both operands must be numbers and b must be non-zero.
// Dividing two integers yields an integer only when the quotient is exact.
func Div(a, b Value) (Value, error) {
	if err := numbers(OpDiv, a, b); err != nil {
		return Value{}, err
	}

	if isZero(b) {
		return Value{}, ErrDivisionByZero.With(slog.String("op", OpDiv.String()))
	}

	if !a.float && !b.float {
		if a.i%b.i == 0 && (a.i != math.MinInt64 || b.i != -1) {
			return Int(a.i / b.i), nil
		}

		return Float(float64(a.i) / float64(b.i)), nil
	}

	x, y := floats(a, b)

	return Float(x / y), nil
}

// Mod returns the remainder of a / b, with the sign of a. Both operands
// must be numbers and b must be non-zero.
func Mod(a, b Value) (Value, error) {
	if err := numbers(OpMod, a, b); err != nil {
		return Value{}, err
	}

	if isZero(b) {
		return Value{}, ErrDivisionByZero.With(slog.String("op", OpMod.String()))
	}

	if !a.float && !b.float {
		return Int(a.i % b.i), nil
	}

	x, y := floats(a, b)

	return Float(math.Mod(x, y)), nil
}

// Neg returns -a. The operand must be a number.
func Neg(a Value) (Value, error) {
	if a.kind != KindNumber {
		return Value{}, ErrTypeMismatch.With(
			slog.String("op", OpNeg.String()),
			slog.String("operand", a.TypeName()),
		)
	}

	if a.float {
		return Float(-a.f), nil
	}

	if a.i == math.MinInt64 {
		return Float(-float64(a.i)), nil
	}

	return Int(-a.i), nil
}

func numbers(op Operator, a, b Value) error {
	if a.kind == KindNumber && b.kind == KindNumber {
		return nil
	}

	return ErrTypeMismatch.With(
		slog.String("op", op.String()),
		slog.String("left", a.TypeName()),
		slog.String("right", b.TypeName()),
	)
}

func floats(a, b Value) (float64, float64) {
	x, _ := a.AsFloat()
	y, _ := b.AsFloat()

	return x, y
}

func isZero(v Value) bool {
	if v.float {
		return v.f == 0
	}

	return v.i == 0
}
