package lang

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// Equal reports whether a and b are structurally equal.
//
// Values of different kinds are never equal. Numbers compare by numeric
// value regardless of representation, and object member order is ignored.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true

	case KindBool:
		return a.b == b.b

	case KindNumber:
		return compareNumber(a, b) == 0

	case KindString:
		return a.s == b.s

	case KindList:
		return slices.EqualFunc(a.list, b.list, Equal)

	case KindObject:
		if len(a.obj.members) != len(b.obj.members) {
			return false
		}

		for _, m := range a.obj.members {
			o, ok := b.Get(m.Key)
			if !ok || !Equal(m.Value, o) {
				return false
			}
		}

		return true
	}

	return false
}

// Compare returns -1, 0, or +1 depending on whether a sorts before, equal
// to, or after b.
//
// The order is total: null < bool < number < string < list < object.
// Within a kind, false < true, numbers compare numerically, strings compare
// bytewise, lists compare element-wise and then by length, and objects
// compare by their sorted key sets and then by the values under those keys.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}

	switch a.kind {
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case b.b:
			return -1
		default:
			return 1
		}

	case KindNumber:
		return compareNumber(a, b)

	case KindString:
		return strings.Compare(a.s, b.s)

	case KindList:
		return slices.CompareFunc(a.list, b.list, Compare)

	case KindObject:
		ak, bk := a.Keys(), b.Keys()
		slices.Sort(ak)
		slices.Sort(bk)

		if c := slices.Compare(ak, bk); c != 0 {
			return c
		}

		for _, k := range ak {
			av, _ := a.Get(k)
			bv, _ := b.Get(k)

			if c := Compare(av, bv); c != 0 {
				return c
			}
		}
	}

	return 0
}

// compareNumber orders two numbers without losing precision when an int64
// is compared against a float64. NaN sorts before every other number.
func compareNumber(a, b Value) int {
	switch {
	case !a.float && !b.float:
		return cmp.Compare(a.i, b.i)
	case a.float && b.float:
		return cmp.Compare(a.f, b.f)
	case a.float:
		return -compareIntFloat(b.i, a.f)
	default:
		return compareIntFloat(a.i, b.f)
	}
}

func compareIntFloat(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f >= math.MaxInt64:
		return -1
	case f < math.MinInt64:
		return 1
	}

	t := math.Trunc(f)
	if c := cmp.Compare(i, int64(t)); c != 0 {
		return c
	}

	// i equals the integral part of f; the fraction decides.
	return cmp.Compare(0, f-t)
}
