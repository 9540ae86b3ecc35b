package lang

import (
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

// Kinds are declared in their total-order rank: a Value of a lower Kind
// always sorts before a Value of a higher Kind.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable query value.
//
// The zero Value is null. Numbers carry either an int64 or a float64
// representation; both compare and combine interchangeably.
type Value struct {
	s     string
	list  []Value
	obj   *object
	i     int64
	f     float64
	kind  Kind
	b     bool
	float bool
}

// Member is a single key/value entry of an object Value.
type Member struct {
	Key   string
	Value Value
}

// object preserves member insertion order for serialization; the index is
// used for lookups.
type object struct {
	index   map[string]int
	members []Member
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integral number Value.
func Int(i int64) Value { return Value{kind: KindNumber, i: i} }

// Float returns a floating-point number Value.
func Float(f float64) Value { return Value{kind: KindNumber, f: f, float: true} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a list Value containing elems in order.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: slices.Clip(slices.Clone(elems))}
}

// Object returns an object Value with the given members.
//
// When a key occurs more than once the last value wins, but the key keeps
// the position of its first occurrence.
func Object(members ...Member) Value {
	o := &object{
		index:   make(map[string]int, len(members)),
		members: make([]Member, 0, len(members)),
	}

	for _, m := range members {
		if i, ok := o.index[m.Key]; ok {
			o.members[i].Value = m.Value

			continue
		}

		o.index[m.Key] = len(o.members)
		o.members = append(o.members, m)
	}

	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns the name of the variant held by v.
func (v Value) TypeName() string { return v.kind.String() }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsInt reports whether v is a number with an integral representation.
func (v Value) IsInt() bool { return v.kind == KindNumber && !v.float }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer held by v. Floats with an exact integral value
// are converted.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	if !v.float {
		return v.i, true
	}

	if v.f != math.Trunc(v.f) || v.f < math.MinInt64 || v.f >= math.MaxInt64 {
		return 0, false
	}

	return int64(v.f), true
}

// AsFloat returns the number held by v as a float64.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	if v.float {
		return v.f, true
	}

	return float64(v.i), true
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Len returns the number of elements of a list or members of an object.
// It returns 0 for all other kinds.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindObject:
		return len(v.obj.members)
	default:
		return 0
	}
}

// Elements returns a copy of the elements of a list Value.
func (v Value) Elements() []Value {
	if v.kind != KindList {
		return nil
	}

	return slices.Clone(v.list)
}

// At returns the element of a list Value at index i. Negative indexes count
// back from the end of the list.
func (v Value) At(i int64) (Value, bool) {
	if v.kind != KindList {
		return Value{}, false
	}

	n := int64(len(v.list))
	if i < 0 {
		i += n
	}

	if i < 0 || i >= n {
		return Value{}, false
	}

	return v.list[i], true
}

// Members returns a copy of the members of an object Value in insertion
// order.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}

	return slices.Clone(v.obj.members)
}

// Keys returns the keys of an object Value in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}

	keys := make([]string, len(v.obj.members))
	for i, m := range v.obj.members {
		keys[i] = m.Key
	}

	return keys
}

// Get returns the value of the member named key of an object Value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}

	i, ok := v.obj.index[key]
	if !ok {
		return Value{}, false
	}

	return v.obj.members[i].Value, true
}

// String returns v in query literal syntax.
func (v Value) String() string {
	var b strings.Builder

	v.writeTo(&b)

	return b.String()
}

func (v Value) writeTo(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")

	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))

	case KindNumber:
		b.WriteString(v.numberString())

	case KindString:
		b.WriteString(strconv.Quote(v.s))

	case KindList:
		b.WriteByte('[')

		for i, e := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}

			e.writeTo(b)
		}

		b.WriteByte(']')

	case KindObject:
		b.WriteByte('{')

		for i, m := range v.obj.members {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(formatKey(m.Key))
			b.WriteString(": ")
			m.Value.writeTo(b)
		}

		b.WriteByte('}')
	}
}

// numberString formats a number so that floats stay recognizable as floats
// when read back.
func (v Value) numberString() string {
	if !v.float {
		return strconv.FormatInt(v.i, 10)
	}

	s := strconv.FormatFloat(v.f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}

	return s + ".0"
}

// LogValue implements slog.LogValuer.
func (v Value) LogValue() slog.Value {
	switch v.kind {
	case KindNull:
		return slog.AnyValue(nil)
	case KindBool:
		return slog.BoolValue(v.b)
	case KindNumber:
		if v.float {
			return slog.Float64Value(v.f)
		}

		return slog.Int64Value(v.i)
	case KindString:
		return slog.StringValue(v.s)
	default:
		return slog.StringValue(v.String())
	}
}
