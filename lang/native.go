package lang

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Native converts v into plain Go values: nil, bool, int64, float64, string,
// []any and map[string]any.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.float {
			return v.f
		}

		return v.i
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}

		return out
	case KindObject:
		out := make(map[string]any, len(v.obj.members))
		for _, m := range v.obj.members {
			out[m.Key] = m.Value.Native()
		}

		return out
	default:
		return nil
	}
}

// FromNative converts a Go value into a [Value].
//
// Supported inputs are nil, bool, every integer and floating-point type,
// string, [json.Number], [yaml.MapSlice], [Value], and slices and maps of
// supported values. Maps other than [yaml.MapSlice] have no intrinsic order,
// so their members are sorted by key. Map keys must be strings, or values
// whose formatted text is used as the key.
func FromNative(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}

		f, err := x.Float64()
		if err != nil {
			return Value{}, ErrInvalidNative.Wrap(err).With(slog.String("number", string(x)))
		}

		return Float(f), nil
	case []any:
		return fromSlice(len(x), func(i int) any { return x[i] })
	case map[string]any:
		keys := slices.Sorted(maps.Keys(x))

		return fromMembers(len(keys), func(i int) (string, any) {
			return keys[i], x[keys[i]]
		})
	case yaml.MapSlice:
		return fromMembers(len(x), func(i int) (string, any) {
			return keyString(x[i].Key), x[i].Value
		})
	}

	return fromReflect(reflect.ValueOf(x))
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}

	return Int(int64(u))
}

func fromSlice(n int, at func(int) any) (Value, error) {
	elems := make([]Value, n)

	for i := range n {
		v, err := FromNative(at(i))
		if err != nil {
			return Value{}, err
		}

		elems[i] = v
	}

	return Value{kind: KindList, list: elems}, nil
}

func fromMembers(n int, at func(int) (string, any)) (Value, error) {
	members := make([]Member, n)

	for i := range n {
		key, x := at(i)

		v, err := FromNative(x)
		if err != nil {
			return Value{}, err
		}

		members[i] = Member{Key: key, Value: v}
	}

	return Object(members...), nil
}

// fromReflect handles named and composite types not matched directly.
func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}

		return FromNative(rv.Elem().Interface())

	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil

	case reflect.String:
		return String(rv.String()), nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}

		return fromSlice(rv.Len(), func(i int) any { return rv.Index(i).Interface() })

	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		byKey := make(map[string]reflect.Value, rv.Len())

		for it := rv.MapRange(); it.Next(); {
			k := keyString(it.Key().Interface())
			keys = append(keys, k)
			byKey[k] = it.Value()
		}

		slices.Sort(keys)

		return fromMembers(len(keys), func(i int) (string, any) {
			return keys[i], byKey[keys[i]].Interface()
		})

	case reflect.Invalid:
		return Null(), nil
	}

	return Value{}, ErrInvalidNative.With(slog.String("type", rv.Type().String()))
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}

	return fmt.Sprint(k)
}

// MarshalJSON encodes v as JSON, keeping object members in insertion order.
// Non-finite floats, which JSON cannot represent, are encoded as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")

	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))

	case KindNumber:
		if v.float && (math.IsInf(v.f, 0) || math.IsNaN(v.f)) {
			buf.WriteString("null")
		} else {
			buf.WriteString(v.numberString())
		}

	case KindString:
		if err := writeJSONString(buf, v.s); err != nil {
			return err
		}

	case KindList:
		buf.WriteByte('[')

		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := e.writeJSON(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')

	case KindObject:
		buf.WriteByte('{')

		for i, m := range v.obj.members {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeJSONString(buf, m.Key); err != nil {
				return err
			}

			buf.WriteByte(':')

			if err := m.Value.writeJSON(buf); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	}

	return nil
}

// writeJSONString writes s as a JSON string without escaping HTML
// characters.
func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return err
	}

	buf.Truncate(buf.Len() - 1) // trailing newline

	return nil
}

// MarshalYAML returns a YAML-encodable form of v that keeps object members
// in insertion order.
func (v Value) MarshalYAML() (any, error) {
	return v.yamlValue(), nil
}

func (v Value) yamlValue() any {
	switch v.kind {
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.yamlValue()
		}

		return out

	case KindObject:
		out := make(yaml.MapSlice, len(v.obj.members))
		for i, m := range v.obj.members {
			out[i] = yaml.MapItem{Key: m.Key, Value: m.Value.yamlValue()}
		}

		return out

	default:
		return v.Native()
	}
}
