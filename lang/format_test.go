package lang

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" YAML ", FormatYAML, false},
		{"Native", FormatNative, false},
		{"xml", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("ParseFormat(%q) error = %v, want %v", tt.in, err, ErrUnknownFormat)
			}

			continue
		}

		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"json", "yaml", "native"}) {
		t.Errorf("Formats() = %v", got)
	}

	var f Format
	if err := f.UnmarshalText([]byte("yaml")); err != nil || f != FormatYAML {
		t.Errorf("UnmarshalText = %v, %v", f, err)
	}

	if s := Format(9).String(); s != "Format(9)" {
		t.Errorf("String() = %q", s)
	}
}

func TestWriteRows(t *testing.T) {
	rows := []Value{
		Int(1),
		Object(
			Member{Key: "b", Value: String("x")},
			Member{Key: "a", Value: List(Bool(true))},
		),
	}

	tests := []struct {
		name   string
		format Format
		indent int
		want   string
	}{
		{"json compact", FormatJSON, 0, `[1,{"b":"x","a":[true]}]` + "\n"},
		{
			name:   "json indented",
			format: FormatJSON,
			indent: 2,
			want:   "[\n  1,\n  {\n    \"b\": \"x\",\n    \"a\": [\n      true\n    ]\n  }\n]\n",
		},
		{"native", FormatNative, 0, "1\n{b: \"x\", a: [true]}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			if err := WriteRows(t.Context(), &buf, rows, tt.format, tt.indent); err != nil {
				t.Fatalf("WriteRows: %v", err)
			}

			if buf.String() != tt.want {
				t.Errorf("WriteRows = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	var buf bytes.Buffer
	if err := WriteRows(t.Context(), &buf, rows, Format(-1), 0); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("unknown format error = %v", err)
	}
}

func TestWriteRows_YAML(t *testing.T) {
	rows := []Value{
		Int(-3),
		Float(0.25),
		Object(
			Member{Key: "z", Value: String("last")},
			Member{Key: "a", Value: Null()},
		),
	}

	for _, indent := range []int{0, 2} {
		var buf bytes.Buffer

		if err := WriteRows(t.Context(), &buf, rows, FormatYAML, indent); err != nil {
			t.Fatalf("WriteRows(indent %d): %v", indent, err)
		}

		var decoded []any
		if err := yaml.UnmarshalWithOptions(buf.Bytes(), &decoded, yaml.UseOrderedMap()); err != nil {
			t.Fatalf("decode %q: %v", buf.String(), err)
		}

		got, err := FromNative(decoded)
		if err != nil {
			t.Fatalf("FromNative: %v", err)
		}

		// Member order survives the ordered map.
		if want := List(rows...); got.String() != want.String() {
			t.Errorf("indent %d: decoded %s, want %s", indent, got, want)
		}
	}
}

func TestQuery_Tree(t *testing.T) {
	q, err := Parse(t.Context(), "for u in xs filter u.ok return -u[0]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tree := q.Tree()

	clauses, _ := tree.Get("clauses")
	if clauses.Len() != 3 {
		t.Fatalf("clauses = %s", clauses)
	}

	kinds := make([]string, 0, 3)

	for _, c := range clauses.Elements() {
		node, _ := c.Get("node")
		s, _ := node.AsString()
		kinds = append(kinds, s)
	}

	if !slices.Equal(kinds, []string{"for", "filter", "return"}) {
		t.Errorf("clause kinds = %v", kinds)
	}

	ret, _ := clauses.At(2)
	value, _ := ret.Get("value")

	if op, _ := value.Get("op"); op.String() != `"-"` {
		t.Errorf("return op = %s", op)
	}

	if col, _ := value.Get("column"); !Equal(col, Int(32)) {
		t.Errorf("return column = %s, want 32", col)
	}

	var buf bytes.Buffer
	if err := q.WriteQuery(t.Context(), &buf, FormatNative, 0); err != nil {
		t.Fatalf("WriteQuery: %v", err)
	}

	if want := "for u in xs filter u.ok return -u[0]\n"; buf.String() != want {
		t.Errorf("WriteQuery = %q, want %q", buf.String(), want)
	}

	buf.Reset()

	if err := q.WriteQuery(t.Context(), &buf, FormatJSON, 0); err != nil {
		t.Fatalf("WriteQuery: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte(`{"node":"query","clauses":[{"node":"for","var":"u"`)) {
		t.Errorf("WriteQuery json = %s", buf.String())
	}
}
