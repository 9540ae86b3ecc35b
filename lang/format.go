package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format selects how rows and parsed queries are rendered.
type Format int

const (
	FormatJSON   Format = iota // json
	FormatYAML                 // yaml
	FormatNative               // native
)

var formatNames = [...]string{
	FormatJSON:   "json",
	FormatYAML:   "yaml",
	FormatNative: "native",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}

	return formatNames[f]
}

// Formats returns an iterator over the names of all formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range formatNames {
			if !yield(name) {
				return
			}
		}
	}
}

// ErrUnknownFormat is returned by [ParseFormat] for unrecognized names.
var ErrUnknownFormat = NewError("unknown format")

// ParseFormat returns the format with the given case-insensitive name.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))

	for i, n := range formatNames {
		if n == name {
			return Format(i), nil
		}
	}

	return 0, ErrUnknownFormat.With(slog.String("format", s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}

	*f = v

	return nil
}

// WriteRows writes rows to w in format f. An indent greater than zero
// selects multi-line output for JSON and YAML.
//
// JSON writes a single array, YAML a single sequence, and native writes
// one row per line in query literal syntax.
func WriteRows(
	ctx context.Context,
	w io.Writer,
	rows []Value,
	f Format,
	indent int,
) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, List(rows...), indent)

	case FormatYAML:
		return writeYAML(ctx, w, List(rows...), indent)

	case FormatNative:
		for _, row := range rows {
			if _, err := fmt.Fprintln(w, row.String()); err != nil {
				return err
			}
		}

		return nil

	default:
		return ErrUnknownFormat.With(slog.Int("format", int(f)))
	}
}

// WriteQuery writes q to w in format f. Native output is canonical query
// text; JSON and YAML describe the syntax tree returned by [Query.Tree].
func (q *Query) WriteQuery(
	ctx context.Context,
	w io.Writer,
	f Format,
	indent int,
) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, q.Tree(), indent)

	case FormatYAML:
		return writeYAML(ctx, w, q.Tree(), indent)

	case FormatNative:
		_, err := fmt.Fprintln(w, q.String())

		return err

	default:
		return ErrUnknownFormat.With(slog.Int("format", int(f)))
	}
}

func writeJSON(w io.Writer, v Value, indent int) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}

	if indent > 0 {
		var buf bytes.Buffer

		if err := json.Indent(&buf, data, "", strings.Repeat(" ", indent)); err != nil {
			return err
		}

		data = buf.Bytes()
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

func writeYAML(ctx context.Context, w io.Writer, v Value, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, v.yamlValue(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// Tree returns the syntax tree of q as an object value. Each node is an
// object whose "node" member names its kind.
func (q *Query) Tree() Value {
	clauses := make([]Value, 0, len(q.Clauses)+1)

	for _, c := range q.Clauses {
		clauses = append(clauses, nodeTree(c))
	}

	if q.Return != nil {
		clauses = append(clauses, nodeTree(q.Return))
	}

	return Object(
		Member{Key: "node", Value: String("query")},
		Member{Key: "clauses", Value: List(clauses...)},
	)
}

func nodeTree(n Node) Value {
	var members []Member

	add := func(key string, v Value) {
		members = append(members, Member{Key: key, Value: v})
	}

	exprs := func(es []Expr) Value {
		vs := make([]Value, len(es))
		for i, e := range es {
			vs[i] = nodeTree(e)
		}

		return List(vs...)
	}

	switch n := n.(type) {
	case *ForClause:
		add("node", String("for"))
		add("var", String(n.Var))
		add("source", nodeTree(n.Source))
	case *LetClause:
		add("node", String("let"))
		add("var", String(n.Var))
		add("value", nodeTree(n.Value))
	case *FilterClause:
		add("node", String("filter"))
		add("cond", nodeTree(n.Cond))
	case *SortClause:
		keys := make([]Value, len(n.Keys))
		for i, k := range n.Keys {
			keys[i] = Object(
				Member{Key: "expr", Value: nodeTree(k.Expr)},
				Member{Key: "desc", Value: Bool(k.Desc)},
			)
		}

		add("node", String("sort"))
		add("keys", List(keys...))
	case *LimitClause:
		add("node", String("limit"))
		add("offset", Int(n.Offset))
		add("count", Int(n.Count))
	case *ReturnClause:
		add("node", String("return"))
		add("value", nodeTree(n.Value))
	case *Literal:
		add("node", String("literal"))
		add("value", n.Value)
	case *VariableRef:
		add("node", String("var"))
		add("name", String(n.Name))
	case *BinaryOp:
		add("node", String("binary"))
		add("op", String(n.Op.String()))
		add("left", nodeTree(n.Left))
		add("right", nodeTree(n.Right))
	case *UnaryOp:
		add("node", String("unary"))
		add("op", String(n.Op.String()))
		add("operand", nodeTree(n.Operand))
	case *ListConstructor:
		add("node", String("list"))
		add("elements", exprs(n.Elements))
	case *ObjectConstructor:
		entries := make([]Value, len(n.Members))
		for i, m := range n.Members {
			entries[i] = Object(
				Member{Key: "key", Value: String(m.Key)},
				Member{Key: "value", Value: nodeTree(m.Value)},
			)
		}

		add("node", String("object"))
		add("members", List(entries...))
	case *Subquery:
		add("node", String("subquery"))
		add("query", n.Query.Tree())
	case *AttributeAccess:
		add("node", String("attribute"))
		add("object", nodeTree(n.Object))
		add("name", String(n.Name))
	case *IndexAccess:
		add("node", String("index"))
		add("object", nodeTree(n.Object))
		add("index", nodeTree(n.Index))
	default:
		return Null()
	}

	if pos := n.Pos(); pos.IsValid() {
		add("line", Int(int64(pos.Line)))
		add("column", Int(int64(pos.Column)))
	}

	return Object(members...)
}
