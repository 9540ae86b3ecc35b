package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/aql/lang"
)

func TestEval_Run(t *testing.T) {
	dir := t.TempDir()
	users := writeFile(t, dir, "users.yaml", `
users:
  - {name: ada, age: 36}
  - {name: bob, age: 20}
top: 1
`)

	t.Setenv("AQL_TEST_HOME", "/home/ada")

	tests := []struct {
		name string
		eval Eval
		want string
	}{
		{
			name: "sorted",
			eval: Eval{Query: []string{"for u in [3, 1, 2] sort u return u"}},
			want: "[1,2,3]\n",
		},
		{
			name: "bind_expr",
			eval: Eval{
				Query:    []string{"for x in xs return x + n"},
				Bindings: Bindings{Bind: []string{"n=2", "xs=[n, n * 2]"}},
			},
			want: "[4,6]\n",
		},
		{
			name: "bind_env",
			eval: Eval{
				Query:    []string{"return home"},
				Bindings: Bindings{Bind: []string{`home=env("AQL_TEST_HOME")`}},
			},
			want: "[\"/home/ada\"]\n",
		},
		{
			name: "bindings_file",
			eval: Eval{
				Query:    []string{"for u in users filter u.age > cutoff limit 2 return u.name"},
				Bindings: Bindings{Bindings: users, Bind: []string{"cutoff=top * 30"}},
			},
			want: "[\"ada\"]\n",
		},
		{
			name: "native",
			eval: Eval{Query: []string{"return {a: 1, b: [true, null]}"}, Output: lang.FormatNative},
			want: "{a: 1, b: [true, null]}\n",
		},
		{
			name: "indented",
			eval: Eval{Query: []string{"return 1"}, Indent: 2},
			want: "[\n  1\n]\n",
		},
		{
			name: "batch",
			eval: Eval{Query: []string{"return 1", "return 2", "return 3"}, Workers: 2},
			want: "[1]\n[2]\n[3]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, tio := newRuntime(t, "")

			if err := tt.eval.Run(t.Context(), rt); err != nil {
				t.Fatalf("Run: %v (stderr %q)", err, tio.stderr.String())
			}

			if got := tio.stdout.String(); got != tt.want {
				t.Errorf("stdout = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEval_YAML(t *testing.T) {
	rt, tio := newRuntime(t, "")

	e := Eval{Query: []string{"return {z: 1, a: [2]}"}, Output: lang.FormatYAML, Indent: 2}
	if err := e.Run(t.Context(), rt); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var rows []any
	if err := yaml.UnmarshalWithOptions(tio.stdout.Bytes(), &rows, yaml.UseOrderedMap()); err != nil {
		t.Fatalf("decode %q: %v", tio.stdout.String(), err)
	}

	got, err := lang.FromNative(rows)
	if err != nil {
		t.Fatal(err)
	}

	if got.String() != "[{z: 1, a: [2]}]" {
		t.Errorf("rows = %s", got)
	}
}

func TestEval_Failures(t *testing.T) {
	rt, tio := newRuntime(t, "")

	e := Eval{Query: []string{"return 1", "return 1 / 0", "return 3"}}

	err := e.Run(t.Context(), rt)
	if !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("Run error = %v, want ErrQueryFailed", err)
	}

	if got := tio.stdout.String(); got != "[1]\n[3]\n" {
		t.Errorf("stdout = %q", got)
	}

	stderr := tio.stderr.String()
	for _, want := range []string{"arg2: ", "division by zero"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr %q lacks %q", stderr, want)
		}
	}
}

func TestEval_SyntaxErrorFromStdin(t *testing.T) {
	rt, tio := newRuntime(t, "for u in xs\nreturn (u")

	err := (&Eval{}).Run(t.Context(), rt)
	if !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("Run error = %v, want ErrQueryFailed", err)
	}

	if stderr := tio.stderr.String(); !strings.Contains(stderr, "syntax error") ||
		!strings.Contains(stderr, "  2 | return (u") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestBindings_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		b    Bindings
	}{
		{"no_equals", Bindings{Bind: []string{"x"}}},
		{"bad_name", Bindings{Bind: []string{"1x=2"}}},
		{"keyword_name", Bindings{Bind: []string{"for=2"}}},
		{"bad_expr", Bindings{Bind: []string{"x=)"}}},
		{"unknown_name", Bindings{Bind: []string{"x=nope + 1"}}},
		{"list_file", Bindings{Bindings: writeFile(t, dir, "list.yaml", "- 1\n- 2\n")}},
		{"bad_key", Bindings{Bindings: writeFile(t, dir, "key.yaml", "\"a b\": 1\n")}},
		{"missing_file", Bindings{Bindings: dir + "/missing.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newRuntime(t, "")

			if _, err := tt.b.Load(t.Context(), rt); !errors.Is(err, ErrBinding) {
				t.Errorf("Load error = %v, want ErrBinding", err)
			}
		})
	}
}

func TestBindings_Order(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "b.json", `{"x": 1, "cfg": {"b": 2, "a": 1}}`)

	rt, _ := newRuntime(t, "")

	b := Bindings{Bindings: file, Bind: []string{"x=x + 10"}}

	got, err := b.Load(t.Context(), rt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s := got["x"].String(); s != "11" {
		t.Errorf("x = %s, want 11", s)
	}

	if s := got["cfg"].String(); s != "{b: 2, a: 1}" {
		t.Errorf("cfg = %s, want member order kept", s)
	}
}

func TestBindings_UnicodeName(t *testing.T) {
	rt, tio := newRuntime(t, "")

	e := Eval{
		Query:    []string{"return ñ + 1"},
		Bindings: Bindings{Bind: []string{"ñ=41"}},
	}

	if err := e.Run(t.Context(), rt); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := tio.stdout.String(); got != "[42]\n" {
		t.Errorf("stdout = %q, want %q", got, "[42]\n")
	}
}
