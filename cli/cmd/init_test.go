package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/aql/lang"
)

type initCLI struct {
	LogLevel string      `default:"info"`
	MaxDepth int         `default:"100"`
	Include  []string    `short:"I"`
	Output   lang.Format `default:"json"`
	Secret   string      `hidden:""`

	Init Init `cmd:""`
}

func initContext(t *testing.T, args ...string) (context.Context, *kong.Context) {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli, kong.Name("aql"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}

	return WithContext(t.Context(), ktx), ktx
}

func TestInit_Run(t *testing.T) {
	tests := []struct {
		name     string
		existing bool
		args     []string
		wantErr  error
		want     map[string]any
	}{
		{
			name: "create",
			args: []string{"init"},
			want: map[string]any{"log-level": "info", "max-depth": uint64(100), "output": "json"},
		},
		{
			name:     "exists",
			existing: true,
			args:     []string{"init"},
			wantErr:  ErrFileExists,
		},
		{
			name:     "force",
			existing: true,
			args:     []string{"--max-depth=7", "-I", "lib", "--output=yaml", "init", "--force"},
			want: map[string]any{
				"log-level": "info",
				"max-depth": uint64(7),
				"include":   []any{"lib"},
				"output":    "yaml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")

			if tt.existing {
				writeFile(t, filepath.Dir(path), "config.yaml", "old: true\n")
			}

			ctx, ktx := initContext(t, tt.args...)

			rt, _ := newRuntime(t, "")
			rt.ConfigFile = path

			c, ok := ktx.Selected().Target.Addr().Interface().(*Init)
			if !ok {
				t.Fatalf("selected command is %s", ktx.Command())
			}

			err := c.Run(ctx, rt)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			var got map[string]any
			if err := yaml.Unmarshal(data, &got); err != nil {
				t.Fatalf("decode %q: %v", data, err)
			}

			if len(got) != len(tt.want) {
				t.Errorf("config = %v, want %v", got, tt.want)
			}

			for k, want := range tt.want {
				if gs, ws := yamlText(t, got[k]), yamlText(t, want); gs != ws {
					t.Errorf("%s = %s, want %s", k, gs, ws)
				}
			}
		})
	}
}

func TestPlainValue(t *testing.T) {
	tests := []struct {
		in     any
		want   any
		wantOK bool
	}{
		{nil, nil, false},
		{"", nil, false},
		{[]string{}, nil, false},
		{true, true, true},
		{int8(3), int64(3), true},
		{uint(4), uint64(4), true},
		{lang.FormatYAML, "yaml", true},
		{[]string{"a", ""}, []any{"a"}, true},
	}

	for _, tt := range tests {
		got, ok := plainValue(tt.in)
		if ok != tt.wantOK {
			t.Errorf("plainValue(%#v) ok = %v", tt.in, ok)

			continue
		}

		if ok && yamlText(t, got) != yamlText(t, tt.want) {
			t.Errorf("plainValue(%#v) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func yamlText(t *testing.T, v any) string {
	t.Helper()

	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}

	return string(data)
}
