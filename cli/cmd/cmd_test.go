package cmd

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/aql/pkg"
)

type testIO struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// newRuntime returns a runtime reading stdin from the given text and
// writing to buffers.
func newRuntime(t *testing.T, stdin string, path ...string) (*Runtime, *testIO) {
	t.Helper()

	var tio testIO

	return &Runtime{
		Stdin:      strings.NewReader(stdin),
		Stdout:     &tio.stdout,
		Stderr:     &tio.stderr,
		Path:       path,
		CacheDir:   t.TempDir(),
		ConfigFile: filepath.Join(t.TempDir(), "config.yaml"),
	}, &tio
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func sourceTexts(srcs []source) []string {
	out := make([]string, len(srcs))
	for i, s := range srcs {
		out[i] = s.text
	}

	return out
}

func TestCollectSources(t *testing.T) {
	dir := t.TempDir()
	lib := t.TempDir()

	a := writeFile(t, dir, "a.aql", "return 1")
	writeFile(t, lib, "b.aql", "return 2")

	link := filepath.Join(dir, "link.aql")
	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		inline []string
		files  []string
		stdin  string
		want   []string
	}{
		{"inline", []string{"return 0", "return 9"}, nil, "", []string{"return 0", "return 9"}},
		{"stdin_default", nil, nil, "return 7", []string{"return 7"}},
		{"file", nil, []string{a}, "", []string{"return 1"}},
		{"search_path", nil, []string{"b"}, "", []string{"return 2"}},
		{"inline_then_files", []string{"return 0"}, []string{"b.aql", a}, "", []string{"return 0", "return 2", "return 1"}},
		{"duplicates", nil, []string{a, link, a}, "", []string{"return 1"}},
		{"stdin_last", nil, []string{"-", a, "-"}, "return 7", []string{"return 1", "return 7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newRuntime(t, tt.stdin, lib)

			srcs, err := collectSources(t.Context(), rt, tt.inline, tt.files)
			if err != nil {
				t.Fatalf("collectSources: %v", err)
			}

			got := sourceTexts(srcs)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("sources = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollectSources_Errors(t *testing.T) {
	rt, _ := newRuntime(t, "")

	_, err := collectSources(t.Context(), rt, nil, []string{"missing.aql"})
	if !errors.Is(err, ErrReadQuery) || !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("missing file error = %v", err)
	}

	rt.Stdin = nil

	if _, err := collectSources(t.Context(), rt, nil, nil); !errors.Is(err, ErrNoQuery) {
		t.Errorf("no input error = %v, want ErrNoQuery", err)
	}
}

func TestError(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrWriteConfig.With(slog.String("file", "x.yaml")).Wrap(cause)

	if got := err.Error(); got != "write configuration file: disk full" {
		t.Errorf("Error() = %q", got)
	}

	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, cause) {
		t.Error("errors.Is does not match sentinel and cause")
	}

	if errors.Is(err, ErrFileExists) {
		t.Error("errors.Is matched an unrelated sentinel")
	}

	attrs := err.LogValue().Group()
	if len(attrs) != 3 || attrs[2].Key != "file" {
		t.Errorf("LogValue = %v", attrs)
	}
}
