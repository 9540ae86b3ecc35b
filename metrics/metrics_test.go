package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ardnew/aql/lang"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, StatusOK},
		{lang.ErrSyntax, StatusSyntax},
		{lang.ErrMaxDepthExceeded, StatusSyntax},
		{lang.ErrTypeMismatch, StatusRuntime},
		{lang.ErrCanceled.Wrap(context.Canceled), StatusCanceled},
		{errors.New("other"), StatusRuntime},
	}

	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecorder_Observer(t *testing.T) {
	r := New()
	obs := lang.WithObserver(r)

	lang.Evaluate(t.Context(), "for u in [1, 2, 3] return u", nil, obs)
	lang.Evaluate(t.Context(), "return [1]", nil, obs)
	lang.Evaluate(t.Context(), "return", nil, obs)
	lang.Evaluate(t.Context(), "return 1 / 0", nil, obs)

	if got := testutil.ToFloat64(r.queries.WithLabelValues(StatusOK)); got != 2 {
		t.Errorf("ok queries = %v, want 2", got)
	}

	if got := testutil.ToFloat64(r.queries.WithLabelValues(StatusSyntax)); got != 1 {
		t.Errorf("syntax errors = %v, want 1", got)
	}

	if got := testutil.ToFloat64(r.queries.WithLabelValues(StatusRuntime)); got != 1 {
		t.Errorf("runtime errors = %v, want 1", got)
	}

	if got := testutil.ToFloat64(r.rows); got != 4 {
		t.Errorf("rows = %v, want 4", got)
	}

	if n := testutil.CollectAndCount(r.duration); n != 3 {
		t.Errorf("duration series = %d, want 3", n)
	}
}

func TestRecorder_WriteFile(t *testing.T) {
	r := New()
	lang.Evaluate(t.Context(), "return 1", nil, lang.WithObserver(r))

	path := filepath.Join(t.TempDir(), "aql.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	for _, want := range []string{
		`aql_queries_total{status="ok"} 1`,
		"aql_rows_total 1",
		"# TYPE aql_query_duration_seconds histogram",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("exposition lacks %q:\n%s", want, data)
		}
	}
}

func TestRecorder_ProcessCollectors(t *testing.T) {
	r := New(WithProcessCollectors())

	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "go_") {
			return
		}
	}

	t.Error("no Go runtime metrics registered")
}
