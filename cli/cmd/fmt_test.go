package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/aql/lang"
)

func TestFmt_Run(t *testing.T) {
	tests := []struct {
		name  string
		fmt   Fmt
		stdin string
		want  string
	}{
		{
			name: "canonical",
			fmt:  Fmt{Query: []string{"for   u in xs\n  filter u.ok\nreturn -u[0]"}},
			want: "for u in xs filter u.ok return -u[0]\n",
		},
		{
			name: "several",
			fmt:  Fmt{Query: []string{"return  1", "return 'a'"}},
			want: "return 1\nreturn \"a\"\n",
		},
		{
			name:  "stdin",
			stdin: "for u in [1,2]\nreturn u",
			want:  "for u in [1, 2] return u\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, tio := newRuntime(t, tt.stdin)

			if err := tt.fmt.Run(t.Context(), rt); err != nil {
				t.Fatalf("Run: %v", err)
			}

			if got := tio.stdout.String(); got != tt.want {
				t.Errorf("stdout = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFmt_AST(t *testing.T) {
	tests := []struct {
		name   string
		output lang.Format
		indent int
		prefix string
	}{
		{"json", lang.FormatJSON, 0, `{"node":"query","clauses":[{"node":"for","var":"u"`},
		{"yaml", lang.FormatYAML, 2, "node: query\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, tio := newRuntime(t, "")

			f := Fmt{
				Query:  []string{"for u in xs return u"},
				AST:    true,
				Output: tt.output,
				Indent: tt.indent,
			}

			if err := f.Run(t.Context(), rt); err != nil {
				t.Fatalf("Run: %v", err)
			}

			if got := tio.stdout.String(); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("stdout = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}

func TestFmt_SyntaxError(t *testing.T) {
	rt, tio := newRuntime(t, "")

	f := Fmt{Query: []string{"return 1", "for u in [1]\nreturn u +"}}

	err := f.Run(t.Context(), rt)
	if !errors.Is(err, ErrQueryFailed) || !errors.Is(err, lang.ErrSyntax) {
		t.Fatalf("Run error = %v, want ErrQueryFailed wrapping a syntax error", err)
	}

	if got := tio.stdout.String(); got != "return 1\n" {
		t.Errorf("stdout = %q", got)
	}

	lines := strings.Split(tio.stderr.String(), "\n")
	if len(lines) < 3 || lines[1] != "  2 | return u +" || !strings.HasSuffix(lines[2], "^") {
		t.Errorf("stderr = %q", tio.stderr.String())
	}
}
