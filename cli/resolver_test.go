package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestLoadYAML(t *testing.T) {
	const doc = `
log:
  level: debug
  pretty: false
max_depth: 12
include:
  - lib
  - /opt/aql
ratio: 1.5
42: answer
`

	r, err := loadYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("loadYAML: %v", err)
	}

	cfg, ok := r.(config)
	if !ok {
		t.Fatalf("resolver type = %T", r)
	}

	tests := []struct {
		name string
		sep  rune
		want any
	}{
		{"log-level", ',', "debug"},
		{"log-pretty", ',', "false"},
		{"max-depth", ',', "12"},
		{"include", ',', "lib,/opt/aql"},
		{"include", ':', "lib:/opt/aql"},
		{"ratio", ',', "1.5"},
		{"42", ',', "answer"},
		{"missing", ',', nil},
	}

	for _, tt := range tests {
		flag := &kong.Flag{Value: &kong.Value{Name: tt.name, Tag: &kong.Tag{Sep: tt.sep}}}

		got, err := cfg.Resolve(nil, nil, flag)
		if err != nil {
			t.Errorf("Resolve(%s): %v", tt.name, err)

			continue
		}

		if got != tt.want {
			t.Errorf("Resolve(%s) = %#v, want %#v", tt.name, got, tt.want)
		}
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	r, err := loadYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("loadYAML: %v", err)
	}

	if cfg, ok := r.(config); !ok || len(cfg) != 0 {
		t.Errorf("resolver = %#v, want empty config", r)
	}
}

func TestLoadYAML_Invalid(t *testing.T) {
	if _, err := loadYAML(strings.NewReader("- a\n- b\n")); err == nil {
		t.Error("sequence document accepted")
	}
}
