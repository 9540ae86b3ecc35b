package cli

import (
	"testing"

	"github.com/ardnew/aql/log"
)

func TestLogConfig_Scan(t *testing.T) {
	original := log.Default()
	t.Cleanup(func() { log.SetDefault(original) })

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate_values",
			args: []string{"eval", "--log-level", "debug", "--log-format", "text", "return 1"},
			want: logConfig{Level: "debug", Format: "text", Pretty: true},
		},
		{
			name: "assigned",
			args: []string{"--log-level=trace", "--log-caller", "--log-pretty=false"},
			want: logConfig{Level: "trace", Caller: true},
		},
		{
			name: "negated",
			args: []string{"--no-log-pretty", "--no-log-caller=false"},
			want: logConfig{Caller: true},
		},
		{
			name: "time_layout",
			args: []string{"--log-time-layout=Kitchen"},
			want: logConfig{TimeLayout: "Kitchen", Pretty: true},
		},
		{
			name: "after_terminator",
			args: []string{"--", "--log-level=error"},
			want: logConfig{Pretty: true},
		},
		{
			name: "flag_value_not_consumed",
			args: []string{"--log-level", "--log-caller"},
			want: logConfig{Caller: true, Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := logConfig{Pretty: true}
			got.scan(tt.args)

			if got != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}

	var f logConfig
	f.scan([]string{"--log-level=warn"})

	if lvl := log.Default().Level(); lvl != log.LevelWarn {
		t.Errorf("default level = %v, want warn", lvl)
	}
}
