package profile

import (
	"slices"
	"testing"
)

func TestProfiler_NoMode(t *testing.T) {
	p := Profiler{Path: t.TempDir()}

	if _, ok := p.Start().(ignore); !ok {
		t.Error("Start without a mode is not a no-op")
	}
}

func TestProfiler_UnknownMode(t *testing.T) {
	p := Profiler{Mode: "bogus", Path: t.TempDir(), Quiet: true}

	stop := p.Start()
	stop.Stop()

	if slices.Contains(Modes(), "bogus") {
		t.Error("Modes lists an unknown mode")
	}
}

func TestModes(t *testing.T) {
	modes := Modes()

	if !slices.IsSorted(modes) {
		t.Errorf("Modes() = %v, not sorted", modes)
	}

	if Enabled() != (len(modes) > 0) {
		t.Error("Enabled disagrees with Modes")
	}
}
