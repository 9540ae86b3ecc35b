package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`

// Profiler configures a file-based profiling session.
type Profiler struct {
	// Mode names the profile to collect. See [Modes].
	Mode string
	// Path is the output directory. Empty uses a temporary directory.
	Path string
	// Quiet suppresses the profiler's own start and stop messages.
	Quiet bool
}

// Start begins profiling and returns a handle whose Stop method flushes the
// profile to disk.
//
// Without the pprof build tag, or when Mode is empty or unknown, Start
// returns a handle that does nothing. Stop is always safe to call.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

// Enabled reports whether the binary was built with profiling support.
func Enabled() bool { return len(Modes()) > 0 }

type ignore struct{}

func (ignore) Stop() {}
