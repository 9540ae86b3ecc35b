// Package profile provides optional file-based runtime profiling built on
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	aql --pprof-mode cpu --pprof-dir ./profiles eval 'return 1'
//
// Without the tag, [Modes] is empty and [Profiler.Start] is a no-op.
//
// Supported modes are allocs, block, clock, cpu, goroutine, heap, mem,
// mutex, thread and trace. Each session writes one file named after its
// mode, for example cpu.pprof, into [Profiler.Path]. Inspect it with
//
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// Tagged builds also register the [net/http/pprof] handlers on
// [net/http.DefaultServeMux]; the CLI does not serve them.
package profile
