// Package cli contains the command line interface for aql.
//
// # Usage
//
// Queries given as arguments are evaluated by default:
//
//	aql 'for u in [3, 1, 2] sort u return u'
//	aql eval -f report -b 'users=[{name: "ada"}]' --output yaml
//	aql fmt --ast 'for u in users return u.name'
//	aql repl
//
// Query files are resolved against the --include directories followed by
// the directories listed in AQL_PATH.
//
// # Configuration
//
// Flag defaults are read from config.yaml and config.json in the user
// configuration directory. Nested YAML mappings name prefixed flags:
//
//	log:
//	  level: debug
//	max-depth: 64
//
// "aql init" writes the current flag values to config.yaml.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Metrics Options
//
//   - --metrics-file: Write Prometheus text exposition at exit
//   - --metrics-process: Include Go runtime and process collectors
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o aql .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
