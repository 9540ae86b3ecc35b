// Package cmd implements the aql subcommands: eval, fmt, repl, and init.
//
// Commands receive the shared [Runtime] through kong bindings and the
// [kong.Context] through [WithContext].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
