package lang

import (
	"runtime"

	"github.com/ardnew/aql/log"
)

// DefaultMaxDepth is the default maximum nesting depth of subqueries,
// parenthesized expressions, and list or object literals.
// Users may modify this before parsing to change the default.
var DefaultMaxDepth = 100

// options holds parse and evaluation configuration.
type options struct {
	logger   log.Logger // structured logger (doesn't affect cache keys)
	cache    *Cache
	observer Observer
	maxDepth int
	poolSize int
}

// Option configures parsing or evaluation behavior.
type Option func(*options)

// WithMaxDepth sets the maximum nesting depth. Values less than 1 select
// [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCache makes [Evaluate] reuse parsed queries from c.
func WithCache(c *Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithObserver registers an observer notified after every [Evaluate].
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithPoolSize sets the number of workers used by [EvaluateAll].
// Values less than 1 select [runtime.GOMAXPROCS].
func WithPoolSize(size int) Option {
	return func(o *options) {
		o.poolSize = size
	}
}

// makeOptions applies opts over the default configuration.
func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	if o.maxDepth < 1 {
		o.maxDepth = DefaultMaxDepth
	}

	if o.poolSize < 1 {
		o.poolSize = runtime.GOMAXPROCS(0)
	}

	return o
}
