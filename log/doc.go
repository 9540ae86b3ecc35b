// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Every logging method takes typed [slog.Attr] values rather than loose
// key/value pairs. The zero [Logger] discards all output, which lets library
// packages hold a Logger in their options without requiring callers to
// configure one.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("query evaluated", slog.Int("rows", 3))
//	logger.Error("query failed", slog.Any("error", err))
//
// # Configuration
//
// Configure the logger using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// [Logger.Wrap] derives a new logger from an existing configuration.
//
// # Adding Attributes
//
// [Logger.With] returns a logger that includes the given attributes in
// every message:
//
//	logger = logger.With(slog.String("cursor", id))
//	logger.Debug("evaluate start") // includes cursor=<id>
//
// # Context-Aware Logging
//
// Each level has a context-aware and a context-unaware variant. The
// context-unaware variants use [DefaultContextProvider], which returns
// [context.TODO] unless replaced.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-stage detail
// such as parse and cache activity. [LevelDebug], [LevelInfo], [LevelWarn]
// and [LevelError] match their [log/slog] counterparts.
//
// # Output Formats
//
// [FormatJSON] (default) and [FormatText] select the standard [log/slog]
// handlers. [WithPretty] replaces them with colorized variants intended for
// interactive terminals.
package log
