package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/aql/log"
)

func Example_basic() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none"))
	logger.Info("query evaluated", slog.Int("rows", 3))
	// Output:
	// {"level":"INFO","msg":"query evaluated","rows":3}
}

func Example_levels() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelWarn),
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
	)

	logger.Debug("parse start")
	logger.Info("evaluate complete")
	logger.Warn("slow query", slog.String("cursor", "c1"))
	// Output:
	// level=WARN msg="slow query" cursor=c1
}

func Example_withAttributes() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none")).
		With(slog.String("component", "repl"))

	logger.InfoContext(context.Background(), "history loaded", slog.Int("entries", 12))
	// Output:
	// {"level":"INFO","msg":"history loaded","component":"repl","entries":12}
}
