package log

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New builds the process logger: colored tint output for ENV=local,
// JSON everywhere else, both wrapped in a ContextHandler.
func New(w io.Writer, env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(NewContextHandler(inner))
}
