package logging

import (
	"context"
	"log/slog"
)

// EnableTrace turns on per-fix output (log.trace). It is set once by Init.
var EnableTrace = false

// Trace logs at DEBUG when tracing is on. The decimator and the jobs call
// it for every fix, so the check comes before any attribute is formatted.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if !EnableTrace {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		logger.Debug(msg, args...)
	}
}
