// Package logger provides slog logger factories used across authgate.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a JSON-formatted logger writing to stdout.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewNope creates a no-op logger that discards all output.
// Library components use this as a default when logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
