// File: internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Builds the process logger. Output goes to stderr so that command output on stdout
// stays machine-readable.
func NewLogger(debug bool) *slog.Logger {
	logger := New(os.Stderr, debug)
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}
	if debug {
		opts.Level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
