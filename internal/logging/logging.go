// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the slog logger used by the HTTP server and the
// background refresh job. CLI commands keep writing progress to their
// io.Writer instead.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a text logger at the given level. Logs go to stderr so
// command output on stdout stays machine-readable.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter creates a text logger writing to w.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: Level(level),
	})
	return slog.New(handler)
}

// Level maps a config string to a slog level. Unknown strings mean info.
func Level(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
