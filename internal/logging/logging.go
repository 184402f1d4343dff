// Package logging configures the slog logger used by the CLI and the
// migrations handler.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "APPSTACK_LOG_LEVEL"
	EnvFormat = "APPSTACK_LOG_FORMAT"
)

// New returns a logger writing to w. format is "text" (default) or "json".
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// FromEnv builds a stderr logger. Explicit level and format win over the
// APPSTACK_LOG_LEVEL and APPSTACK_LOG_FORMAT variables.
func FromEnv(level, format string) *slog.Logger {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if format == "" {
		format = os.Getenv(EnvFormat)
	}
	return New(os.Stderr, level, format)
}

// Init installs a FromEnv logger as the slog default and returns it.
func Init(level, format string) *slog.Logger {
	logger := FromEnv(level, format)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
