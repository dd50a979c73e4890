// Package logging builds slog loggers and carries them through request contexts.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is the minimum level written.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config describes a logger. Writer defaults to os.Stdout.
type Config struct {
	Level     Level
	Format    Format
	AddSource bool
	Writer    io.Writer
}

// New returns a logger for cfg. Unknown levels fall back to info and unknown formats to JSON.
func New(cfg Config) *slog.Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := slog.HandlerOptions{
		AddSource: cfg.AddSource,
		Level:     ParseLevel(string(cfg.Level)),
	}

	var handler slog.Handler
	switch Format(strings.ToLower(string(cfg.Format))) {
	case FormatText:
		handler = slog.NewTextHandler(writer, &opts)
	default:
		handler = slog.NewJSONHandler(writer, &opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case string(LevelDebug):
		return slog.LevelDebug
	case string(LevelWarn):
		return slog.LevelWarn
	case string(LevelError):
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type loggerKey struct{}

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored by WithLogger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
