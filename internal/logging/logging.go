// Package logging builds the application slog.Logger
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the rotated JSON log inside the logs directory
const LogFileName = "gestao.log"

// Settings is the part of the configuration the logger needs
type Settings interface {
	GetLogLevel() string
	GetLogDirectory() string
	GetLogMaxSizeMB() int
	GetLogMaxBackups() int
	GetLogMaxAgeDays() int
	IsTest() bool
}

// ParseLevel maps a configured level name to a slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger writes human-readable text to stdout and, outside tests, JSON to a rotated file.
// The returned io.Closer releases the log file.
func NewLogger(s Settings, stdout io.Writer) (*slog.Logger, io.Closer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(s.GetLogLevel())}
	console := slog.NewTextHandler(stdout, opts)

	if s.IsTest() || s.GetLogDirectory() == "" {
		return slog.New(console), io.NopCloser(nil)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(s.GetLogDirectory(), LogFileName),
		MaxSize:    s.GetLogMaxSizeMB(),
		MaxBackups: s.GetLogMaxBackups(),
		MaxAge:     s.GetLogMaxAgeDays(),
		Compress:   true,
	}
	return slog.New(fanout{console, slog.NewJSONHandler(file, opts)}), file
}

// fanout sends every record to all handlers that accept its level
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
