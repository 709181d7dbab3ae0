// Package logging provides structured logging configuration using log/slog.
//
// Every ingest or extract invocation gets a run ID, carried in the context,
// so all log entries of one run can be correlated even when several runs
// append to the same LOG_FILE.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type (
	runKey    struct{}
	loggerKey struct{}
)

// Setup configures the global slog logger based on level and format.
// Output goes to stderr, plus a copy to file when it is non-empty. The
// returned close function releases the file.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Use "json" format when logs are shipped somewhere for machine parsing.
// Use "text" format for interactive runs.
func Setup(level, format, file string) (func() error, error) {
	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return closeFn, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeFn = f.Close
	}

	slog.SetDefault(slog.New(NewHandler(w, level, format)))
	return closeFn, nil
}

// NewHandler returns a text or JSON handler writing to w.
func NewHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithRun stores a run ID in ctx. An empty id gets a fresh UUID.
func WithRun(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, runKey{}, id)
}

// RunID returns the run ID stored by WithRun, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runKey{}).(string)
	return id
}

// NewContext stores logger in ctx for FromContext and WithFields.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by NewContext as is. Without one it
// returns the default logger enriched with the run ID, if any.
//
// Usage:
//
//	ctx = logging.WithRun(ctx, "")
//	logger := logging.FromContext(ctx)
//	logger.Info("ingest started", "dir", dataDir)
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	logger := slog.Default()

	if id := RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	fileLogger := logging.WithFields(ctx, "file", name, "entity", entity)
//	fileLogger.Info("file staged", "rows", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
