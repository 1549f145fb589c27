package vectree

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vectree/index"
)

// Logger wraps slog.Logger with vectree-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithLibrary adds a library id field to the logger.
func (l *Logger) WithLibrary(id uuid.UUID) *Logger {
	return &Logger{
		Logger: l.Logger.With("library", id.String()),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(id uuid.UUID, dimension int, err error) {
	if err != nil {
		l.Error("add failed",
			"id", id.String(),
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.Debug("add completed",
			"id", id.String(),
			"dimension", dimension,
		)
	}
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(id uuid.UUID, err error) {
	if err != nil {
		l.Error("remove failed",
			"id", id.String(),
			"error", err,
		)
	} else {
		l.Debug("remove completed",
			"id", id.String(),
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(k, resultsFound int, err error) {
	if err != nil {
		l.Error("search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.Debug("search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogRebuild logs an index rebuild.
func (l *Logger) LogRebuild(algorithm index.Algorithm, size int, duration time.Duration, err error) {
	if err != nil {
		l.Error("rebuild failed",
			"algorithm", algorithm.String(),
			"error", err,
		)
	} else {
		l.Info("rebuild completed",
			"algorithm", algorithm.String(),
			"size", size,
			"duration", duration,
		)
	}
}
