package chunkstore

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with chunkstore-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
// Containers use it unless WithLogger is given.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithContainer tags the logger with a container name.
func (l *Logger) WithContainer(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("container", name),
	}
}

// LogChunkAllocated logs the allocation of a chunk.
func (l *Logger) LogChunkAllocated(chunk int, bytes int64) {
	l.Debug("chunk allocated",
		"chunk", chunk,
		"bytes", bytes,
	)
}

// LogChunkReleased logs the release of a chunk.
func (l *Logger) LogChunkReleased(chunk int, bytes int64) {
	l.Debug("chunk released",
		"chunk", chunk,
		"bytes", bytes,
	)
}

// LogChunkDetached logs a chunk handed over to the caller.
func (l *Logger) LogChunkDetached(num int, bytes int64) {
	l.Debug("chunk detached",
		"elements", num,
		"bytes", bytes,
	)
}

// LogBudgetRefused logs a chunk allocation refused by the memory budget.
func (l *Logger) LogBudgetRefused(chunk int, bytes, used int64) {
	l.Error("chunk allocation refused by memory budget",
		"chunk", chunk,
		"bytes", bytes,
		"used", used,
	)
}

// LogSerialize logs a save or load.
func (l *Logger) LogSerialize(loading bool, bytes int64, err error) {
	op := "save"
	if loading {
		op = "load"
	}
	if err != nil {
		l.Error(op+" failed",
			"bytes", bytes,
			"error", err,
		)
		return
	}
	l.Debug(op+" completed",
		"bytes", bytes,
	)
}
