package nearest

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with index-specific helpers so that every index
// logs with the same field names.
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

// NoopLogger creates a Logger that discards all log output. Indexes use it
// unless WithLogger is given.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithIndex tags the logger with the index kind ("kdtree" or "lsh").
func (l *Logger) WithIndex(kind string) *Logger {
	return &Logger{
		Logger: l.Logger.With("index", kind),
	}
}

// LogBuild logs the completion of a bulk build.
func (l *Logger) LogBuild(points, dimension int, attrs ...any) {
	l.Info("index built",
		append([]any{"points", points, "dimension", dimension}, attrs...)...,
	)
}

// LogInsert logs a single-point insertion.
func (l *Logger) LogInsert(id int, err error) {
	if err != nil {
		l.Error("insert failed", "error", err)
		return
	}
	l.Debug("insert completed", "id", id)
}

// LogDuplicate logs an insertion that was dropped because the point is
// already indexed.
func (l *Logger) LogDuplicate(existing int) {
	l.Debug("duplicate point ignored", "existing_id", existing)
}

// LogQuery logs a nearest-point query.
func (l *Logger) LogQuery(found bool, examined int, err error) {
	if err != nil {
		l.Error("query failed", "error", err)
		return
	}
	l.Debug("query completed",
		"found", found,
		"examined", examined,
	)
}
