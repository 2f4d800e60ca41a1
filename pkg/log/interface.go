// Package log provides the structured logging interface used across the sweep pipeline.
//
// The interface is slog-compatible; the production implementation is backed by
// zerolog (see logger.go) and tests use TestLogger. Components never configure
// logging themselves: they ask the provider for a named logger.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("sweep").With(
//	    log.ModelNameKey, "ALS",
//	)
//	logger.Info("Sweep started",
//	    log.OperationKey, log.OperationSweep,
//	    log.TotalKey, 24,
//	    log.ThreadsKey, 4,
//	)

package log

import (
	"context"
)

// Logger is the structured logger every package writes to. Fields are
// alternating key/value pairs as in log/slog; an error passed as the first
// field is recorded under ErrAttrKey together with its stack trace.
//
//	logger.Error("Error with "+p.String(), err, log.ErrorCodeKey, log.ErrorSolverFailure)
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a logger that adds fields to every entry.
	With(fields ...any) Logger

	// Enabled reports whether entries at level are emitted. Guard expensive
	// debug fields with it, as the ALS iteration log does.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
// This type allows for level-based filtering of log messages.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates the loggers handed out by GetLoggerWithName. The
// CLI installs a zerolog provider; tests swap in a TestLoggerProvider.
type LoggerProvider interface {
	GetLogger() Logger
	// GetLoggerWithName tags the logger with a "component" field.
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}