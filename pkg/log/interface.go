// Package log provides the structured logging interface used across
// crimescope.
//
// The Logger interface mirrors log/slog's method set so call sites read the
// same regardless of backend. The process logger is backed by zerolog and is
// configured once by Setup; tests swap in a TestLogger.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "Random Forest",
//	    log.ComponentKey, "training",
//	)
//	logger.Info("fit completed",
//	    log.SamplesKey, 180,
//	    log.DurationMsKey, 412,
//	)
package log

import (
	"context"
)

// Logger is a slog-compatible structured logger.
type Logger interface {
	// Debug logs diagnostic detail, normally disabled outside development.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs conditions that do not stop execution.
	Warn(msg string, fields ...any)

	// Error logs an error condition. If the first field is an error value it
	// is attached as the event error together with its stack trace.
	//
	//   logger.Error("training failed", err, log.ModelNameKey, name)
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level; values match slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
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
