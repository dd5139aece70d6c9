package logging

import (
	"log/slog"
	"os"
)

// Logger emits JSON action logs scoped to a service component.
type Logger struct {
	*slog.Logger
}

func New(service string) *Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{Logger: slog.New(h).With("service", service)}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Action logs a named operation with structured fields.
func (l *Logger) Action(action string, args ...any) {
	l.Info(action, args...)
}

// Fail logs a failed operation; the caller decides whether it propagates.
func (l *Logger) Fail(action string, err error, args ...any) {
	l.Error(action, append([]any{"error", err.Error()}, args...)...)
}
