package log

import "log/slog"

// NewNilLogger creates a logger that discards everything.
// It is the default logger of every component that accepts one.
func NewNilLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
