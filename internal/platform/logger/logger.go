package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Handlers and services take it
// by injection; nothing reads the slog default.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
