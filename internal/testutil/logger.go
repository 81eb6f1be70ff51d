package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards everything. Used in tests
// where log output is noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
