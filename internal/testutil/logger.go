package testutil

import (
	"io"
	"log/slog"
)

// QuietLogger returns a logger that discards everything, keeping test output
// readable.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
