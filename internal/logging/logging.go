// Package logging configures the process-wide structured logger. The TUI
// owns stdout, so logs go to a file under the state directory.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Logger returns the shared logger.
func Logger() *slog.Logger {
	return logger
}

// Setup points the shared logger at a JSON log file, creating the parent
// directory if needed. Returns a close func for the underlying file.
func Setup(path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	logger = slog.New(slog.NewJSONHandler(f, nil))
	return f.Close, nil
}

// SetOutput redirects the shared logger, used by tests.
func SetOutput(w io.Writer) {
	logger = slog.New(slog.NewJSONHandler(w, nil))
}
