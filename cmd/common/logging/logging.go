// Package logging sets up the slog default logger for crossfader commands.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup points slog at path, and at stderr too unless quiet. The play UI
// owns the terminal, so it passes quiet. The returned func closes the file.
func Setup(path string, level slog.Level, quiet bool) func() {
	var writers []io.Writer
	if !quiet {
		writers = append(writers, os.Stderr)
	}

	closeFn := func() {}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			if f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				writers = append(writers, f)
				closeFn = func() { _ = f.Close() }
			}
		}
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return closeFn
}
