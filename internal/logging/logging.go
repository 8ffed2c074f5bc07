// Package logging builds the application logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New returns a timestamped logger writing to w at the named level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// OpenFile returns a logger appending to path and a function closing the file.
func OpenFile(path, level string) (zerolog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return New(f, level), f.Close, nil
}

// Console returns a human-readable logger on stderr.
func Console(level string) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, level)
}
