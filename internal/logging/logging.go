// Package logging builds the application logger. The TUI owns the terminal,
// so log events go to a file as JSON lines, or nowhere when no file is set.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// logger fields
const (
	PACKAGE = "pkg"
	EVENT   = "event"
	ID      = "id"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger at level writing to path. With an empty path events
// are discarded. The returned Closer releases the log file.
func New(level, path string) (zerolog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	if path == "" {
		return zerolog.New(io.Discard).Level(lvl), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}

	logger := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return logger, f, nil
}

// ParseLevel parses a level name. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Package returns a child logger tagged with pkg={name}.
func Package(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str(PACKAGE, name).Logger()
}
