// Package logger constructs the zerolog loggers used across Stockwatch.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console logger at the given level.
//
// Unknown level strings fall back to "info".
func New(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)

	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(writer).
		Level(parsed).
		With().
		Timestamp().
		Logger()
}
