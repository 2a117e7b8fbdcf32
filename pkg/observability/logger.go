// Package observability provides logging, metrics, tracing and health
// reporting for the assistant service.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	// Level is the minimum level to emit: trace, debug, info, warn, error.
	Level string
	// Format selects the output encoding: "json" or "console".
	Format string
	// Output is the destination writer (defaults to stdout).
	Output io.Writer
	// Service is added to every event as the "service" field.
	Service string
}

// NewLogger builds a zerolog logger from the given configuration.
func NewLogger(cfg LogConfig) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		})
	} else {
		zl = zerolog.New(output)
	}

	zl = zl.Level(parseLevel(cfg.Level)).With().
		Timestamp().
		Str("service", cfg.Service).
		Logger()

	return zl
}

// DefaultLogger returns a console logger suitable for development.
func DefaultLogger() zerolog.Logger {
	return NewLogger(LogConfig{
		Level:   "debug",
		Format:  "console",
		Service: "assistant",
	})
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
