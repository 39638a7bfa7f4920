// Package logging provides structured logging for mosaic built on rs/zerolog.
//
// Loggers are configured once at CLI startup and flow through context.Context
// so that every component logs with a consistent format, level, and trace ID.
// Key features:
//   - Console (human-readable) and JSON output formats
//   - Optional append-mode log file with stderr fallback
//   - Per-component sub-loggers via ComponentLogger
//   - ULID trace IDs propagated through context
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Output format names accepted by Config.Format.
const (
	// FormatConsole renders human-readable colorized output.
	FormatConsole = "console"

	// FormatJSON renders one JSON object per line.
	FormatJSON = "json"
)

// Environment variables that override logging configuration.
const (
	// EnvLogLevel overrides the configured log level (e.g. "debug").
	EnvLogLevel = "MOSAIC_LOG_LEVEL"

	// EnvLogFormat overrides the configured output format.
	EnvLogFormat = "MOSAIC_LOG_FORMAT"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Empty or unparseable values default to "info".
	Level string

	// Format selects the output format: FormatConsole or FormatJSON.
	// Empty defaults to FormatConsole.
	Format string

	// File, when non-empty, appends log output to the named file instead
	// of stderr. If the file cannot be opened the logger falls back to
	// stderr and reports the failure on the returned logger.
	File string
}

// ApplyEnv overlays MOSAIC_LOG_LEVEL and MOSAIC_LOG_FORMAT onto the config.
// Explicitly set fields win only when the corresponding variable is unset.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Format = v
	}
}

// New builds a logger from cfg writing to stderr (or cfg.File when set).
// The returned closer releases the log file handle; it is a no-op when
// logging to stderr. New never fails: invalid levels default to info and
// an unopenable file falls back to stderr with a warning.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	if cfg.File == "" {
		return NewWithWriter(cfg, os.Stderr), nopCloser{}
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		logger := NewWithWriter(cfg, os.Stderr)
		logger.Warn().Err(err).Str("file", cfg.File).Msg("could not open log file, falling back to stderr")
		return logger, nopCloser{}
	}

	// File output is always JSON: console escape sequences are useless in a file.
	fileCfg := cfg
	fileCfg.Format = FormatJSON
	return NewWithWriter(fileCfg, f), f
}

// NewWithWriter builds a logger from cfg writing to w. It is the testable
// core of New.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// ComponentLogger returns a child logger tagged with a component name.
// Components correspond to packages ("cli", "engine", "server", ...).
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger attached to ctx, or a disabled logger
// when none was attached. Attach loggers with zerolog's WithContext.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// nopCloser satisfies io.Closer for stderr-backed loggers.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseFormat validates a format name, returning an error naming the
// accepted values for anything other than console or json.
func ParseFormat(s string) (string, error) {
	switch s {
	case "", FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want %q or %q)", s, FormatConsole, FormatJSON)
	}
}
