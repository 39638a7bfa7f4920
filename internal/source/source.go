// Package source provides the data sources dashboard panels fetch from:
// HTTP endpoints, local commands, and static fixtures. Every source
// yields a Payload of display lines; the engine stores it as the
// section's result.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rshade/mosaic/internal/engine"
)

// Source type names accepted by Config.Type.
const (
	TypeHTTP    = "http"
	TypeCommand = "command"
	TypeStatic  = "static"
)

// Default per-fetch timeouts applied when Config.Timeout is zero.
const (
	defaultHTTPTimeout    = 10 * time.Second
	defaultCommandTimeout = 15 * time.Second
)

// Byte caps on fetched content. HTTP bodies and captured command output
// are truncated at their cap; a single line of maxLineBytes or more
// fails the line scan with bufio.ErrTooLong. maxLineBytes stays above
// both caps so content that passed a cap always scans.
const (
	maxBodyBytes   = 1 << 20
	maxOutputBytes = 1 << 20
	maxLineBytes   = 2 << 20
)

// ErrUnknownSourceType indicates a Config named a type New does not
// recognize.
var ErrUnknownSourceType = errors.New("unknown source type")

// Payload is the fetched content of one panel.
type Payload struct {
	Lines     []string  `json:"lines"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Source fetches one panel's content. Implementations must honor ctx
// cancellation; the engine calls Fetch on its own goroutine.
type Source interface {
	Fetch(ctx context.Context) (Payload, error)
}

// Config selects and parameterizes a source. Only the fields for the
// chosen Type are consulted.
type Config struct {
	Type string

	// HTTP fields.
	URL     string
	Method  string
	Headers map[string]string

	// Command fields.
	Command []string
	Dir     string

	// Static fields.
	Lines []string
	Delay time.Duration
	Fail  string

	// Timeout bounds one fetch. Zero picks a per-type default; static
	// sources run unbounded apart from their Delay.
	Timeout time.Duration

	// MaxLines truncates the payload. Zero keeps every line.
	MaxLines int
}

// New builds the source described by cfg.
func New(cfg Config) (Source, error) {
	switch cfg.Type {
	case TypeHTTP:
		return newHTTPSource(cfg)
	case TypeCommand:
		return newCommandSource(cfg)
	case TypeStatic:
		return newStaticSource(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, cfg.Type)
	}
}

// Bind adapts a source to the engine's fetch signature.
func Bind(s Source) engine.FetchFunc {
	return func(ctx context.Context) (any, error) {
		payload, err := s.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return payload, nil
	}
}

// splitLines breaks raw output into display lines, dropping a single
// trailing newline's empty remainder and truncating at maxLines when
// positive. A line of maxLineBytes or more fails the scan.
func splitLines(raw string, maxLines int) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if maxLines > 0 && len(lines) >= maxLines {
			return lines, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// capLines truncates lines at maxLines when positive.
func capLines(lines []string, maxLines int) []string {
	if maxLines > 0 && len(lines) > maxLines {
		return lines[:maxLines]
	}
	return lines
}
