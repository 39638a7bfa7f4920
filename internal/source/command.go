package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner executes an external command and returns its stdout,
// stderr, and error. The interface enables testing without spawning
// real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// execRunner is the default CommandRunner backed by exec.CommandContext.
// Captured stdout and stderr are each capped at maxOutputBytes.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	stdout := &capWriter{limit: maxOutputBytes}
	stderr := &capWriter{limit: maxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// capWriter keeps the first limit bytes written and discards the rest.
// Write always reports the full count; exec.Cmd treats a short write as
// a copy failure.
type capWriter struct {
	buf   bytes.Buffer
	limit int
}

func (w *capWriter) Write(p []byte) (int, error) {
	n := len(p)
	if room := w.limit - w.buf.Len(); room > 0 {
		if n > room {
			p = p[:room]
		}
		w.buf.Write(p)
	}
	return n, nil
}

func (w *capWriter) Bytes() []byte { return w.buf.Bytes() }

// commandSource runs a local command and turns its stdout into panel
// lines.
type commandSource struct {
	argv     []string
	dir      string
	timeout  time.Duration
	maxLines int
	runner   CommandRunner
}

func newCommandSource(cfg Config) (*commandSource, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("command source: command is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	return &commandSource{
		argv:     append([]string(nil), cfg.Command...),
		dir:      cfg.Dir,
		timeout:  timeout,
		maxLines: cfg.MaxLines,
		runner:   execRunner{},
	}, nil
}

func (s *commandSource) Fetch(ctx context.Context) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stdout, stderr, err := s.runner.Run(ctx, s.dir, s.argv[0], s.argv[1:]...)
	if err != nil {
		if msg := firstLine(stderr); msg != "" {
			return Payload{}, fmt.Errorf("running %s: %w: %s", s.argv[0], err, msg)
		}
		return Payload{}, fmt.Errorf("running %s: %w", s.argv[0], err)
	}

	lines, err := splitLines(string(stdout), s.maxLines)
	if err != nil {
		return Payload{}, fmt.Errorf("reading %s output: %w", s.argv[0], err)
	}
	return Payload{
		Lines:     lines,
		FetchedAt: time.Now(),
	}, nil
}

// firstLine returns the first non-empty line of command output, used to
// surface the interesting part of stderr in errors.
func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
