package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records the invocation and returns canned output.
type fakeRunner struct {
	gotDir  string
	gotName string
	gotArgs []string

	stdout []byte
	stderr []byte
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	f.gotDir = dir
	f.gotName = name
	f.gotArgs = args
	return f.stdout, f.stderr, f.err
}

func TestCommandSource(t *testing.T) {
	t.Run("StdoutBecomesLines", func(t *testing.T) {
		s, err := newCommandSource(Config{Type: TypeCommand, Command: []string{"df", "-h", "/"}, Dir: "/tmp"})
		require.NoError(t, err)

		runner := &fakeRunner{stdout: []byte("Filesystem  Use%\n/dev/sda1   41%\n")}
		s.runner = runner

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Filesystem  Use%", "/dev/sda1   41%"}, payload.Lines)

		assert.Equal(t, "df", runner.gotName)
		assert.Equal(t, []string{"-h", "/"}, runner.gotArgs)
		assert.Equal(t, "/tmp", runner.gotDir)
	})

	t.Run("FailureIncludesStderr", func(t *testing.T) {
		s, err := newCommandSource(Config{Type: TypeCommand, Command: []string{"flaky-tool"}})
		require.NoError(t, err)

		runErr := errors.New("exit status 2")
		s.runner = &fakeRunner{stderr: []byte("\nconfig file missing\n"), err: runErr}

		_, err = s.Fetch(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, runErr)
		assert.Contains(t, err.Error(), "config file missing")
	})

	t.Run("FailureWithoutStderr", func(t *testing.T) {
		s, err := newCommandSource(Config{Type: TypeCommand, Command: []string{"flaky-tool"}})
		require.NoError(t, err)

		runErr := errors.New("exit status 1")
		s.runner = &fakeRunner{err: runErr}

		_, err = s.Fetch(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, runErr)
	})

	t.Run("MaxLinesTruncates", func(t *testing.T) {
		s, err := newCommandSource(Config{Type: TypeCommand, Command: []string{"journal"}, MaxLines: 1})
		require.NoError(t, err)

		s.runner = &fakeRunner{stdout: []byte("first\nsecond\nthird\n")}

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, payload.Lines)
	})

	t.Run("OverlongLineFailsFetch", func(t *testing.T) {
		s, err := newCommandSource(Config{Type: TypeCommand, Command: []string{"spewer"}})
		require.NoError(t, err)

		s.runner = &fakeRunner{stdout: bytes.Repeat([]byte("x"), 2<<20)}

		_, err = s.Fetch(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, bufio.ErrTooLong)
	})

	t.Run("EmptyCommandFails", func(t *testing.T) {
		_, err := New(Config{Type: TypeCommand})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "command is required")
	})
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "", firstLine(nil))
	assert.Equal(t, "", firstLine([]byte("  \n\t\n")))
	assert.Equal(t, "boom", firstLine([]byte("\n  boom  \nmore")))
}

func TestCapWriter(t *testing.T) {
	w := &capWriter{limit: 8}

	n, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n, "full count reported despite the cap")
	assert.Equal(t, "01234567", string(w.Bytes()))

	n, err = w.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "01234567", string(w.Bytes()), "writes past the cap are discarded")
}
