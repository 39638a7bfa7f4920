package cli_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mosaic/internal/cli"
)

// TestServe_ShutsDownOnContextCancel verifies serve exits cleanly when its
// context is cancelled, standing in for SIGINT.
func TestServe_ShutsDownOnContextCancel(t *testing.T) {
	path := writeConfig(t, goodConfigYAML)

	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"serve", "--config", path, "--addr", "127.0.0.1:0"})

	errCh := make(chan error, 1)
	go func() {
		errCh <- cmd.ExecuteContext(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not shut down after context cancellation")
	}
}

func TestServe_BadConfig(t *testing.T) {
	path := writeConfig(t, "tabs: []\n")

	_, err := execute(t, "serve", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one tab")
}

func TestServe_MissingConfig(t *testing.T) {
	_, err := execute(t, "serve", "--config", "no-such-dashboard.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}
