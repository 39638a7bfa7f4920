package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mosaic/internal/cli"
)

// goodConfigYAML is a minimal two-tab dashboard used across CLI tests.
const goodConfigYAML = `version: "1.0"
title: ops
tabs:
  - id: overview
    title: Overview
    default: true
    panels:
      - id: cpu
        title: CPU
        source:
          type: static
          lines: ["cpu ok"]
  - id: network
    panels:
      - id: net
        source:
          type: static
          lines: ["net ok"]
`

// writeConfig drops a dashboard file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mosaic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with the given args and returns its
// combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidate_ValidConfig(t *testing.T) {
	path := writeConfig(t, goodConfigYAML)

	output, err := execute(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, output, path+" is valid")
	assert.NotContains(t, output, "Dashboard details")
}

func TestValidate_Verbose(t *testing.T) {
	path := writeConfig(t, goodConfigYAML)

	output, err := execute(t, "validate", "--config", path, "--verbose")
	require.NoError(t, err)

	assert.Contains(t, output, "Dashboard details:")
	assert.Contains(t, output, "Version: 1.0")
	assert.Contains(t, output, "Title: ops")
	assert.Contains(t, output, "Tabs: 2")
	assert.Contains(t, output, "Overview (default)")
	assert.Contains(t, output, "network")
	assert.Contains(t, output, "cpu [static]")
	assert.Contains(t, output, "net [static]")
}

func TestValidate_DuplicatePanelID(t *testing.T) {
	path := writeConfig(t, `tabs:
  - id: a
    panels:
      - id: cpu
        source: {type: static}
      - id: cpu
        source: {type: static}
`)

	_, err := execute(t, "validate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "duplicate panel id")
}

func TestValidate_UnknownSourceType(t *testing.T) {
	path := writeConfig(t, `tabs:
  - id: a
    panels:
      - id: cpu
        source: {type: carrier-pigeon}
`)

	_, err := execute(t, "validate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source type")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestValidate_EnvConfigPath(t *testing.T) {
	path := writeConfig(t, goodConfigYAML)
	t.Setenv(cli.EnvConfigPath, path)

	output, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, output, path+" is valid")
}

func TestValidate_FlagBeatsEnv(t *testing.T) {
	flagPath := writeConfig(t, goodConfigYAML)
	t.Setenv(cli.EnvConfigPath, filepath.Join(t.TempDir(), "absent.yaml"))

	output, err := execute(t, "validate", "--config", flagPath)
	require.NoError(t, err)
	assert.Contains(t, output, flagPath+" is valid")
}
