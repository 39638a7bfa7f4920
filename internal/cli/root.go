// Package cli wires the mosaic commands: dash, serve, and validate.
package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// DefaultConfigPath is used when neither --config nor MOSAIC_CONFIG names
// a dashboard file.
const DefaultConfigPath = "mosaic.yaml"

// EnvConfigPath overrides the default config path when --config is not set.
const EnvConfigPath = "MOSAIC_CONFIG"

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the mosaic CLI. It wires
// up logging and the dash, serve, and validate subcommands. Every
// subcommand reads the dashboard file named by --config (or MOSAIC_CONFIG).
func NewRootCmd(ver string) *cobra.Command {
	var logCloser io.Closer

	cmd := &cobra.Command{
		Use:   "mosaic",
		Short: "Terminal dashboard for slow, independent data sources",
		Long: `Mosaic renders a YAML-defined dashboard of tabs and panels. Every panel
of the visible tab is fetched concurrently; a tab's panels are not fetched
until the tab is first visited. Panels render placeholders until their data
lands, and one slow or failing panel never holds up the rest.`,
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			closer, err := setupLogging(cmd)
			if err != nil {
				return err
			}
			logCloser = closer
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return cleanupLogging(logCloser)
		},
	}

	cmd.PersistentFlags().StringP("config", "c", DefaultConfigPath, "dashboard config file")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("log-format", "", `log output format: "console" or "json"`)
	cmd.PersistentFlags().String("log-file", "", "append logs to this file instead of stderr")
	cmd.AddCommand(NewDashCmd(), NewServeCmd(), NewValidateCmd())

	return cmd
}

const rootCmdExample = `  # Run the dashboard described by mosaic.yaml in the current directory
  mosaic dash

  # Run a specific dashboard file
  mosaic dash --config infra.yaml

  # Check a dashboard file without running it
  mosaic validate --config infra.yaml --verbose

  # Stream dashboard status over a websocket
  mosaic serve --config infra.yaml --addr :8080`

// configPath resolves the dashboard file for the current invocation:
// an explicit --config wins, then MOSAIC_CONFIG, then the default.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if cmd.Flags().Changed("config") {
		return path
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return path
}
