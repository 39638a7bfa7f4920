package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/mosaic/internal/config"
	"github.com/rshade/mosaic/internal/logging"
	"github.com/rshade/mosaic/internal/tui"
)

// dashCmdName identifies the dash command during logging setup, which
// must keep stderr clean while the dashboard owns the terminal.
const dashCmdName = "dash"

// ErrNotTerminal is returned when dash is run without a TTY on stdout.
var ErrNotTerminal = errors.New("dash needs an interactive terminal: stdout is not a TTY (try validate or serve)")

// NewDashCmd creates the dash command that runs the interactive dashboard.
func NewDashCmd() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   dashCmdName,
		Short: "Run the interactive dashboard",
		Long: `Dash renders the configured dashboard in the terminal. The default tab's
panels start fetching immediately; other tabs fetch on first visit. While
running, the config file is watched and edits swap in a rebuilt dashboard
without restarting.

Keys: tab/shift+tab or h/l switch tabs, 1-9 jump, s opens the status
overlay, r retries failed panels, R reloads the visible tab, q quits.`,
		Example: `  # Dashboard from mosaic.yaml in the current directory
  mosaic dash

  # Dashboard from a specific file, with hot reload disabled
  mosaic dash --config infra.yaml --no-watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDash(cmd, noWatch)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable config hot reload")
	return cmd
}

func runDash(cmd *cobra.Command, noWatch bool) error {
	path := configPath(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if !isTerminal(os.Stdout) {
		return ErrNotTerminal
	}

	base := *logging.FromContext(cmd.Context())
	eng, gate, err := config.Build(cfg, base)
	if err != nil {
		return err
	}

	model := tui.NewDashModel(cmd.Context(), cfg, eng, gate)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if !noWatch {
		watcher, werr := config.NewWatcher(path, 0, logging.ComponentLogger(base, "watch"))
		if werr != nil {
			logger.Warn().Err(werr).Msg("config watching unavailable, hot reload disabled")
		} else {
			defer func() { _ = watcher.Close() }()
			go forwardReloads(p, watcher, base)
		}
	}

	final, runErr := p.Run()
	// The last model owns the current engine, which a reload may have
	// swapped since startup.
	if m, ok := final.(tui.DashModel); ok {
		m.Close()
	}
	if runErr != nil {
		return fmt.Errorf("running dashboard: %w", runErr)
	}
	return nil
}

// forwardReloads turns config file changes into dashboard messages.
// Rebuild failures keep the running dashboard on its previous config.
func forwardReloads(p *tea.Program, w *config.Watcher, base zerolog.Logger) {
	for {
		select {
		case cfg, ok := <-w.Events():
			if !ok {
				return
			}
			eng, gate, err := config.Build(cfg, base)
			if err != nil {
				logger.Warn().Err(err).Msg("rebuilding dashboard from reloaded config failed")
				continue
			}
			p.Send(tui.ConfigReloadedMsg{Config: cfg, Engine: eng, Gate: gate})
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("config reload failed, keeping previous dashboard")
		}
	}
}
