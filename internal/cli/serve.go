package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/mosaic/internal/config"
	"github.com/rshade/mosaic/internal/logging"
	"github.com/rshade/mosaic/internal/server"
)

// defaultServeAddr is the listen address when --addr is not given.
const defaultServeAddr = ":8080"

// NewServeCmd creates the serve command that exposes dashboard status over
// a websocket.
func NewServeCmd() *cobra.Command {
	var (
		addr       string
		keepalive  time.Duration
		origins    []string
		triggerAll bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream dashboard status over a websocket",
		Long: `Serve loads the dashboard config, starts fetching the default tab's
panels, and streams panel status as JSON documents over GET /ws: one on
connect, one per status change, and one per keepalive interval. Frames
carry progress only, never panel data. GET /healthz reports panel counts.`,
		Example: `  # Stream status for mosaic.yaml on :8080
  mosaic serve

  # Fetch every tab's panels, not just the default tab's
  mosaic serve --config infra.yaml --all --addr :9000

  # Allow a browser dashboard to connect
  mosaic serve --origin https://status.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, addr, keepalive, origins, triggerAll)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().DurationVar(&keepalive, "keepalive", server.DefaultKeepalive,
		"interval between keepalive status frames")
	cmd.Flags().StringSliceVar(&origins, "origin", nil,
		`allowed browser origins ("*" allows any)`)
	cmd.Flags().BoolVar(&triggerAll, "all", false,
		"fetch every tab's panels at startup, not just the default tab's")
	return cmd
}

func runServe(
	cmd *cobra.Command,
	addr string,
	keepalive time.Duration,
	origins []string,
	triggerAll bool,
) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return err
	}

	base := *logging.FromContext(cmd.Context())
	eng, gate, err := config.Build(cfg, base)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Same lifecycle as the dashboard: the default tab fetches at startup,
	// other tabs on activation.
	defIDs, err := gate.Sections(gate.DefaultRegion())
	if err != nil {
		return err
	}
	if err := eng.TriggerAll(ctx, defIDs...); err != nil {
		return err
	}
	if triggerAll {
		for _, region := range gate.Regions() {
			if err := gate.Activate(ctx, region); err != nil {
				return err
			}
		}
	}

	srv := server.New(addr, eng, gate,
		server.WithKeepalive(keepalive),
		server.WithAllowedOrigins(origins...),
		server.WithLogger(logging.ComponentLogger(base, "server")),
	)
	logger.Info().
		Str("addr", addr).
		Int("panels", len(eng.IDs())).
		Msg("serving dashboard status")
	return srv.Run(ctx)
}
