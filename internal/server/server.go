// Package server exposes a read-only HTTP view of a running engine.
//
// GET /ws upgrades to a websocket and streams the full dashboard state as a
// JSON document: once on connect, once per engine transition, and on a
// keepalive interval in between. GET /healthz reports liveness. The server
// only observes the engine; triggering stays with the owning process.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/mosaic/internal/engine"
)

// DefaultKeepalive is the interval between unsolicited snapshot frames
// when WithKeepalive is not used.
const DefaultKeepalive = 30 * time.Second

const shutdownTimeout = 5 * time.Second

// Server streams engine state over HTTP.
type Server struct {
	addr           string
	eng            *engine.Engine
	gate           *engine.Gate
	keepalive      time.Duration
	allowedOrigins []string
	logger         zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithKeepalive sets the interval between unsolicited snapshot frames.
func WithKeepalive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepalive = d
		}
	}
}

// WithAllowedOrigins permits cross-origin websocket handshakes from the given
// origins. "*" allows any. Requests without an Origin header (non-browser
// clients) are always accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithLogger sets the server's logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server observing eng and gate, listening on addr once Run is
// called.
func New(addr string, eng *engine.Engine, gate *engine.Gate, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		eng:       eng,
		gate:      gate,
		keepalive: DefaultKeepalive,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the route mux. Exposed so tests can drive the server
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", s.addr).Msg("status server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type healthPayload struct {
	Status   string `json:"status"`
	Sections int    `json:"sections"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	counts, err := s.eng.Counts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthPayload{Status: "ok", Sections: counts.Total})
}
