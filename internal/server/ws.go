package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rshade/mosaic/internal/engine"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second
)

// handleWS upgrades the connection and streams StatusDocument frames until
// the client disconnects or the engine shuts down.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	events, cancel := s.eng.Watch()
	defer cancel()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("status stream opened")

	done := make(chan struct{})
	defer close(done)

	go s.writeLoop(conn, events, done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// checkOrigin accepts requests without an Origin header and browser requests
// matching the configured allowlist.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// writeLoop pushes a snapshot frame on connect, after every engine
// transition, and on the keepalive interval.
func (s *Server) writeLoop(conn *websocket.Conn, events <-chan engine.Event, done <-chan struct{}) {
	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	if !s.writeSnapshot(conn) {
		return
	}

	for {
		select {
		case _, ok := <-events:
			if !ok {
				// Engine shut down. Tell the client before going away.
				deadline := time.Now().Add(wsWriteTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "engine closed"), deadline)
				return
			}
			drainEvents(events)
			if !s.writeSnapshot(conn) {
				return
			}
		case <-ticker.C:
			if !s.writeSnapshot(conn) {
				return
			}
		case <-done:
			return
		}
	}
}

// drainEvents coalesces a burst of transitions into a single frame. Each
// frame carries the full engine state, so the skipped events lose nothing.
func drainEvents(events <-chan engine.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return false
	}
	if err := conn.WriteJSON(s.snapshot()); err != nil {
		return false
	}
	return true
}
