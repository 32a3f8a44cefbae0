// Package ws exposes the WebSocket endpoint of the relay: one goroutine pair
// per connection, a registry entry for the broadcaster to find, and the
// frame protocol spoken with clients.
package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/sink"
)

type Server struct {
	log              *slog.Logger
	registry         contract.IRegistry
	broadcaster      contract.IBroadcaster
	verifier         contract.CredentialVerifier
	bufferSize       int
	maxContentLength int64
	upgrader         websocket.Upgrader
}

func NewServer(log *slog.Logger, registry contract.IRegistry,
	broadcaster contract.IBroadcaster, verifier contract.CredentialVerifier,
	bufferSize int, maxContentLength int64, allowedOrigins []string) *Server {
	return &Server{
		log:              log,
		registry:         registry,
		broadcaster:      broadcaster,
		verifier:         verifier,
		bufferSize:       bufferSize,
		maxContentLength: maxContentLength,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients don't send an Origin header
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Handle upgrades the request and runs the connection until the peer goes
// away. The connection is registered before the pumps start, so a broadcast
// racing the upgrade either reaches this connection or predates it.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(s.maxContentLength)

	connectionID := uuid.NewString()
	snk := sink.NewConnectionSink(s.log, s.bufferSize)
	client := NewClient(connectionID, conn, s.log, s.verifier, s.broadcaster, snk, s.bufferSize)

	s.registry.Add(connectionID, snk)
	s.log.Info("Connection established",
		"connection_id", connectionID,
		"remote_addr", r.RemoteAddr,
		"connections", s.registry.Len())

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		s.registry.Remove(connectionID)
		cancel()
		_ = conn.Close()
		s.log.Info("Connection closed", "connection_id", connectionID)
	}()

	go client.writePump(ctx)
	client.readPump(ctx)
}
