// Package server is the operator HTTP + WebSocket API: engine toggle, status,
// kill switch, copy journal, and the live event feed.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/copytrader/internal/server/handler"
	"github.com/alanyoungcy/copytrader/internal/server/middleware"
	"github.com/alanyoungcy/copytrader/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	AuthToken   string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health     *handler.HealthHandler
	Engine     *handler.EngineHandler
	KillSwitch *handler.KillSwitchHandler
	Journal    *handler.JournalHandler
	Positions  *handler.PositionsHandler
}

// Server is the headless HTTP + WebSocket API server for the trade copier.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth exemption: the kill switch lives on this server,
	// so the whole surface sits behind the token when one is configured).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Engine control.
	mux.HandleFunc("GET /api/status", handlers.Engine.GetStatus)
	mux.HandleFunc("POST /api/engine/start", handlers.Engine.Start)
	mux.HandleFunc("POST /api/engine/stop", handlers.Engine.Stop)

	// Emergency close.
	mux.HandleFunc("POST /api/killswitch", handlers.KillSwitch.Trigger)

	// Aggregate portfolio.
	mux.HandleFunc("GET /api/positions", handlers.Positions.List)

	// Copy journal.
	mux.HandleFunc("GET /api/journal", handlers.Journal.ListRecent)
	mux.HandleFunc("GET /api/journal/stats", handlers.Journal.Stats)

	// Live event feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.AuthToken)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
