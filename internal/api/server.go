package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modem-control/mnr/internal/auth"
	"github.com/modem-control/mnr/internal/config"
)

// Server represents the HTTP API server.
type Server struct {
	httpServer *http.Server
	hub        TelemetryPort
	modems     ModemManagerPort
	auth       *auth.Middleware
	auditLog   AuditPort
	cfg        config.APIConfig
	startTime  time.Time
}

// NewServer creates an API server. authMW may be nil to disable auth.
func NewServer(hub TelemetryPort, modems ModemManagerPort, authMW *auth.Middleware, cfg config.APIConfig) *Server {
	return &Server{
		hub:       hub,
		modems:    modems,
		auth:      authMW,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// SetAuditLogger attaches an audit logger for control actions.
func (s *Server) SetAuditLogger(l AuditPort) {
	s.auditLog = l
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
