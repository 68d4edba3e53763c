// Package api exposes mosaic generation over HTTP for serve mode:
// submit, inspect and cancel tasks, and browse past generations.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/framegrid/framegrid/internal/batch"
	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/history"
	"github.com/framegrid/framegrid/internal/logging"
)

// Server wraps the HTTP server for serve mode.
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	Port        int
	Coordinator *batch.Coordinator
	History     *history.Store
	Defaults    *config.MosaicConfig
	Logger      *logging.Logger
	StartTime   time.Time
	Version     string
}

// NewServer builds a server listening on loopback at the configured port.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Global()
	}
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
