// Package web provides the HTTP JSON API for the review daemon.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Server is the HTTP server exposing the review API.
type Server struct {
	reviews ReviewGateway
	mux     *http.ServeMux
	srv     *http.Server
	addr    string

	log *slog.Logger
}

// Config holds configuration for the web server.
type Config struct {
	Addr string
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr: ":8080",
	}
}

// NewServer creates a web server backed by the given review gateway.
func NewServer(cfg *Config, reviews ReviewGateway) *Server {
	s := &Server{
		reviews: reviews,
		mux:     http.NewServeMux(),
		addr:    cfg.Addr,
		log:     slog.With("component", "web"),
	}

	s.registerAPIV1Routes()

	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("Starting web server", "addr", s.addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
