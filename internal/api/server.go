// Package api exposes the dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Abhishek-Shewale/salesdash/internal/dashboard"
	"github.com/Abhishek-Shewale/salesdash/internal/recommend"
)

// Server represents the API server
type Server struct {
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server. recommender may be nil when no Gemini
// key is configured; the recommendations endpoint then returns 503.
func NewServer(svc *dashboard.Service, recommender *recommend.Client, requestTimeout time.Duration, allowedOrigins []string) *Server {
	handlers := NewHandlers(svc, recommender, requestTimeout)
	return &Server{handler: SetupRoutes(handlers, allowedOrigins)}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Aggregation of a whole month can take a while under sheet rate
		// limits; write timeout must outlast the per-request deadline.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
