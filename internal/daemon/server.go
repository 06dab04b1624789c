// Package daemon serves the lesson player engine over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/lessonplay/internal/config"
	"github.com/felixgeelhaar/lessonplay/internal/player"
)

// Version is reported by the status endpoint
const Version = "0.1.0"

// Server represents the lessonplay HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	limiter ratelimit.RateLimiter

	player *player.Service
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config *config.LocalConfig
	Player *player.Service
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Player == nil {
		return nil, errors.New("player service is required")
	}

	s := &Server{
		cfg:    cfg.Config,
		router: http.NewServeMux(),
		player: cfg.Player,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Lessons
	s.router.HandleFunc("GET /v1/lessons", s.handleListLessons)
	s.router.HandleFunc("GET /v1/lessons/{lesson}/chapters/{chapter}", s.handleGetChapter)
	s.router.HandleFunc("POST /v1/lessons/{lesson}/chapters/{chapter}/next", s.handleNext)
	s.router.HandleFunc("POST /v1/lessons/{lesson}/chapters/{chapter}/back", s.handleBack)

	// Progress
	s.router.HandleFunc("GET /v1/progress", s.handleGetProgress)
	s.router.HandleFunc("GET /v1/progress/history", s.handleGetHistory)

	// Catalog
	s.router.HandleFunc("GET /v1/catalog/validate", s.handleValidateCatalog)
	s.router.HandleFunc("POST /v1/catalog/reload", s.handleReloadCatalog)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if s.cfg.RateLimit.Enabled {
		if s.limiter == nil {
			s.limiter = ratelimit.New(&ratelimit.Config{
				Rate:     s.cfg.RateLimit.RequestsPerSecond,
				Burst:    s.cfg.RateLimit.Burst,
				Interval: time.Second,
			})
		}
		h = rateLimitMiddleware(s.limiter, s.cfg.RateLimit.TrustLearnerHeader)(h)
	}
	h = loggingMiddleware(h)
	h = learnerMiddleware(h)
	h = recoveryMiddleware(h)
	return correlationIDMiddleware(h)
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	slog.Info("starting lessonplay daemon",
		"addr", s.server.Addr,
		"catalog", s.player.CatalogPath(),
		"rate_limit", s.cfg.RateLimit.Enabled,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and waits for in-flight
// completion deliveries
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	err := s.server.Shutdown(ctx)
	s.player.Wait()

	if s.limiter != nil {
		if cerr := s.limiter.Close(); cerr != nil {
			slog.Warn("failed to close rate limiter", "error", cerr)
		}
	}
	return err
}

// Helper methods

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	jsonResponse(w, status, response)
}
