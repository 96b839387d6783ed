// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "github.com/newthinker/augur/internal/api/handler/api"
	"github.com/newthinker/augur/internal/api/job"
	"github.com/newthinker/augur/internal/api/middleware"
	"github.com/newthinker/augur/internal/api/response"
	"github.com/newthinker/augur/internal/metrics"
)

// Backend is the pipeline surface served over HTTP. *app.Pipeline
// satisfies it.
type Backend interface {
	handler.SignalApp
	handler.AnalysisApp
	handler.TrainingApp
}

// Server represents the HTTP server for AUGUR
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	jobs       *job.Store
	started    time.Time
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MaxJobs     int
	JobTTL      time.Duration
	MetricsPath string // defaults to /metrics
}

// Dependencies holds what the routes are served from. Metrics may be nil,
// in which case /metrics is not registered.
type Dependencies struct {
	Backend Backend
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Backend == nil {
		return nil, fmt.Errorf("api: backend is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		mux:     mux,
		jobs:    job.NewStore(cfg.MaxJobs, cfg.JobTTL),
		started: time.Now(),
	}

	s.setupRoutes(cfg, deps)

	var h http.Handler = mux
	h = metrics.LoggingMiddleware(logger)(h)
	h = metrics.HTTPMiddleware(deps.Metrics)(h)
	s.httpServer.Handler = h

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	signals := handler.NewSignalsHandler(deps.Backend)
	analysis := handler.NewAnalysisHandler(deps.Backend)
	training := handler.NewTrainingHandler(s.jobs, deps.Backend, deps.Metrics)

	v1 := http.NewServeMux()
	v1.HandleFunc("POST /api/v1/signals/process", signals.Process)
	v1.HandleFunc("GET /api/v1/signals/recent", signals.Recent)
	v1.HandleFunc("GET /api/v1/model-performance", training.Performance)
	v1.HandleFunc("POST /api/v1/models/train", training.Create)
	v1.HandleFunc("GET /api/v1/jobs/{id}", training.GetStatus)
	v1.HandleFunc("GET /api/v1/sentiment", analysis.Sentiment)
	v1.HandleFunc("POST /api/v1/patterns", analysis.Patterns)
	v1.HandleFunc("GET /api/v1/dashboard", analysis.Dashboard)

	s.mux.Handle("/api/", middleware.APIKeyAuth(cfg.APIKey)(v1))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}
