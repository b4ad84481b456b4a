// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newthinker/prism/internal/analysis"
	apihandler "github.com/newthinker/prism/internal/api/handler/api"
	"github.com/newthinker/prism/internal/api/job"
	"github.com/newthinker/prism/internal/api/middleware"
	"github.com/newthinker/prism/internal/metric"
	"github.com/newthinker/prism/internal/metrics"
	"github.com/newthinker/prism/internal/storage/report"
)

// Server represents the PRISM HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// Dependencies holds the services the server routes requests to.
type Dependencies struct {
	JobStore *job.Store
	Runner   *analysis.Runner
	Defaults analysis.Options
	Engine   *metric.Engine
	Reports  report.Store
	Metrics  *metrics.Registry
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)

	handler := metrics.HTTPMiddleware(deps.Metrics)(mux)
	handler = metrics.LoggingMiddleware(logger)(handler)
	s.httpServer.Handler = handler

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	analysisHandler := apihandler.NewAnalysisHandler(deps.JobStore, deps.Runner, deps.Defaults, deps.Reports)
	metricsHandler := apihandler.NewMetricsHandler(deps.Engine)
	reportsHandler := apihandler.NewReportsHandler(deps.Reports)

	s.mux.HandleFunc("/healthz", s.handleHealth)

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	s.mux.Handle(metricsPath, promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/analysis", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		analysisHandler.Create(w, r)
	})
	api.HandleFunc("/api/v1/analysis/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/analysis/")
		if jobID == "" || strings.Contains(jobID, "/") {
			http.NotFound(w, r)
			return
		}
		analysisHandler.GetStatus(w, r, jobID)
	})
	api.HandleFunc("/api/v1/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		metricsHandler.List(w, r)
	})
	api.HandleFunc("/api/v1/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		reportsHandler.List(w, r)
	})
	api.HandleFunc("/api/v1/reports/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		reportsHandler.Get(w, r, id)
	})

	s.mux.Handle("/api/v1/", middleware.APIKeyAuth(cfg.APIKey)(api))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
