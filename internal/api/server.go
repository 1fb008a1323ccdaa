// Package api provides the HTTP REST surface for serve mode. It exposes
// scan and discovery job submission, job inspection, health checks, and
// optionally Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netscan-tools/netscan/internal/config"
	"github.com/netscan-tools/netscan/internal/discovery"
	"github.com/netscan-tools/netscan/internal/dnsutil"
	"github.com/netscan-tools/netscan/internal/logging"
	"github.com/netscan-tools/netscan/internal/metrics"
	"github.com/netscan-tools/netscan/internal/pingexec"
	"github.com/netscan-tools/netscan/internal/scan"
)

const (
	readTimeout    = 10 * time.Second
	writeTimeout   = 30 * time.Second
	idleTimeout    = 60 * time.Second
	maxHeaderBytes = 1 << 20
)

// Server is the API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	jobs       *JobStore
	scanner    *scan.Scanner
	discoverer *discovery.Scanner
	logger     *logging.Logger
	startTime  time.Time
}

// New builds a Server from the application configuration. Discovery jobs
// get the same reverse DNS and ping tooling the CLI wires up.
func New(cfg *config.Config) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		config:  cfg,
		jobs:    NewJobStore(),
		scanner: scan.NewScanner(cfg.Scanning.Timeout.Std()),
		discoverer: discovery.NewScanner(
			discovery.WithResolver(dnsutil.NewResolver(cfg.Discovery.Timeout.Std())),
			discovery.WithPinger(pingexec.NewExecPinger()),
		),
		logger:    logging.Default().WithComponent("api"),
		startTime: time.Now(),
	}

	s.setupRoutes()
	s.setupMiddleware()

	requestTimeout := cfg.API.RequestTimeout.Std()
	if requestTimeout <= 0 {
		requestTimeout = writeTimeout
	}

	s.httpServer = &http.Server{
		Addr:           net.JoinHostPort(cfg.API.ListenAddr, strconv.Itoa(cfg.API.Port)),
		Handler:        s.router,
		ReadTimeout:    readTimeout,
		WriteTimeout:   requestTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	return s
}

// Start runs the server until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting API server", "address", s.httpServer.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	s.logger.Info("stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.API.ShutdownTimeout.Std())
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Router returns the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Address returns the listen address.
func (s *Server) Address() string {
	return s.httpServer.Addr
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.healthHandler).Methods("GET")
	if s.config.Metrics.Prometheus {
		s.router.Handle("/metrics", promhttp.HandlerFor(
			metrics.GetGlobalMetrics().GetRegistry(),
			promhttp.HandlerOpts{},
		)).Methods("GET")
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(apiKeyMiddleware(s.config.API.APIKeyHashes, s.logger))

	api.HandleFunc("/scan", s.scanHandler).Methods("POST")
	api.HandleFunc("/discover", s.discoverHandler).Methods("POST")
	api.HandleFunc("/jobs", s.listJobsHandler).Methods("GET")
	api.HandleFunc("/jobs/{id}", s.getJobHandler).Methods("GET")
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)

	if s.config.API.CORSEnabled {
		s.router.Use(handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedHeaders([]string{"Content-Type", "X-API-Key"}),
			handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		))
	}
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					"panic", fmt.Sprintf("%v", rec),
					"path", r.URL.Path)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
