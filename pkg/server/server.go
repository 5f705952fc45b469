package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"mercator-hq/procurement/pkg/config"
	"mercator-hq/procurement/pkg/telemetry/health"
	"mercator-hq/procurement/pkg/telemetry/tracing"
	"mercator-hq/procurement/pkg/tools"
)

// Options holds the collaborators served over HTTP. Only Registry is
// required.
type Options struct {
	Registry *tools.Registry
	Health   *health.Checker

	// LivenessPath and ReadinessPath default to /health and /ready.
	LivenessPath  string
	ReadinessPath string

	// Metrics serves Prometheus metrics at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string

	Tracer  *tracing.Tracer
	Version health.VersionInfo
}

// Server is the HTTP transport for the procurement tools.
type Server struct {
	config       *config.ServerConfig
	opts         Options
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	logger       *slog.Logger
}

// NewServer creates a new tool server.
func NewServer(cfg *config.ServerConfig, opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = config.DefaultMetricsPath
	}
	if opts.LivenessPath == "" {
		opts.LivenessPath = config.DefaultLivenessPath
	}
	if opts.ReadinessPath == "" {
		opts.ReadinessPath = config.DefaultReadinessPath
	}
	if opts.Health == nil {
		opts.Health = health.New(0)
	}
	return &Server{
		config:       cfg,
		opts:         opts,
		shutdownChan: make(chan struct{}),
		logger:       slog.Default().With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting tool server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("Context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("Received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		s.logger.Info("Shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("Initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("Error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("Tool server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed HTTP handler with its middleware chain.
//
//	GET  /v1/tools          list tool definitions
//	POST /v1/tools/{name}   execute a tool
//	GET  /health            liveness
//	GET  /ready             readiness
//	GET  /version           build information
//	GET  /metrics           Prometheus metrics
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	h := &toolHandler{registry: s.opts.Registry, maxBodyBytes: s.config.MaxBodyBytes, logger: s.logger}
	r.HandleFunc("/v1/tools", h.list).Methods(http.MethodGet)
	r.HandleFunc("/v1/tools/{name}", h.call).Methods(http.MethodPost)

	r.HandleFunc(s.opts.LivenessPath, s.opts.Health.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc(s.opts.ReadinessPath, s.opts.Health.ReadinessHandler()).Methods(http.MethodGet)
	v := s.opts.Version
	r.HandleFunc("/version", health.VersionHandler(v.Version, v.Commit, v.BuildTime)).Methods(http.MethodGet)
	if s.opts.Metrics != nil {
		r.Handle(s.opts.MetricsPath, s.opts.Metrics).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+req.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", req.Method+" not allowed on "+req.URL.Path)
	})

	r.Use(requestIDMiddleware, loggingMiddleware(s.logger))

	var handler http.Handler = r
	if s.config.CORS.Enabled {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.config.CORS.AllowedOrigins,
			AllowedMethods: s.config.CORS.AllowedMethods,
			AllowedHeaders: s.config.CORS.AllowedHeaders,
			ExposedHeaders: []string{RequestIDHeader, "X-Trace-ID"},
			MaxAge:         s.config.CORS.MaxAge,
		}).Handler(handler)
	}
	if s.opts.Tracer.Enabled() {
		handler = s.opts.Tracer.HTTPMiddleware(handler)
	}

	// Recovery is outermost.
	return recoveryMiddleware(s.logger)(handler)
}
