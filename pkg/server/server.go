// Package server assembles the proxy's HTTP surface and owns its lifecycle.
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

	"github.com/sextant-gg/sextant/pkg/config"
	"github.com/sextant-gg/sextant/pkg/proxy/handlers"
	"github.com/sextant-gg/sextant/pkg/proxy/middleware"
	"github.com/sextant-gg/sextant/pkg/telemetry/metrics"
	"github.com/sextant-gg/sextant/pkg/telemetry/tracing"
)

// Server is the proxy's HTTP front door: one listener serving the reserved
// endpoints and the catch-all dispatcher.
type Server struct {
	config       *config.ProxyConfig
	metricsCfg   *config.MetricsConfig
	resolver     handlers.PodResolver
	checker      handlers.HealthChecker
	httpRelay    handlers.HTTPRelayer
	wsRelay      handlers.WebSocketRelayer
	collector    *metrics.Collector
	tracer       *tracing.Tracer
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Options carries the routing components the server serves.
type Options struct {
	// Resolver maps pod ids to backend addresses.
	Resolver handlers.PodResolver

	// Checker aggregates fleet health for the reserved health endpoint.
	Checker handlers.HealthChecker

	// HTTPRelay forwards plain HTTP requests.
	HTTPRelay handlers.HTTPRelayer

	// WebSocketRelay bridges WebSocket sessions.
	WebSocketRelay handlers.WebSocketRelayer

	// Collector receives request metrics and serves the metrics endpoint.
	// Optional; leave nil to disable.
	Collector *metrics.Collector

	// Tracer opens a span per request and propagates trace context to the
	// backend pod. Optional; leave nil to disable.
	Tracer *tracing.Tracer

	// MetricsConfig controls whether and where the metrics endpoint is
	// mounted. Optional.
	MetricsConfig *config.MetricsConfig
}

// NewServer wires the routing components into a server. Nothing listens
// until Start.
func NewServer(cfg *config.ProxyConfig, opts Options) *Server {
	return &Server{
		config:       cfg,
		metricsCfg:   opts.MetricsConfig,
		resolver:     opts.Resolver,
		checker:      opts.Checker,
		httpRelay:    opts.HTTPRelay,
		wsRelay:      opts.WebSocketRelay,
		collector:    opts.Collector,
		tracer:       opts.Tracer,
		shutdownChan: make(chan struct{}),
	}
}

// Start binds the listener and blocks until the context is cancelled, a
// termination signal arrives, Stop is called, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.isRunning = true
	s.mu.Unlock()

	// No ReadTimeout or WriteTimeout here: relayed WebSocket sessions
	// live for hours, and a whole-request deadline would sever them.
	s.httpServer = &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		MaxHeaderBytes:    s.config.MaxHeaderBytes,
	}

	// SIGINT and SIGTERM fold into context cancellation.
	ctx, unregister := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer unregister()

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("listener starting", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
		}
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining")
	case <-s.shutdownChan:
		slog.Info("stop requested, draining")
	}
	return s.Shutdown(context.Background())
}

// Stop asks a blocked Start to shut down. Safe to call from any goroutine.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// Shutdown drains in-flight requests, waiting up to the configured
// shutdown timeout. Calling it on a stopped server is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped, connections drained")
	return nil
}

// setupRoutes builds the mux and wraps it in the middleware chain.
//
// The reserved endpoints are registered as exact mux patterns ahead of the
// catch-all dispatcher: only the exact paths are intercepted, so deeper
// paths under a pod that happens to be named "health" still route to it.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(s.checker))
	if s.metricsMounted() {
		mux.Handle(s.metricsCfg.Path, s.collector.Handler())
	}
	mux.Handle("/", handlers.NewDispatchHandler(s.resolver, s.httpRelay, s.wsRelay))

	// Innermost first. Recovery goes on last so panics anywhere in the
	// chain are caught, and Logging sits inside RequestID and Tracing so
	// its lines carry both ids.
	handler := middleware.Metrics(s.collector)(mux)
	handler = middleware.Logging(slog.Default())(handler)
	handler = middleware.Tracing(s.tracer)(handler)
	handler = middleware.RequestID(handler)
	return middleware.Recovery(slog.Default())(handler)
}

func (s *Server) metricsMounted() bool {
	return s.collector != nil && s.metricsCfg != nil && s.metricsCfg.Enabled && s.metricsCfg.Path != ""
}

// IsRunning reports whether Start has been called and not yet shut down.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the full middleware-wrapped handler without binding a
// listener, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
