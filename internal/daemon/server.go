// Package daemon assembles the chat service and hosts its HTTP endpoints.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contact4labs-eng/costwise/internal/agent"
	"github.com/contact4labs-eng/costwise/internal/auth"
	"github.com/contact4labs-eng/costwise/internal/config"
	"github.com/contact4labs-eng/costwise/internal/httpapi"
	"github.com/contact4labs-eng/costwise/internal/llm/anthropic"
	"github.com/contact4labs-eng/costwise/internal/observability"
	"github.com/contact4labs-eng/costwise/internal/store"
	"github.com/contact4labs-eng/costwise/internal/tools"
	"github.com/contact4labs-eng/costwise/internal/version"
)

// Server hosts the chat endpoint plus health and metrics.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	store   *store.SQLite
	chat    *httpapi.ChatHandler
}

// NewServer wires the full service: store, model gateway, tool registry,
// agent loop, and HTTP handlers.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	gateway, err := anthropic.NewGateway(anthropic.Options{
		APIKey:  cfg.Model.APIKey,
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Model,
		Timeout: cfg.Model.Timeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build model gateway: %w", err)
	}

	metrics := observability.NewMetrics()

	catalog := &tools.Catalog{Store: db}
	registry, err := tools.NewRegistry(catalog.Descriptors())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	executor := tools.NewExecutor(registry, metrics, logger)

	loop, err := agent.New(agent.Options{
		Gateway:  gateway,
		Executor: executor,
		Registry: registry,
		Agent:    cfg.Agent,
		Model:    cfg.Model,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build agent loop: %w", err)
	}

	verifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		store:   db,
		chat:    httpapi.NewChatHandler(loop, verifier, metrics, logger),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or
// fatal error.
func (s *Server) Run(ctx context.Context) error {
	defer s.store.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/v1/chat", s.chat)

	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting "+version.Service,
			zap.String("addr", s.cfg.Server.Addr),
			zap.String("version", version.Full()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down costwise daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}

	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
