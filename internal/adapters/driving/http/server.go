package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/galaxy-core/internal/core/ports/driving"
)

// DefaultMaxUploadBytes bounds a single uploaded document or vault import
const DefaultMaxUploadBytes = 32 << 20

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	maxUploadBytes int64

	// Services
	ingestion driving.IngestionService
	retrieval driving.RetrievalService
	answer    driving.AnswerService
	vault     driving.VaultService

	// Infrastructure
	archive Pinger // Archive backend health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	ingestion driving.IngestionService,
	retrieval driving.RetrievalService,
	answer driving.AnswerService,
	vault driving.VaultService,
	archive Pinger, // can be nil
) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         cfg.Logger,
		maxUploadBytes: cfg.MaxUploadBytes,
		ingestion:      ingestion,
		retrieval:      retrieval,
		answer:         answer,
		vault:          vault,
		archive:        archive,
	}

	s.setupRoutes()

	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	handler = NewLoggingMiddleware(cfg.Logger).Handler(handler)
	handler = NewRecoveryMiddleware(cfg.Logger).Handler(handler)

	// Answer streams clear their own write deadline
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Ingestion
	s.router.HandleFunc("POST /api/v1/files", s.handleUploadFile)
	s.router.HandleFunc("GET /api/v1/files", s.handleListFiles)
	s.router.HandleFunc("GET /api/v1/files/events", s.handleFileEvents)
	s.router.HandleFunc("GET /api/v1/files/{id}", s.handleGetFile)
	s.router.HandleFunc("DELETE /api/v1/files/{id}", s.handleDeleteFile)
	s.router.HandleFunc("GET /api/v1/progress", s.handleProgress)

	// Retrieval
	s.router.HandleFunc("POST /api/v1/search", s.handleSearch)

	// Conversation
	s.router.HandleFunc("POST /api/v1/ask", s.handleAsk)
	s.router.HandleFunc("GET /api/v1/conversation", s.handleConversation)
	s.router.HandleFunc("POST /api/v1/conversation/reset", s.handleResetConversation)

	// Vault
	s.router.HandleFunc("GET /api/v1/vault", s.handleListVault)
	s.router.HandleFunc("POST /api/v1/vault/import", s.handleImportVault)
	s.router.HandleFunc("GET /api/v1/vault/export", s.handleExportVault)
	s.router.HandleFunc("POST /api/v1/vault/sync", s.handleSyncVault)
	s.router.HandleFunc("GET /api/v1/vault/tracking", s.handleGetTracking)
	s.router.HandleFunc("PUT /api/v1/vault/tracking", s.handleSetTracking)
	s.router.HandleFunc("GET /api/v1/vault/{id}", s.handleGetVaultEntry)
	s.router.HandleFunc("POST /api/v1/vault/{id}/restore", s.handleRestoreVaultEntry)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
