package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/munin/internal/api"
	"github.com/starford/munin/internal/catalog"
	"github.com/starford/munin/internal/indexstore"
	"github.com/starford/munin/internal/mcpserver"
	"github.com/starford/munin/internal/notes"
	"github.com/starford/munin/internal/sse"
)

// buildEngine creates the storage directories and constructs the catalog
// engine shared by the HTTP and MCP entrypoints.
func buildEngine(cfg *Config) (*catalog.Catalog, *notes.Builder, error) {
	if err := os.MkdirAll(cfg.Catalog.DocumentsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create documents dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Catalog.IndexDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create index dir: %w", err)
	}

	store := indexstore.New(cfg.Catalog.IndexDir)
	cat, err := catalog.New(store)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	builder := notes.NewBuilder(cfg.Catalog.DocumentsDir, cat)
	return cat, builder, nil
}

// Run starts the HTTP server (and the documents watcher) with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("documents_dir", cfg.Catalog.DocumentsDir),
		slog.String("index_dir", cfg.Catalog.IndexDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	cat, builder, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	// Bring the catalog up to date with the documents directory.
	if err := cat.SyncDir(ctx, cfg.Catalog.DocumentsDir, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Build API router.
	apiRouter := api.NewRouter(cat, builder, broker,
		cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Catalog.DocumentsDir)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start documents watcher with SSE callback.
	if cfg.Catalog.Watch {
		g.Go(func() error {
			return cat.Watch(gCtx, cfg.Catalog.DocumentsDir, logger, func(kind, id string) {
				eventType := sse.EventDocumentUpdated
				if kind == "created" {
					eventType = sse.EventDocumentIndexed
				}
				broker.PublishCatalogEvent(eventType, id)
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server with the given options. Logs go to
// stderr because stdout carries the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	cat, builder, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	logger.Info("Starting MCP server on stdio",
		slog.String("documents_dir", cfg.Catalog.DocumentsDir),
		slog.String("index_dir", cfg.Catalog.IndexDir))

	return mcpserver.New(cat, builder).ServeStdio()
}
