// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/lending/internal/api"
	"github.com/starford/lending/internal/circulation"
	"github.com/starford/lending/internal/inbox"
	"github.com/starford/lending/internal/mcpserver"
	"github.com/starford/lending/internal/sse"
	"github.com/starford/lending/internal/store"
	"github.com/starford/lending/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// runtime holds the components shared by every command.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	db     *store.DB
	svc    *circulation.Service
	cards  *inbox.FS // nil when the inbox is disabled
}

// boot initialises logging, tracing, storage and the circulation service.
// The returned cleanup must be called once the command finishes.
func (a *application) boot(ctx context.Context, logOut io.Writer, pub circulation.Publisher) (*runtime, func(), error) {
	if a.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_location", cfg.Storage.Location()),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.Int("overdue_days", cfg.Circulation.OverdueDays),
		slog.String("log_level", cfg.App.LogLevel.String()))

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.ProviderConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("init telemetry: %w", err)
	}

	db, err := store.Open(ctx, cfg.Storage.StoreConfig(), store.WithLogger(logger))
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("store close failed", slog.String("error", err.Error()))
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}

	opts := []circulation.Option{
		circulation.WithLogger(logger),
		circulation.WithOverdueDays(cfg.Circulation.OverdueDays),
	}
	if pub != nil {
		opts = append(opts, circulation.WithPublisher(pub))
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		db:     db,
		svc:    circulation.NewService(db, opts...),
	}

	if cfg.Inbox.Enabled() {
		if err := os.MkdirAll(cfg.Inbox.Path, 0o755); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create inbox dir: %w", err)
		}
		cards, err := inbox.NewFS(cfg.Inbox.Path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init inbox: %w", err)
		}
		rt.cards = cards
	}

	return rt, cleanup, nil
}

// syncInbox runs one inbox pass, announcing imported items.
func (rt *runtime) syncInbox(ctx context.Context) (inbox.Stats, error) {
	if rt.cards == nil {
		return inbox.Stats{}, nil
	}
	st, err := inbox.Sync(ctx, rt.svc, rt.cards, rt.logger, rt.svc.ItemImported)
	if err != nil {
		return st, err
	}
	rt.logger.Info("inbox synced",
		slog.Int("created", st.Created),
		slog.Int("updated", st.Updated),
		slog.Int("unchanged", st.Unchanged),
		slog.Int("failed", st.Failed))
	return st, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, cleanup, err := app.boot(ctx, os.Stdout, broker)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, logger := rt.cfg, rt.logger

	// Run initial sync.
	if _, err := rt.syncInbox(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(rt.svc, api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		Inbox:       rt.cards,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.Middleware)

	// Health check endpoints (unauthenticated).
	r.Mount("/health", api.NewHealthRouter(rt.svc))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start inbox watcher with SSE callback.
	if rt.cards != nil {
		g.Go(func() error {
			if err := inbox.Watch(gCtx, rt.svc, rt.cards, rt.cards.Root(), logger, rt.svc.ItemImported); err != nil {
				logger.Error("inbox watcher failed", slog.String("error", err.Error()))
			}
			return nil
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Event streams never go idle on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	rt, cleanup, err := app.boot(ctx, os.Stderr, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := rt.syncInbox(ctx); err != nil {
		rt.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc, rt.cards).ServeStdio()
}

// RunSync imports the inbox once and exits.
func RunSync(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	rt, cleanup, err := app.boot(ctx, os.Stdout, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	if rt.cards == nil {
		return fmt.Errorf("inbox.path is not configured")
	}
	st, err := rt.syncInbox(ctx)
	if err != nil {
		return fmt.Errorf("inbox sync: %w", err)
	}
	if st.Failed > 0 {
		return fmt.Errorf("inbox sync: %d card(s) failed", st.Failed)
	}
	return nil
}
