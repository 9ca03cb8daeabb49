// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
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

	"github.com/starford/mneme/internal/api"
	"github.com/starford/mneme/internal/deck"
	"github.com/starford/mneme/internal/index"
	"github.com/starford/mneme/internal/mcpserver"
	"github.com/starford/mneme/internal/noteservice"
	"github.com/starford/mneme/internal/review"
	"github.com/starford/mneme/internal/sse"
	"github.com/starford/mneme/internal/storage"
)

// services is what every run mode shares once the vault is scanned.
type services struct {
	cfg     *Config
	logger  *slog.Logger
	store   *storage.FS
	db      *index.DB
	reviews *review.Service
	notes   *noteservice.Service
}

func setup(ctx context.Context, opts []Option, reviewOpts ...review.Option) (*services, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if res, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("index synced", slog.Int("indexed", res.Indexed), slog.Int("removed", res.Removed))
	}

	reviewOpts = append([]review.Option{review.WithLogger(logger)}, reviewOpts...)
	reviews := review.NewService(cfg.Review, store, db, reviewOpts...)

	// Cards added through the API land in the first flashcard deck unless
	// decks come from folders.
	cardTag := ""
	if !cfg.Review.ConvertFoldersToDecks && len(cfg.Review.FlashcardTags) > 0 {
		cardTag = cfg.Review.FlashcardTags[0]
	}
	notes := noteservice.NewService(store, db, cfg.Review.Parser, cardTag)

	if _, err := reviews.Scan(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initial scan: %w", err)
	}

	return &services{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		db:      db,
		reviews: reviews,
		notes:   notes,
	}, nil
}

// Run starts the HTTP server, the vault watcher and the SSE stream.
func Run(ctx context.Context, opts ...Option) error {
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := setup(ctx, opts, review.WithEvents(broker.PublishFunc()))
	if err != nil {
		return err
	}
	defer rt.db.Close()

	cfg, logger := rt.cfg, rt.logger

	handler := api.NewHandler(rt.reviews, rt.notes)
	apiRouter := api.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, cfg.App.HTTP.CORSOrigins)

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
		_, _ = fmt.Fprintf(w, `{"status":"ok","scan":%q}`, rt.reviews.State())
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// SSE endpoint.
	r.Get("/api/events", broker.ServeHTTP)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Vault.Watch {
		rescanner := review.NewRescanner(rt.reviews, 0)
		g.Go(func() error {
			return rescanner.Run(gCtx)
		})
		g.Go(func() error {
			err := index.Watch(gCtx, rt.db, rt.store, cfg.Vault.Path, logger, func(kind index.EventKind, path string) {
				broker.PublishNoteEvent(string(kind), path)
				rescanner.Notify()
			})
			if err != nil {
				logger.Warn("file watcher stopped", slog.String("error", err.Error()))
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup so the watcher goroutines exit with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the review tools over MCP stdio. Logs go to the configured
// output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	rt.logger.Info("Starting MCP server on stdio")
	if err := mcpserver.New(rt.reviews, rt.notes).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// RunScan scans the vault once and writes the deck tree and scan totals as JSON to out.
func RunScan(ctx context.Context, out io.Writer, opts ...Option) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	stats, err := rt.reviews.Stats(ctx)
	if err != nil {
		return err
	}
	decks, err := rt.reviews.ReviewableDecks(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Stats review.Stats `json:"stats"`
		Decks deck.Summary `json:"decks"`
	}{Stats: stats, Decks: decks})
}
