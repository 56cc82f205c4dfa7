// Package internal provides the main application initialization and runtime logic.
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

	"github.com/starford/aalifyx/internal/api"
	"github.com/starford/aalifyx/internal/collection"
	"github.com/starford/aalifyx/internal/document"
	"github.com/starford/aalifyx/internal/mcpserver"
	"github.com/starford/aalifyx/internal/planner"
	"github.com/starford/aalifyx/internal/session"
	"github.com/starford/aalifyx/internal/sse"
	"github.com/starford/aalifyx/internal/storage"
	"github.com/starford/aalifyx/internal/theme"
	"github.com/starford/aalifyx/internal/whiteboard"
)

// components is everything both the HTTP server and the MCP server are built from.
type components struct {
	cfg         *Config
	logger      *slog.Logger
	sessions    *session.Manager
	collections *collection.Store
	board       *whiteboard.Registry
	docs        *document.Service
	close       func() error
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger initializes the structured JSON logger. out is stdout for the
// HTTP server and stderr when stdout carries the MCP protocol.
func newLogger(cfg *Config, out *os.File) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func (app *application) build(ctx context.Context, logger *slog.Logger) (*components, error) {
	cfg := app.config

	uploads, err := storage.NewFS(cfg.Uploads.Dir)
	if err != nil {
		return nil, fmt.Errorf("init uploads: %w", err)
	}

	store, err := session.OpenSQLite(ctx, cfg.Session.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	docs, err := app.documents(ctx, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	sessions := session.NewManager(store, cfg.Session.TTL, logger)
	return &components{
		cfg:         cfg,
		logger:      logger,
		sessions:    sessions,
		collections: collection.NewStore(sessions, logger),
		board:       whiteboard.New(uploads, logger),
		docs:        docs,
		close:       store.Close,
	}, nil
}

// documents picks the extractor and summarizer from the configuration
// unless an option already supplied them.
func (app *application) documents(ctx context.Context, logger *slog.Logger) (*document.Service, error) {
	cfg := app.config.Summarizer

	extractor := app.extractor
	if extractor == nil {
		extractor = document.NewPDFExtractor(cfg.MaxPages)
	}

	summarizer := app.summarizer
	if summarizer == nil {
		switch cfg.Mode {
		case SummarizerGemini:
			g, err := document.NewGeminiSummarizer(ctx, document.GeminiConfig{
				APIKey:     cfg.Gemini.APIKey,
				Model:      cfg.Gemini.Model,
				Timeout:    cfg.Gemini.Timeout,
				ChunkChars: cfg.Gemini.ChunkChars,
				MaxPoints:  cfg.MaxPoints,
			}, logger)
			if err != nil {
				return nil, fmt.Errorf("init summarizer: %w", err)
			}
			summarizer = g
		default:
			summarizer = document.NewFrequencySummarizer(cfg.MaxPoints)
		}
	}
	return document.NewService(extractor, summarizer, logger), nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("uploads_dir", cfg.Uploads.Dir),
		slog.String("sqlite_path", cfg.Session.SQLitePath),
		slog.String("summarizer", cfg.Summarizer.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := app.build(ctx, logger)
	if err != nil {
		return err
	}
	defer c.close()

	tokens, err := session.NewTokens(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("init session tokens: %w", err)
	}
	sessionMiddleware := session.NewMiddleware(tokens, cfg.Session.CookieName, cfg.Session.SecureCookie)

	// SSE broker.
	broker := sse.NewBroker(15 * time.Second)
	defer broker.Close()

	c.collections.OnChange(func(ch collection.Change) {
		broker.Publish(sse.Event{Type: "collection." + string(ch.Op), SessionID: ch.SessionID, Data: ch})
	})

	apiRouter := api.NewRouter(api.Services{
		Sessions:    c.sessions,
		Middleware:  sessionMiddleware,
		Collections: c.collections,
		Themes:      theme.NewService(c.sessions),
		Planner:     planner.NewService(c.sessions),
		Whiteboard:  c.board,
		Documents:   c.docs,
		Events:      broker,
		Clients:     broker,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	health := api.NewHealthHandler(c.sessions.Store(), nil, nil)
	files := api.NewWhiteboardHandler(c.board)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", health.Live)
	r.Get("/health/ready", health.Ready)

	// Stored whiteboard images are public like the static assets.
	r.Get(whiteboard.URLPrefix+"{filename}", files.ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Whiteboard changes made outside the API (other instances, manual copies)
	// reach every connected client.
	g.Go(func() error {
		err := c.board.Watch(gCtx, func(ev whiteboard.Event) {
			broker.Publish(sse.Event{Type: "whiteboard." + ev.Op, Data: ev})
		})
		if err != nil {
			logger.Warn("whiteboard watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Expired session cleanup.
	g.Go(func() error {
		c.sessions.PurgeLoop(gCtx, cfg.Session.PurgeInterval)
		return nil
	})

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

// errShutdown cancels the group context so the background loops stop once the
// HTTP server is down.
var errShutdown = errors.New("shutdown")

// RunMCP serves the collections of one session over MCP on stdin/stdout.
func RunMCP(ctx context.Context, sessionID string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := app.build(ctx, logger)
	if err != nil {
		return err
	}
	defer c.close()

	logger.Info("MCP server starting", slog.String("session", sessionID))
	return mcpserver.New(sessionID, c.collections, c.docs, c.board).ServeStdio()
}

// PurgeSessions removes expired sessions once and reports how many were removed.
func PurgeSessions(ctx context.Context, opts ...Option) (int64, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	store, err := session.OpenSQLite(ctx, app.config.Session.SQLitePath)
	if err != nil {
		return 0, fmt.Errorf("init session store: %w", err)
	}
	defer store.Close()
	return store.PurgeExpired(ctx)
}
