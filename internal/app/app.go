// Package app assembles the web server: configuration, logging,
// routing and graceful shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthvault/internal/archive"
	"healthvault/internal/config"
	"healthvault/internal/dataprocessing"
	apperrors "healthvault/internal/errors"
	"healthvault/internal/infrastructure"
	"healthvault/internal/middleware"
	"healthvault/internal/operations"
	"healthvault/internal/session"
	transporthttp "healthvault/internal/transport/http"
	"healthvault/internal/websocket"
	"healthvault/pkg/contracts"
)

// App is the assembled web application.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	hub    *websocket.Hub
	store  *session.Store
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	if err := infrastructure.InitializeLogger(cfg.Logging); err != nil {
		return nil, fmt.Errorf("logger setup: %w", err)
	}
	logger := infrastructure.GetLogger()

	store := session.NewStore()
	hub := websocket.NewHub(logger)

	extractor := archive.NewExtractor(logger)
	parser := dataprocessing.NewParser(logger)
	ingestor := operations.NewIngestor(extractor, parser, store, websocket.NewProgressSink(hub), logger)

	errorHandler := apperrors.NewErrorHandler(logger, cfg.Security.Development)

	dataHandler := transporthttp.NewDataHandler(ingestor, store, cfg.Export.Dir, cfg.Upload.MaxFileSize, errorHandler, logger)
	uploadHandler := transporthttp.NewUploadHandler(store, cfg.Upload.MaxChunkCount, errorHandler, logger)
	healthHandler := transporthttp.NewHealthHandler(store, contracts.Version)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Metrics)
	if cfg.Security.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst)
		router.Use(rl.Handler)
	}
	router.Use(middleware.Timeout(5 * time.Minute))

	router.Route("/api", func(r chi.Router) {
		r.Mount("/", dataHandler.Routes())
		r.Mount("/upload", uploadHandler.Routes())
		r.Mount("/healthz", healthHandler.Routes())
	})
	router.Handle("/metrics", promhttp.Handler())
	wsOpts := websocket.Options{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		PingPeriod:      cfg.WebSocket.PingPeriod,
		PongWait:        cfg.WebSocket.PongWait,
	}
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWS(hub, wsOpts, w, r)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		server: server,
		hub:    hub,
		store:  store,
	}, nil
}

// Run starts the hub and the HTTP server, blocking until the context
// is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		return a.Shutdown()
	}
}

// Shutdown stops the server gracefully and wipes all session keys.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.hub.Shutdown()

	// Keys must not outlive the process intentionally.
	for _, id := range a.sessionIDs() {
		a.store.Remove(id)
	}

	return err
}

func (a *App) sessionIDs() []string {
	return a.store.IDs()
}
