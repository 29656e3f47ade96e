package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pollwave/pollwave/internal/config"
	"github.com/pollwave/pollwave/internal/history"
	"github.com/pollwave/pollwave/internal/logging"
	"github.com/pollwave/pollwave/internal/server"
	"github.com/pollwave/pollwave/internal/session"
	ws "github.com/pollwave/pollwave/pkg/http/ws"
)

// Application aggregates the hub, the session engine and the HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis *redis.Client // nil when archiving is disabled
	http  *http.Server
}

// New bootstraps config, logger, the optional Redis archive and the engine.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	var redisClient *redis.Client
	var histStore *history.Store
	opts := session.EngineOptions{}

	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		histStore = history.NewStore(redisClient, cfg.Poll.HistoryLimit, logger)
		opts.Archive = histStore
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("poll history archive enabled")
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; poll history archive disabled")
	}

	hub := ws.NewHub(logger)
	engine := session.NewEngine(hub, opts, logger)
	handler := session.NewHandler(engine, hub, server.NewUpgrader(cfg.WS.AllowedOrigins), logger)

	apiServer := server.NewHTTPServer(cfg, logger, engine, histStore, handler.HandleWebSocket)

	return &Application{
		cfg:    cfg,
		logger: logger,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
