package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"pollwave"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:3001"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Redis Redis
	Poll  Poll
	WS    WS
}

// Redis configures the optional poll-history archive. Leaving REDIS_ADDR empty
// disables archiving entirely; the live session never depends on Redis.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
}

// Poll groups session settings.
type Poll struct {
	HistoryLimit int `env:"POLL_HISTORY_LIMIT" envDefault:"50"`
}

// WS holds WebSocket upgrade settings.
type WS struct {
	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
