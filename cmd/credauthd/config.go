package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// serviceConfig holds process settings. Engine settings are read separately
// by credauth.LoadConfigFromEnv under the same prefix.
type serviceConfig struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	PostgresDSN    string        `env:"POSTGRES_DSN,required,notEmpty"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	NATSURL        string        `env:"NATS_URL"`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	PurgeInterval  time.Duration `env:"PURGE_INTERVAL" envDefault:"1h"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"15s"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	SkipMigrations bool          `env:"SKIP_MIGRATIONS" envDefault:"false"`
}

const envPrefix = "CREDAUTH_"

func loadServiceConfig() (serviceConfig, error) {
	var cfg serviceConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return serviceConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PurgeInterval <= 0 {
		return serviceConfig{}, fmt.Errorf("%sPURGE_INTERVAL must be > 0", envPrefix)
	}
	if cfg.ShutdownGrace <= 0 {
		return serviceConfig{}, fmt.Errorf("%sSHUTDOWN_GRACE must be > 0", envPrefix)
	}
	return cfg, nil
}
