package config

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath      string `env:"DB_PATH" envDefault:"hero-manager.db"`
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	CatalogPath string `env:"CATALOG_PATH"`
	WebhookURL  string `env:"WEBHOOK_URL"`

	// BattleSeed pins the battle RNG for reproducible debugging. Zero draws
	// a fresh seed per battle.
	BattleSeed int64 `env:"BATTLE_SEED" envDefault:"0"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("catalog_path", cfg.CatalogPath).
		Bool("webhook", cfg.WebhookURL != "").
		Bool("fixed_seed", cfg.BattleSeed != 0).
		Msg("configuration loaded")

	return cfg, nil
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("DB_PATH must not be empty")
	}
	if cfg.WebhookURL != "" {
		u, err := url.Parse(cfg.WebhookURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("WEBHOOK_URL %q is not an absolute URL", cfg.WebhookURL)
		}
	}
	return &cfg, nil
}

var Module = fx.Provide(Load)
