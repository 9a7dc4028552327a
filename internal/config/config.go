package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath    string     `env:"DB_PATH" envDefault:"data/domino.db"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"json"`
	// RedisURL is optional. When empty, events stay in process.
	RedisURL string `env:"REDIS_URL"`
	// ScorekeeperPasswordHash is a bcrypt hash. When empty, mutating
	// endpoints are open.
	ScorekeeperPasswordHash string `env:"SCOREKEEPER_PASSWORD_HASH"`
	WebDir                  string `env:"WEB_DIR"`
	SeedDemo                bool   `env:"SEED_DEMO" envDefault:"false"`
}

// Load reads .env from the working directory if present, then parses the
// environment. Variables already set are not overwritten by .env.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
