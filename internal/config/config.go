package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8082"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"static"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty   bool   `env:"LOG_PRETTY"`

	// Per client IP, reactions per second.
	ReactRateLimit float64 `env:"REACT_RATE_LIMIT" envDefault:"20"`
	ReactRateBurst int     `env:"REACT_RATE_BURST" envDefault:"40"`
	EventBuffer    int     `env:"EVENT_BUFFER" envDefault:"32"`
}

// Archive names the result store backend: "postgres", "sqlite" or "memory".
func (c Config) Archive() string {
	switch {
	case c.DatabaseURL != "":
		return "postgres"
	case c.SQLitePath != "":
		return "sqlite"
	default:
		return "memory"
	}
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
