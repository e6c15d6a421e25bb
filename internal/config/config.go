package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabasePath       string
	ListenAddr         string
	ScoringFile        string
	SessionLifetime    time.Duration
	CORSAllowedOrigins []string
	LogLevel           slog.Level
}

// Load reads the configuration from the environment, loading a .env file first when one exists.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath: getenv("DATABASE_PATH", "op_groups.db"),
		ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
		ScoringFile:  os.Getenv("SCORING_FILE"),
	}

	lifetime, err := time.ParseDuration(getenv("SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME: %w", err)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("SESSION_LIFETIME must be positive, got %s", lifetime)
	}
	cfg.SessionLifetime = lifetime

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
