// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string
	Env     string

	DatabaseURL string
	EnableDB    bool

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	EnableCache     bool
	CatalogCacheTTL time.Duration

	LogWriteTimeout time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "release"),
		Env:           getEnv("APP_ENV", "production"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		EnableDB:      getBool("ENABLE_DB"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		EnableCache:   getBool("ENABLE_CACHE"),
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.CatalogCacheTTL, err = time.ParseDuration(getEnv("CATALOG_CACHE_TTL", "5m")); err != nil {
		return nil, fmt.Errorf("CATALOG_CACHE_TTL: %w", err)
	}
	if cfg.LogWriteTimeout, err = time.ParseDuration(getEnv("LOG_WRITE_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("LOG_WRITE_TIMEOUT: %w", err)
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	if cfg.EnableCache && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required when ENABLE_CACHE=true")
	}

	return cfg, nil
}

// RequireDatabaseURL is used by tools that always need the database.
func RequireDatabaseURL() (string, error) {
	_ = godotenv.Load()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return url, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string) bool {
	return strings.EqualFold(getEnv(key, "false"), "true")
}
