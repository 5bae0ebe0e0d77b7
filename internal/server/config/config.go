package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	Addr       string
	DBPath     string
	LogLevel   string
	RateLimit  int
	RateWindow time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	rateLimit, err := getEnvInt("CONTENTSYNC_RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	rateWindow, err := getEnvDuration("CONTENTSYNC_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Addr:       getEnv("CONTENTSYNC_ADDR", ":8080"),
		DBPath:     getEnv("CONTENTSYNC_DB", "contentsync.db"),
		LogLevel:   getEnv("CONTENTSYNC_LOG_LEVEL", "info"),
		RateLimit:  rateLimit,
		RateWindow: rateWindow,
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
