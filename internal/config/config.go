// Package config loads runtime settings from a .env file and the environment.
//
// PRECEDENCE (lowest to highest):
//  1. defaults below
//  2. .env in the working directory (godotenv never overrides variables that
//     are already set, so the real environment wins)
//  3. environment variables
//  4. cobra flags, applied by cmd/mentorlink after Load
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the client reads at startup.
type Config struct {
	Port       int
	APIBaseURL string
	DBPath     string
	// SessionSecret, when set, switches the persisted session to a signed
	// token instead of plain JSON.
	SessionSecret     string
	GatewayTimeout    time.Duration
	ViewTTL           time.Duration
	DirectoryCacheTTL time.Duration
	LogLevel          slog.Level
}

// Load reads .env (if present) and the environment.
// A malformed value is an error rather than a silent fallback.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		APIBaseURL:    strings.TrimRight(getEnv("API_BASE_URL", "http://127.0.0.1:5000"), "/"),
		DBPath:        getEnv("DB_PATH", "data/mentorlink.db"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
	}

	var err error
	if cfg.Port, err = getEnvAsInt("PORT", 5173); err != nil {
		return Config{}, err
	}
	if cfg.GatewayTimeout, err = getEnvAsDuration("GATEWAY_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if cfg.ViewTTL, err = getEnvAsDuration("VIEW_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.DirectoryCacheTTL, err = getEnvAsDuration("DIRECTORY_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer", key, raw)
	}
	return v, nil
}

// getEnvAsDuration accepts Go durations ("90s", "10m") and a bare "0".
func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a duration", key, raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}
