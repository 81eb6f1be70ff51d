package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server settings, loaded from the environment with a
// .env file as a development convenience.
type Config struct {
	Host string
	Port int

	// StorageType selects the room/session backend: "memory" or "redis".
	StorageType string
	RedisURL    string

	// DatabaseURL enables the Postgres leaderboard. Empty disables it.
	DatabaseURL string

	// AllowedOrigin restricts websocket upgrades. Empty allows any.
	AllowedOrigin string

	// GracePeriod is the disconnect reconnection window.
	GracePeriod time.Duration

	// ClockTickInterval is how often countdown clocks are settled.
	ClockTickInterval time.Duration

	// CleanupInterval is how often the inactive-room sweep runs.
	CleanupInterval time.Duration

	LogLevel string
}

// Load reads configuration from the environment. A missing .env file
// is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Host:              os.Getenv("HOST"),
		Port:              envInt("PORT", 8080),
		StorageType:       envDefault("STORAGE_TYPE", "memory"),
		RedisURL:          os.Getenv("REDIS_URL"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AllowedOrigin:     os.Getenv("ALLOWED_ORIGIN"),
		GracePeriod:       envDuration("GRACE_PERIOD", 60*time.Second),
		ClockTickInterval: envDuration("CLOCK_TICK_INTERVAL", time.Second),
		CleanupInterval:   envDuration("CLEANUP_INTERVAL", 5*time.Minute),
		LogLevel:          envDefault("LOG_LEVEL", "info"),
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
