package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Remote backend (Postgres). Empty disables the remote backend and
	// logged-in users fall back to local storage.
	DatabaseURL string

	// Local key-value storage
	KVBackend   string // "sqlite" or "redis"
	LocalDBPath string
	RedisURL    string

	// Events
	RabbitMQURL           string
	EventPublisherEnabled bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		KVBackend:   getEnv("OICOMI_KV_BACKEND", "sqlite"),
		LocalDBPath: getEnv("OICOMI_LOCAL_DB", getDefaultLocalDBPath()),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		RabbitMQURL:           getEnv("RABBITMQ_URL", ""),
		EventPublisherEnabled: getBoolEnv("EVENT_PUBLISHER_ENABLED", true),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDefaultLocalDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".oicomi/oicomi.db"
	}
	return home + "/.oicomi/oicomi.db"
}
