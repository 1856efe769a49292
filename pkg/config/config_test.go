package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all oicomi-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL",
		"DATABASE_URL",
		"OICOMI_KV_BACKEND", "OICOMI_LOCAL_DB", "REDIS_URL",
		"RABBITMQ_URL", "EVENT_PUBLISHER_ENABLED",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, "sqlite", cfg.KVBackend)
	assert.NotEmpty(t, cfg.LocalDBPath)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "", cfg.RabbitMQURL)
	assert.True(t, cfg.EventPublisherEnabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/oicomi")
	os.Setenv("OICOMI_KV_BACKEND", "redis")
	os.Setenv("OICOMI_LOCAL_DB", "/tmp/oicomi.db")
	os.Setenv("RABBITMQ_URL", "amqp://localhost:5672/")
	os.Setenv("EVENT_PUBLISHER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost:5432/oicomi", cfg.DatabaseURL)
	assert.Equal(t, "redis", cfg.KVBackend)
	assert.Equal(t, "/tmp/oicomi.db", cfg.LocalDBPath)
	assert.Equal(t, "amqp://localhost:5672/", cfg.RabbitMQURL)
	assert.False(t, cfg.EventPublisherEnabled)
}

func TestLoad_InvalidBoolFallsBack(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("EVENT_PUBLISHER_ENABLED", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.EventPublisherEnabled)
}

func TestIsDevelopment(t *testing.T) {
	assert.True(t, (&Config{AppEnv: "development"}).IsDevelopment())
	assert.False(t, (&Config{AppEnv: "production"}).IsDevelopment())
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
}
