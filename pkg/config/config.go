package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ahmedtariq19/subledger/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Sweep configuration
	Sweep SweepConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SweepConfig holds expiry sweep settings
type SweepConfig struct {
	// Schedule is a cron expression; the default fires every minute
	Schedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Sweep:         loadSweepConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SUBLEDGER_HOST", "0.0.0.0"),
		Port:            getEnv("SUBLEDGER_PORT", "8080"),
		ReadTimeout:     getEnvDuration("SUBLEDGER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("SUBLEDGER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("SUBLEDGER_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SUBLEDGER_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("SUBLEDGER_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("SUBLEDGER_DATABASE_URL", ""),
		MaxOpenConns:    getEnvInt("SUBLEDGER_DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("SUBLEDGER_DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("SUBLEDGER_DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

// loadSweepConfig loads sweep configuration from environment
func loadSweepConfig() SweepConfig {
	return SweepConfig{
		Schedule: getEnv("SUBLEDGER_SWEEP_SCHEDULE", "* * * * *"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(strings.ToLower(getEnv("SUBLEDGER_LOG_LEVEL", "info"))),
		MetricsEnabled: getEnvBool("SUBLEDGER_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required (set SUBLEDGER_DATABASE_URL)")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database max open connections must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database max idle connections must not be negative")
	}

	if c.Sweep.Schedule == "" {
		return fmt.Errorf("sweep schedule is required")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
