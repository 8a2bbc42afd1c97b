package config

import (
	"os"
	"testing"
	"time"

	"github.com/ahmedtariq19/subledger/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{
			name:         "returns true for 'true'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "true",
			want:         true,
		},
		{
			name:         "returns true for '1'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "1",
			want:         true,
		},
		{
			name:         "returns false for 'false'",
			key:          "TEST_BOOL",
			defaultValue: true,
			envValue:     "false",
			want:         false,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_BOOL_NOT_SET",
			defaultValue: true,
			envValue:     "",
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "returns parsed value",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "42",
			want:         42,
		},
		{
			name:         "returns default on parse failure",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "not-a-number",
			want:         10,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_NOT_SET",
			defaultValue: 10,
			envValue:     "",
			want:         10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "45s")
	defer os.Unsetenv("TEST_DURATION")

	if got := getEnvDuration("TEST_DURATION", time.Second); got != 45*time.Second {
		t.Errorf("getEnvDuration() = %v, want 45s", got)
	}
	if got := getEnvDuration("TEST_DURATION_NOT_SET", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() = %v, want 1s", got)
	}
}

// TestLoadConfig tests full configuration loading
func TestLoadConfig(t *testing.T) {
	t.Run("fails without database URL", func(t *testing.T) {
		os.Unsetenv("SUBLEDGER_DATABASE_URL")

		_, err := LoadConfig()
		if err == nil {
			t.Fatal("Expected error when SUBLEDGER_DATABASE_URL is unset")
		}
	})

	t.Run("loads defaults", func(t *testing.T) {
		os.Setenv("SUBLEDGER_DATABASE_URL", "postgres://localhost/subledger?sslmode=disable")
		defer os.Unsetenv("SUBLEDGER_DATABASE_URL")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() failed: %v", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
		}
		if cfg.Server.HealthPort != "9090" {
			t.Errorf("Expected default health port 9090, got %s", cfg.Server.HealthPort)
		}
		if cfg.Sweep.Schedule != "* * * * *" {
			t.Errorf("Expected default sweep schedule, got %s", cfg.Sweep.Schedule)
		}
		if cfg.Database.MaxOpenConns != 25 {
			t.Errorf("Expected default max open conns 25, got %d", cfg.Database.MaxOpenConns)
		}
		if cfg.Observability.LogLevel != observability.InfoLevel {
			t.Errorf("Expected default log level info, got %v", cfg.Observability.LogLevel)
		}
		if !cfg.Observability.MetricsEnabled {
			t.Error("Expected metrics enabled by default")
		}
	})

	t.Run("overrides from environment", func(t *testing.T) {
		os.Setenv("SUBLEDGER_DATABASE_URL", "postgres://localhost/subledger?sslmode=disable")
		os.Setenv("SUBLEDGER_PORT", "8181")
		os.Setenv("SUBLEDGER_LOG_LEVEL", "debug")
		os.Setenv("SUBLEDGER_SWEEP_SCHEDULE", "*/5 * * * *")
		defer func() {
			os.Unsetenv("SUBLEDGER_DATABASE_URL")
			os.Unsetenv("SUBLEDGER_PORT")
			os.Unsetenv("SUBLEDGER_LOG_LEVEL")
			os.Unsetenv("SUBLEDGER_SWEEP_SCHEDULE")
		}()

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() failed: %v", err)
		}

		if cfg.Server.Port != "8181" {
			t.Errorf("Expected port 8181, got %s", cfg.Server.Port)
		}
		if cfg.Observability.LogLevel != observability.DebugLevel {
			t.Errorf("Expected debug log level, got %v", cfg.Observability.LogLevel)
		}
		if cfg.Sweep.Schedule != "*/5 * * * *" {
			t.Errorf("Expected custom sweep schedule, got %s", cfg.Sweep.Schedule)
		}
	})
}

// TestConfigValidate tests configuration validation rules
func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{
				Port:       "8080",
				HealthPort: "9090",
			},
			Database: DatabaseConfig{
				URL:          "postgres://localhost/subledger",
				MaxOpenConns: 25,
				MaxIdleConns: 5,
			},
			Sweep: SweepConfig{Schedule: "* * * * *"},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Expected valid config, got %v", err)
		}
	})

	t.Run("rejects matching ports", func(t *testing.T) {
		cfg := valid()
		cfg.Server.HealthPort = cfg.Server.Port
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for matching server and health ports")
		}
	})

	t.Run("rejects empty database URL", func(t *testing.T) {
		cfg := valid()
		cfg.Database.URL = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for empty database URL")
		}
	})

	t.Run("rejects empty sweep schedule", func(t *testing.T) {
		cfg := valid()
		cfg.Sweep.Schedule = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for empty sweep schedule")
		}
	})
}
