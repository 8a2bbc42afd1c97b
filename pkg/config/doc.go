// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings except the database URL, which is required.
//
// # Configuration Structure
//
// Server settings:
//
//	SUBLEDGER_HOST="0.0.0.0"
//	SUBLEDGER_PORT="8080"
//	SUBLEDGER_HEALTH_PORT="9090"
//	SUBLEDGER_READ_TIMEOUT="15s"
//	SUBLEDGER_WRITE_TIMEOUT="15s"
//	SUBLEDGER_SHUTDOWN_TIMEOUT="30s"
//
// Database settings:
//
//	SUBLEDGER_DATABASE_URL="postgres://localhost/subledger?sslmode=disable"
//	SUBLEDGER_DB_MAX_OPEN_CONNS="25"
//	SUBLEDGER_DB_MAX_IDLE_CONNS="5"
//	SUBLEDGER_DB_CONN_MAX_LIFETIME="30m"
//
// Sweep settings:
//
//	SUBLEDGER_SWEEP_SCHEDULE="* * * * *"  # cron expression
//
// Observability settings:
//
//	SUBLEDGER_LOG_LEVEL="info"  # debug, info, warn, error
//	SUBLEDGER_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/observability: Uses observability configuration
package config
