package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BackendURL     string // Required: base URL of the identity backend
	AnonKey        string // Required: public API key sent alongside caller tokens
	ServiceRoleKey string // Required: privileged API key for admin operations

	AuditBackend string // Optional: activity log backend (rest, sqlite, postgres) (default: rest)
	DatabaseFile string // Optional: path to SQLite database file (default: ./admin.db)
	DatabaseURL  string // Optional: postgres connection string (required for postgres audit backend)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		BackendURL:     os.Getenv("ADMIN_BACKEND_URL"),
		AnonKey:        os.Getenv("ADMIN_ANON_KEY"),
		ServiceRoleKey: os.Getenv("ADMIN_SERVICE_ROLE_KEY"),

		AuditBackend: getEnvOrDefault("ADMIN_AUDIT_BACKEND", "rest"),
		DatabaseFile: getEnvOrDefault("ADMIN_DATABASE_FILE", "admin.db"),
		DatabaseURL:  os.Getenv("ADMIN_DATABASE_URL"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are treated as seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
