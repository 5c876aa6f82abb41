// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabasePath        string        // LEAVE_DB_PATH (default: leave.db)
	Port                int           // PORT (default: 8080)
	Env                 string        // ENV: dev, staging, prod (default: dev)
	LogLevel            string        // LOG_LEVEL: debug, info, warn, error (default: info)
	LogFormat           string        // LOG_FORMAT: json, console (default: json)
	CORSAllowedOrigins  []string      // CORS_ALLOWED_ORIGINS, comma separated (default: *)
	RateLimitRequests   int           // RATE_LIMIT_REQUESTS per window and credential (default: 120)
	RateLimitWindow     time.Duration // RATE_LIMIT_WINDOW (default: 1m)
	RateLimitBurst      int           // RATE_LIMIT_BURST (default: 30)
	ShutdownGracePeriod time.Duration // SHUTDOWN_GRACE_PERIOD (default: 30s)
	SeedDemo            bool          // SEED_DEMO (default: false)
}

// Load reads .env (if any) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		DatabasePath:        getEnvOrDefault("LEAVE_DB_PATH", "leave.db"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		CORSAllowedOrigins:  getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRequests:   getEnvIntOrDefault("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:     getEnvDurationOrDefault("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitBurst:      getEnvIntOrDefault("RATE_LIMIT_BURST", 30),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		SeedDemo:            getEnvBoolOrDefault("SEED_DEMO", false),
	}
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
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
	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
