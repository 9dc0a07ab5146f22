// Package config loads command settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/meenmo/qlgo/cashflow"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	LogPretty bool
	// QuotesDSN selects the quote store: a postgres:// URL or a SQLite
	// path. Empty means quotes come from the command input only.
	QuotesDSN string
	// MetricsAddr, when set, serves Prometheus metrics (e.g. ":9102").
	MetricsAddr string
	Solver      cashflow.SolverConfig
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	def := cashflow.DefaultSolverConfig
	cfg := &Config{
		LogLevel:    getEnv("QLGO_LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("QLGO_LOG_PRETTY", false),
		QuotesDSN:   getEnv("QLGO_QUOTES_DSN", ""),
		MetricsAddr: getEnv("QLGO_METRICS_ADDR", ""),
		Solver: cashflow.SolverConfig{
			Tolerance:           getEnvAsFloat("QLGO_SOLVER_TOLERANCE", def.Tolerance),
			MaxIterations:       getEnvAsInt("QLGO_SOLVER_MAX_ITER", def.MaxIterations),
			Guess:               def.Guess,
			Floor:               getEnvAsFloat("QLGO_SOLVER_FLOOR", def.Floor),
			Ceiling:             getEnvAsFloat("QLGO_SOLVER_CEILING", def.Ceiling),
			DerivativeThreshold: def.DerivativeThreshold,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("QLGO_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.Solver.MaxIterations <= 0 {
		return fmt.Errorf("QLGO_SOLVER_MAX_ITER must be positive")
	}
	if c.Solver.Floor >= c.Solver.Ceiling {
		return fmt.Errorf("QLGO_SOLVER_FLOOR must be below QLGO_SOLVER_CEILING")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
