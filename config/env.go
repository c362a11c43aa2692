package config

import (
	"fmt"
	"os"
	"strconv"
)

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnv overrides file settings with GRANTFEED_* variables.
func applyEnv(cfg *Config) error {
	cfg.Store.Type = GetEnv("GRANTFEED_STORE_TYPE", cfg.Store.Type)
	cfg.Store.DSN = GetEnv("GRANTFEED_STORE_DSN", cfg.Store.DSN)
	cfg.Output.HTML = GetEnv("GRANTFEED_OUTPUT", cfg.Output.HTML)
	cfg.Server.Addr = GetEnv("GRANTFEED_ADDR", cfg.Server.Addr)

	if value := os.Getenv("GRANTFEED_STORE_CAP"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GRANTFEED_STORE_CAP %q: %w", value, err)
		}
		cfg.Store.Cap = n
	}

	return nil
}
