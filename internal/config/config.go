package config

import (
	"os"
	"strconv"
)

// Config holds solver configuration loaded from environment variables.
type Config struct {
	Workers    int
	LongJumpDB string
	SprintDB   string
}

// Load reads configuration from environment variables with sensible defaults.
// Workers defaults to 0, which lets the solver pick one worker per CPU.
func Load() *Config {
	return &Config{
		Workers:    intOrDefault("SOLVER_WORKERS", 0),
		LongJumpDB: envOrDefault("LONGJUMP_DB", "longjump_policy.db"),
		SprintDB:   envOrDefault("SPRINT_DB", "sprint_policy.db"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
