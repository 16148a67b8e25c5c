package llm

import (
	"os"
	"strconv"
)

// Config holds all configuration for the priority-oracle chat client.
type Config struct {
	Enabled     bool
	LogCalls    bool
	Endpoint    string
	APIKey      string
	Model       string
	TimeoutMs   int
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns a Config with sensible defaults. The oracle is
// disabled by default; planning then always uses the deterministic scorer.
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		LogCalls:    false,
		Endpoint:    "http://localhost:11434",
		Model:       "llama3.2",
		TimeoutMs:   15000,
		MaxRetries:  1,
		Temperature: 0.1,
		MaxTokens:   2048,
	}
}

// LoadConfig reads oracle configuration from environment variables, falling
// back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("HORAE_ORACLE_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("HORAE_ORACLE_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("HORAE_ORACLE_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("HORAE_ORACLE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("HORAE_ORACLE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("HORAE_ORACLE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("HORAE_ORACLE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("HORAE_ORACLE_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 2 {
			cfg.Temperature = f
		}
	}
	if v := os.Getenv("HORAE_ORACLE_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTokens = n
		}
	}

	return cfg
}
