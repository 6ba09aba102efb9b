package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"auracoach/internal/models"
)

// Config holds all application configuration
type Config struct {
	Port          string
	DatabasePath  string // SQLite file path; empty means in-memory stores
	RedisURL      string // Optional; empty means in-process response cache
	ProvidersPath string

	// Language model call behavior
	LLMTimeout    time.Duration
	LLMMaxTokens  int
	LLMRatePerSec float64 // Token-bucket refill rate for outbound LLM calls
	LLMBurst      int

	// Response cache
	ResponseCacheTTL time.Duration

	// Background suggestion precompute
	SuggestionInterval time.Duration
	SuggestionWindow   time.Duration // How far back a user counts as active
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "3001"),
		DatabasePath:  getEnv("DATABASE_PATH", "auracoach.db"),
		RedisURL:      getEnv("REDIS_URL", ""),
		ProvidersPath: getEnv("PROVIDERS_PATH", "providers.json"),

		LLMTimeout:    getDurationEnv("LLM_TIMEOUT", 60*time.Second),
		LLMMaxTokens:  getIntEnv("LLM_MAX_TOKENS", 512),
		LLMRatePerSec: getFloatEnv("LLM_RATE_PER_SEC", 5),
		LLMBurst:      getIntEnv("LLM_BURST", 10),

		ResponseCacheTTL: getDurationEnv("RESPONSE_CACHE_TTL", 24*time.Hour),

		SuggestionInterval: getDurationEnv("SUGGESTION_INTERVAL", 5*time.Minute),
		SuggestionWindow:   getDurationEnv("SUGGESTION_WINDOW", time.Hour),
	}
}

// LoadProviders loads the language model providers configuration from a JSON file.
func LoadProviders(filePath string) (*models.ProvidersConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	var config models.ProvidersConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse providers JSON: %w", err)
	}

	return &config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
