package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

var (
	ErrMissingToken      = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrInvalidNumResults = errors.New("SAUCENAO_NUM_RESULTS must be between 0 and 999")
	ErrInvalidSimilarity = errors.New("SAUCENAO_MIN_SIMILARITY must be between 0 and 100")
)

type Config struct {
	Telegram  TelegramConfig
	SauceNAO  SauceNAOConfig
	Database  DatabaseConfig
	Log       LogConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
}

type TelegramConfig struct {
	Token string
	Debug bool
}

type SauceNAOConfig struct {
	// APIKey may be empty: anonymous searches work with a tiny quota.
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	TestMode      bool
	NumResults    uint32
	MinSimilarity float64
	EmptyFilter   bool
}

type DatabaseConfig struct {
	// URL is optional; without it search history is disabled.
	URL string
}

type LogConfig struct {
	Level string
}

type MetricsConfig struct {
	Addr string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

func Load() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
			Debug: os.Getenv("TELEGRAM_DEBUG") == "1",
		},
		SauceNAO: SauceNAOConfig{
			APIKey:        os.Getenv("SAUCENAO_API_KEY"),
			BaseURL:       getEnvOrDefault("SAUCENAO_BASE_URL", "https://saucenao.com"),
			Timeout:       time.Duration(getEnvIntOrDefault("SAUCENAO_TIMEOUT_SEC", 30)) * time.Second,
			TestMode:      os.Getenv("SAUCENAO_TESTMODE") == "1",
			NumResults:    uint32(getEnvIntOrDefault("SAUCENAO_NUM_RESULTS", 16)),
			MinSimilarity: getEnvFloatOrDefault("SAUCENAO_MIN_SIMILARITY", 55.0),
			EmptyFilter:   getEnvOrDefault("SAUCENAO_EMPTY_FILTER", "1") == "1",
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ":9090"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 6),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	if c.SauceNAO.NumResults > 999 {
		return ErrInvalidNumResults
	}
	if c.SauceNAO.MinSimilarity < 0 || c.SauceNAO.MinSimilarity > 100 {
		return ErrInvalidSimilarity
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
