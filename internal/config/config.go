// Package config reads engine configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings for the valuation and market-data engine.
type Config struct {
	Port              int
	LogLevel          string
	QuoteBaseURL      string
	RateBaseURL       string
	QuoteTTL          time.Duration
	RateTTL           time.Duration
	FetchTimeout      time.Duration
	RefreshPeriod     time.Duration
	RequestDelay      time.Duration
	DisplayCurrencies []string
}

// Load reads configuration from environment variables, applying defaults
// for anything unset.
func Load() (*Config, error) {
	config := &Config{
		Port:              8000,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		QuoteBaseURL:      getEnv("QUOTE_BASE_URL", "https://query1.finance.yahoo.com"),
		RateBaseURL:       getEnv("RATE_BASE_URL", "https://api.frankfurter.app"),
		QuoteTTL:          3 * time.Minute,
		RateTTL:           30 * time.Minute,
		FetchTimeout:      6 * time.Second,
		RefreshPeriod:     3 * time.Minute,
		RequestDelay:      100 * time.Millisecond,
		DisplayCurrencies: strings.Split(getEnv("DISPLAY_CURRENCIES", "HUF,EUR"), ","),
	}

	if value := os.Getenv("PORT"); value != "" {
		port, err := strconv.Atoi(value)

		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %s", value)
		}

		config.Port = port
	}

	durations := []struct {
		name   string
		target *time.Duration
	}{
		{"QUOTE_TTL", &config.QuoteTTL},
		{"RATE_TTL", &config.RateTTL},
		{"FETCH_TIMEOUT", &config.FetchTimeout},
		{"REFRESH_PERIOD", &config.RefreshPeriod},
		{"REQUEST_DELAY", &config.RequestDelay},
	}

	for _, entry := range durations {
		value := os.Getenv(entry.name)

		if value == "" {
			continue
		}

		duration, err := time.ParseDuration(value)

		if err != nil || duration < 0 {
			return nil, fmt.Errorf("invalid %s: %s", entry.name, value)
		}

		*entry.target = duration
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
