package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"platito/internal/core"
	"platito/internal/quotes"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	DatasetMain    = "main"
	DatasetTesting = "testing"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	SQLiteDBPath string
	Dataset      string

	// AMQP ledger events; an empty URL disables them
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Exchange rates
	RatesSourceURL     string
	// RatesFields overrides the quote field mapping, see quotes.ParseFields
	RatesFields        string
	RatesHTTPTimeout   time.Duration
	RatesCooldown      time.Duration
	RatesCheckInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/platito.db"),
		Dataset:      getEnv("DATASET", DatasetMain),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "platito"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "ledger_events"),

		RatesSourceURL:     getEnv("RATES_SOURCE_URL", quotes.DefaultSourceURL),
		RatesFields:        getEnv("RATES_FIELDS", ""),
		RatesHTTPTimeout:   getEnvDuration("RATES_HTTP_TIMEOUT", 10*time.Second),
		RatesCooldown:      getEnvDuration("RATES_COOLDOWN", core.RatesCooldown),
		RatesCheckInterval: getEnvDuration("RATES_CHECK_INTERVAL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// DatabasePath is the SQLite file of the selected dataset. The testing
// dataset lives next to the main one as <name>_testing<ext>.
func (c *Config) DatabasePath() string {
	if c.Dataset != DatasetTesting {
		return c.SQLiteDBPath
	}
	ext := filepath.Ext(c.SQLiteDBPath)
	return strings.TrimSuffix(c.SQLiteDBPath, ext) + "_testing" + ext
}

// DefaultRates returns the rate table a fresh dataset starts from.
func (c *Config) DefaultRates() core.ExchangeRateTable {
	if c.Dataset == DatasetTesting {
		return core.SampleDefaultRates()
	}
	return core.LiveDefaultRates()
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DataBackend != BackendSQLite && c.DataBackend != BackendMemory {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendSQLite, BackendMemory))
	}
	if c.DataBackend == BackendSQLite && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}
	if c.Dataset != DatasetMain && c.Dataset != DatasetTesting {
		errors = append(errors, fmt.Sprintf("invalid dataset '%s': must be one of [%s %s]", c.Dataset, DatasetMain, DatasetTesting))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if parsedURL, err := url.Parse(c.RatesSourceURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid rates source URL '%s': must be an http(s) URL", c.RatesSourceURL))
	}
	if c.RatesFields != "" {
		if _, err := quotes.ParseFields(c.RatesFields); err != nil {
			errors = append(errors, fmt.Sprintf("invalid rates fields: %v", err))
		}
	}
	if c.RatesHTTPTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rates HTTP timeout %v: must be positive", c.RatesHTTPTimeout))
	}
	if c.RatesCooldown < 0 {
		errors = append(errors, fmt.Sprintf("invalid rates cooldown %v: must not be negative", c.RatesCooldown))
	}
	if c.RatesCheckInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rates check interval %v: must be at least 1 second", c.RatesCheckInterval))
	} else if c.RatesCheckInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rates check interval %v: must be at most 24 hours", c.RatesCheckInterval))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of [text json]", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
