package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"smartspend/internal/core"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Persistence
	DataBackend   string
	SQLiteDBPath  string
	DataDirectory string
	SeedDemoData  bool
	DefaultBudget string

	// LLM
	LLMProvider string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMTimeout  time.Duration
	LLMCacheTTL time.Duration

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (worker)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/smartspend.db"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),
		SeedDemoData:  getEnvBool("SEED_DEMO_DATA", true),
		DefaultBudget: getEnv("DEFAULT_BUDGET", "2500"),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", "")),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMTimeout:  getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		LLMCacheTTL: getEnvDuration("LLM_CACHE_TTL", time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "smartspend"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	// Without an explicit provider, an API key selects the hosted endpoint.
	if cfg.LLMProvider == "" {
		if cfg.LLMAPIKey != "" {
			cfg.LLMProvider = "openai"
		} else {
			cfg.LLMProvider = "disabled"
		}
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	validBackends := []string{"memory", "sqlite"}
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if _, err := core.ParseAmount(c.DefaultBudget); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default budget '%s': must be a non-negative number", c.DefaultBudget))
	}

	validProviders := []string{"openai", "ollama", "disabled"}
	if !oneOf(c.LLMProvider, validProviders) {
		errors = append(errors, fmt.Sprintf("invalid LLM provider '%s': must be one of %v", c.LLMProvider, validProviders))
	}
	if c.LLMProvider == "openai" && c.LLMAPIKey == "" {
		errors = append(errors, "LLM_API_KEY is required when using the openai provider")
	}
	if c.LLMBaseURL != "" {
		if u, err := url.Parse(c.LLMBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid LLM base URL '%s': must be an http(s) URL", c.LLMBaseURL))
		}
	}
	if c.LLMTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid LLM timeout %v: must be at least 1 second", c.LLMTimeout))
	} else if c.LLMTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid LLM timeout %v: must be at most 10 minutes", c.LLMTimeout))
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided with GOOGLE_SPREADSHEET_ID")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SheetsEnabled reports whether the worker should mirror into Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Budget returns the parsed default budget, or zero when invalid.
func (c *Config) Budget() core.Money {
	m, err := core.ParseAmount(c.DefaultBudget)
	if err != nil {
		return core.Money{}
	}
	return m
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
	}
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
