package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Data sources
const (
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
	SourceSheets = "sheets"
	SourceMemory = "memory"
)

// Balance authorities
const (
	BalanceServer = "server"
	BalanceLocal  = "local"
)

type Config struct {
	// Data source selection
	DataSource string

	// REST backend
	APIBaseURL       string
	APIToken         string
	APITimeout       time.Duration
	CategoryCacheTTL time.Duration

	// SQLite
	SQLiteDBPath string

	// Memory seeds
	DataDirectory string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP change notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string // empty gives each reader a private queue

	// Reporting
	PageLimit     int
	DayWindow     int
	DayOrder      string
	Timezone      string
	BalanceSource string

	// Formatting
	CurrencySymbol string
	Locale         string

	// AI insight
	GeminiAPIKey string
	GeminiModel  string
	InsightLimit int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		DataSource: strings.ToLower(getEnv("DATA_SOURCE", SourceHTTP)),

		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3000/api"), "/"),
		APIToken:         getEnv("API_TOKEN", ""),
		APITimeout:       getEnvDuration("API_TIMEOUT", 10*time.Second),
		CategoryCacheTTL: getEnvDuration("CATEGORY_CACHE_TTL", 5*time.Minute),

		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/aruskas.db"),
		DataDirectory: getEnv("DATA_DIRECTORY", "./data"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		GoogleCategoriesSheet:    getEnv("GOOGLE_CATEGORIES_SHEET", "Categories"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "aruskas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", ""),

		PageLimit:     getEnvInt("PAGE_LIMIT", 10),
		DayWindow:     getEnvInt("DAY_WINDOW", 7),
		DayOrder:      strings.ToLower(getEnv("DAY_ORDER", "chronological")),
		Timezone:      getEnv("TIMEZONE", "Asia/Jakarta"),
		BalanceSource: strings.ToLower(getEnv("BALANCE_SOURCE", BalanceServer)),

		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "Rp"),
		Locale:         getEnv("LOCALE", "id"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		InsightLimit: getEnvInt("INSIGHT_LIMIT", 50),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Location resolves Timezone. Validate reports a bad name first.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// InsightEnabled reports whether an API key is configured for AI insights.
func (c *Config) InsightEnabled() bool {
	return c.GeminiAPIKey != ""
}

// Validate validates the configuration and returns one error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	validSources := []string{SourceHTTP, SourceSQLite, SourceSheets, SourceMemory}
	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	switch c.DataSource {
	case SourceHTTP:
		if u, err := url.Parse(c.APIBaseURL); err != nil || c.APIBaseURL == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
		if c.APITimeout <= 0 || c.APITimeout > 5*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 0 and 5 minutes", c.APITimeout))
		}
	case SourceSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite source")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
		if c.GoogleTransactionsSheet == "" {
			errors = append(errors, "Google transactions sheet name is required when using sheets source")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets source")
		}
		if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.CategoryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid category cache TTL %v: must not be negative", c.CategoryCacheTTL))
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
	}

	if c.PageLimit < 1 || c.PageLimit > 1000 {
		errors = append(errors, fmt.Sprintf("invalid page limit %d: must be between 1 and 1000", c.PageLimit))
	}
	if c.DayWindow < 0 {
		errors = append(errors, fmt.Sprintf("invalid day window %d: must not be negative", c.DayWindow))
	}
	if c.DayOrder != "chronological" && c.DayOrder != "insertion" {
		errors = append(errors, fmt.Sprintf("invalid day order '%s': must be 'chronological' or 'insertion'", c.DayOrder))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if c.BalanceSource != BalanceServer && c.BalanceSource != BalanceLocal {
		errors = append(errors, fmt.Sprintf("invalid balance source '%s': must be 'server' or 'local'", c.BalanceSource))
	}
	if c.InsightLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid insight limit %d: must be at least 1", c.InsightLimit))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}
