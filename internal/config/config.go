package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"budgeter/internal/core"
)

// DefaultCategories seeds a fresh install; CATEGORIES overrides it.
var DefaultCategories = []string{"Groceries", "Restaurants", "Housing", "Transport", "Family", "Personal", "Other"}

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Ledger
	Categories []string
	// Budgets maps category to monthly budget in cents.
	Budgets map[string]int64

	// Sync backend selection: "none", "remote" or "sheets"
	SyncBackend string
	SyncURL     string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	SyncInterval time.Duration
	SyncTimeout  time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgeter.db"),

		Categories: splitList(getEnv("CATEGORIES", strings.Join(DefaultCategories, ","))),

		SyncBackend: getEnv("SYNC_BACKEND", "none"),
		SyncURL:     getEnv("SYNC_URL", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "transactions"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgeter"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_transactions"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		SyncTimeout:  getEnvDuration("SYNC_TIMEOUT", 10*time.Second),
	}

	budgets, err := parseBudgets(getEnv("BUDGETS", ""))
	if err != nil {
		return nil, err
	}
	cfg.Budgets = budgets

	return cfg, nil
}

// Validate checks the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if len(c.Categories) == 0 {
		errors = append(errors, "category list cannot be empty")
	}

	for cat := range c.Budgets {
		if !c.HasCategory(cat) {
			errors = append(errors, fmt.Sprintf("budget for unknown category '%s'", cat))
		}
	}

	switch c.SyncBackend {
	case "none":
	case "remote":
		if c.SyncURL == "" {
			errors = append(errors, "SYNC_URL is required when using the remote backend")
		} else if parsedURL, err := url.Parse(c.SyncURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid sync URL '%s': %v", c.SyncURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid sync URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when using the sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "GOOGLE_SHEET_NAME cannot be empty when using the sheets backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid sync backend '%s': must be one of [none remote sheets]", c.SyncBackend))
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

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.SyncTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync timeout %v: must be at least 1 second", c.SyncTimeout))
	} else if c.SyncTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid sync timeout %v: must be at most 5 minutes", c.SyncTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// HasCategory reports whether name is one of the configured categories.
func (c *Config) HasCategory(name string) bool {
	for _, cat := range c.Categories {
		if cat == name {
			return true
		}
	}
	return false
}

// parseBudgets parses "Groceries=300.00,Transport=80.00" into cents per
// category. Amounts use the same decimal parser as transaction input.
func parseBudgets(s string) (map[string]int64, error) {
	budgets := make(map[string]int64)
	if strings.TrimSpace(s) == "" {
		return budgets, nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, amount, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid budget entry '%s': want Category=Amount", pair)
		}
		cents, err := core.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid budget amount for '%s': %w", name, err)
		}
		if cents < 0 {
			return nil, fmt.Errorf("budget for '%s' cannot be negative", name)
		}
		budgets[name] = cents
	}
	return budgets, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
