package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// Backends accepted by DATA_BACKEND.
var Backends = []string{"memory", "sqlite", "postgres", "sheets"}

type Config struct {
	// HTTP server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend   string
	DataDirectory string
	SQLiteDBPath  string
	PostgresURL   string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Collection names in the store
	TicketsKey       string
	CashMovementsKey string
	CatalogKey       string

	// Reports
	ReportLocale      string
	RecordCacheTTL    time.Duration
	LowStockThreshold int

	// Billiard session API
	SessionAPIURL          string
	SessionAPITimeout      time.Duration
	SessionRefreshSchedule string

	// AMQP stock events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:   getEnv("DATA_BACKEND", "memory"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/bilardo.db"),
		PostgresURL:   getEnv("POSTGRES_URL", ""),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Store"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		TicketsKey:       getEnv("TICKETS_KEY", "tickets"),
		CashMovementsKey: getEnv("CASH_MOVEMENTS_KEY", "cash_movements"),
		CatalogKey:       getEnv("CATALOG_KEY", "stock_catalog"),

		ReportLocale:      getEnv("REPORT_LOCALE", "tr"),
		RecordCacheTTL:    getEnvDuration("RECORD_CACHE_TTL", 10*time.Second),
		LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 5),

		SessionAPIURL:          getEnv("SESSION_API_URL", ""),
		SessionAPITimeout:      getEnvDuration("SESSION_API_TIMEOUT", 10*time.Second),
		SessionRefreshSchedule: getEnv("SESSION_REFRESH_SCHEDULE", "@every 15s"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bilardo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "stock_changes"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.PostgresURL == "" {
			errs = append(errs, "POSTGRES_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errs = append(errs, fmt.Sprintf("invalid POSTGRES_URL '%s': must be a postgres:// URL", c.PostgresURL))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	keys := map[string]string{"TICKETS_KEY": c.TicketsKey, "CASH_MOVEMENTS_KEY": c.CashMovementsKey, "CATALOG_KEY": c.CatalogKey}
	seen := map[string]string{}
	for _, name := range []string{"TICKETS_KEY", "CASH_MOVEMENTS_KEY", "CATALOG_KEY"} {
		v := keys[name]
		if v == "" {
			errs = append(errs, fmt.Sprintf("%s cannot be empty", name))
			continue
		}
		if other, dup := seen[v]; dup {
			errs = append(errs, fmt.Sprintf("%s and %s both point to '%s'", other, name, v))
		}
		seen[v] = name
	}

	if _, err := language.Parse(c.ReportLocale); err != nil {
		errs = append(errs, fmt.Sprintf("invalid report locale '%s': %v", c.ReportLocale, err))
	}
	if c.RecordCacheTTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid record cache TTL %v: must not be negative", c.RecordCacheTTL))
	}
	if c.LowStockThreshold < 0 {
		errs = append(errs, fmt.Sprintf("invalid low stock threshold %d: must not be negative", c.LowStockThreshold))
	}

	if c.SessionAPIURL != "" {
		if u, err := url.Parse(c.SessionAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("invalid session API URL '%s': must be an http(s) URL", c.SessionAPIURL))
		}
	}
	if c.SessionAPITimeout < time.Second || c.SessionAPITimeout > 2*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session API timeout %v: must be between 1s and 2m", c.SessionAPITimeout))
	}
	if _, err := cron.ParseStandard(c.SessionRefreshSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("invalid session refresh schedule '%s': %v", c.SessionRefreshSchedule, err))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
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
