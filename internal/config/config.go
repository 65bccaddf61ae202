package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	// HTTP
	Port            int
	APIKey          string
	CORSAllowOrigin string

	// Storage
	StoreDriver string
	SQLitePath  string
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string

	// Upstream quote
	GoldAPIURL        string
	GoldAppKey        string
	GoldProductID     string
	GoldRegionCode    string
	GoldInstitutionID string

	// Fetch timing
	FetchIntervalMinutes int
	FetchTimeoutSeconds  int
	FetchMaxAttempts     int
	FetchCoalesce        bool

	// Notifications
	WebhookURL             string
	BotName                string
	WebhookCooldownMinutes int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            envInt("PORT", 3602),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		StoreDriver: strings.ToLower(envStr("STORE_DRIVER", DriverPostgres)),
		SQLitePath:  envStr("SQLITE_PATH", "gold_prices.db"),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBPort:      envInt("DB_PORT", 5432),
		DBName:      envStr("DB_NAME", "gold_price"),
		DBUser:      envStr("DB_USER", ""),
		DBPassword:  envStr("DB_PASSWORD", ""),

		GoldAPIURL:        envStr("GOLD_API_URL", "https://lsjr.ccb.com/clst/v1/preciousMetal/batchQueryDetail"),
		GoldAppKey:        envStr("GOLD_APP_KEY", "1c51e643f97c3e59"),
		GoldProductID:     envStr("GOLD_PRODUCT_ID", "261100101"),
		GoldRegionCode:    envStr("GOLD_REGION_CODE", "JS"),
		GoldInstitutionID: envStr("GOLD_INSTITUTION_ID", "320000000"),

		FetchIntervalMinutes: envInt("FETCH_INTERVAL_MINUTES", 60),
		FetchTimeoutSeconds:  envInt("FETCH_TIMEOUT_SECONDS", 30),
		FetchMaxAttempts:     envInt("FETCH_MAX_ATTEMPTS", 1),
		FetchCoalesce:        envBool("FETCH_COALESCE", false),

		WebhookURL:             envStr("WEBHOOK_URL", ""),
		BotName:                envStr("BOT_NAME", "GoldPriceTracker"),
		WebhookCooldownMinutes: envInt("WEBHOOK_COOLDOWN_MINUTES", 60),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DBUser == "" {
			errs = append(errs, "DB_USER is required for the postgres store")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH is required for the sqlite store")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.StoreDriver))
	}

	if c.GoldAPIURL == "" {
		errs = append(errs, "GOLD_API_URL is required")
	}
	if c.FetchIntervalMinutes <= 0 {
		errs = append(errs, "FETCH_INTERVAL_MINUTES must be positive")
	}
	if c.FetchTimeoutSeconds <= 0 {
		errs = append(errs, "FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.FetchMaxAttempts <= 0 {
		errs = append(errs, "FETCH_MAX_ATTEMPTS must be at least 1")
	}
	if c.WebhookCooldownMinutes < 0 {
		errs = append(errs, "WEBHOOK_COOLDOWN_MINUTES must not be negative")
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT out of range: %d", c.Port))
	}

	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set, REST API has no authentication")
	}
	if c.FetchMaxAttempts > 1 {
		fmt.Printf("[WARN] FETCH_MAX_ATTEMPTS=%d, upstream calls will be retried\n", c.FetchMaxAttempts)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Gold Price Tracker Configuration ===")
	fmt.Printf("API Port: %d\n", c.Port)
	fmt.Printf("Store: %s\n", c.StoreDriver)
	if c.StoreDriver == DriverSQLite {
		fmt.Printf("  SQLite file: %s\n", c.SQLitePath)
	} else {
		fmt.Printf("  Postgres: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	}
	fmt.Println("--------------------------------------")
	fmt.Println("Upstream:")
	fmt.Printf("  URL: %s\n", c.GoldAPIURL)
	fmt.Printf("  Product: %s (%s/%s)\n", c.GoldProductID, c.GoldRegionCode, c.GoldInstitutionID)
	fmt.Println("--------------------------------------")
	fmt.Println("Fetch Schedule:")
	fmt.Printf("  Interval: every %d minutes\n", c.FetchIntervalMinutes)
	fmt.Printf("  Timeout: %ds, attempts: %d\n", c.FetchTimeoutSeconds, c.FetchMaxAttempts)
	fmt.Printf("  Coalesce concurrent fetches: %v\n", c.FetchCoalesce)
	fmt.Printf("  Failure webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	if c.WebhookURL != "" {
		fmt.Printf("  Alert cooldown: %d minutes per failure kind\n", c.WebhookCooldownMinutes)
	}
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
