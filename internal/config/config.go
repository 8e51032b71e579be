package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Store backends for loan applications and their history.
const (
	StorePostgres    = "postgres"
	StoreRecordStore = "recordstore"
)

// Config holds service configuration. Commission defaults live here so
// every component reads the same value; nothing else hardcodes a rate.
type Config struct {
	DatabaseURL           string
	ServerAddr            string
	RequestTimeout        time.Duration
	TokenSecret           string
	DefaultCommissionRate decimal.Decimal
	AuditSigningKey       string
	KafkaBrokers          []string
	StoreBackend          string
	RecordStoreURL        string
	RecordStoreAPIKey     string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "credflow")
		pass := getenv("POSTGRES_PASSWORD", "credflow_pass")
		db := getenv("POSTGRES_DB", "credflow")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}
	addr := getenv("SERVER_ADDR", "0.0.0.0:8080")
	timeout := parseDuration(getenv("REQUEST_TIMEOUT", "60s"), 60*time.Second)

	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}

	rateStr := getenv("DEFAULT_COMMISSION_RATE", "1.5")
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_COMMISSION_RATE %q is not a decimal", rateStr)
	}

	backend := getenv("STORE_BACKEND", StorePostgres)
	if backend != StorePostgres && backend != StoreRecordStore {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StorePostgres, StoreRecordStore, backend)
	}
	recordStoreURL := os.Getenv("RECORD_STORE_URL")
	if backend == StoreRecordStore && recordStoreURL == "" {
		return nil, fmt.Errorf("RECORD_STORE_URL is required with STORE_BACKEND=%s", StoreRecordStore)
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return &Config{
		DatabaseURL:           dsn,
		ServerAddr:            addr,
		RequestTimeout:        timeout,
		TokenSecret:           tokenSecret,
		DefaultCommissionRate: rate,
		AuditSigningKey:       os.Getenv("AUDIT_SIGNING_KEY"),
		KafkaBrokers:          brokers,
		StoreBackend:          backend,
		RecordStoreURL:        recordStoreURL,
		RecordStoreAPIKey:     os.Getenv("RECORD_STORE_API_KEY"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

