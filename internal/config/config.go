package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/storefront-labs/orderengine/pkg/config"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the order engine.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`

	// Catalog store
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis backs the review write lock when enabled.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Authentication
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:""`

	// Payment
	PaymentProvider       string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	PaymentEndpoint       string `env:"PAYMENT_ENDPOINT" envDefault:""`
	PaymentAPIKey         string `env:"PAYMENT_API_KEY" envDefault:""`
	PaymentPublishableKey string `env:"PAYMENT_PUBLISHABLE_KEY" envDefault:""`
	PaymentCurrency       string `env:"PAYMENT_CURRENCY" envDefault:"inr"`
	PaymentTimeoutSecs    int    `env:"PAYMENT_TIMEOUT_SECONDS" envDefault:"10"`
	CompanyName           string `env:"COMPANY_NAME" envDefault:"Storefront"`

	// Inventory
	AllowNegativeStock bool `env:"INVENTORY_ALLOW_NEGATIVE_STOCK" envDefault:"true"`

	// Reviews
	ReviewMaxRetries    int `env:"REVIEW_MAX_RETRIES" envDefault:"5"`
	ReviewLockTTLMs     int `env:"REVIEW_LOCK_TTL_MS" envDefault:"5000"`
	ReviewLockMaxWaitMs int `env:"REVIEW_LOCK_MAX_WAIT_MS" envDefault:"2000"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load orderengine config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	if c.PaymentProvider == "http" && c.PaymentEndpoint == "" {
		return fmt.Errorf("PAYMENT_ENDPOINT is required for the http payment provider")
	}
	if c.PaymentCurrency == "" {
		return fmt.Errorf("PAYMENT_CURRENCY is required")
	}
	if c.ReviewMaxRetries < 1 {
		return fmt.Errorf("REVIEW_MAX_RETRIES must be at least 1, got %d", c.ReviewMaxRetries)
	}
	if c.ReviewLockTTLMs <= 0 {
		return fmt.Errorf("REVIEW_LOCK_TTL_MS must be positive, got %d", c.ReviewLockTTLMs)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// ReviewLockTTL is how long a review lock is held before it expires.
func (c *Config) ReviewLockTTL() time.Duration {
	return time.Duration(c.ReviewLockTTLMs) * time.Millisecond
}

// ReviewLockMaxWait bounds how long a review write waits for its lock.
func (c *Config) ReviewLockMaxWait() time.Duration {
	return time.Duration(c.ReviewLockMaxWaitMs) * time.Millisecond
}
