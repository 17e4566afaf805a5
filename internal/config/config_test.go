package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "storefront_db", cfg.PostgresDB)
	assert.Equal(t, "mock", cfg.PaymentProvider)
	assert.Equal(t, "inr", cfg.PaymentCurrency)
	assert.True(t, cfg.AllowNegativeStock)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, 5*time.Second, cfg.ReviewLockTTL())
	assert.Equal(t, 2*time.Second, cfg.ReviewLockMaxWait())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("INVENTORY_ALLOW_NEGATIVE_STOCK", "false")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("REVIEW_LOCK_TTL_MS", "750")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.False(t, cfg.AllowNegativeStock)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.ReviewLockTTL())
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_UnknownStoreDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestLoad_DefaultJWTSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be explicitly set")

	t.Setenv("JWT_SECRET", "too-short")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_HTTPPaymentNeedsEndpoint(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER", "http")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_ENDPOINT")

	t.Setenv("PAYMENT_ENDPOINT", "https://payments.internal")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_InvalidReviewSettings(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"REVIEW_MAX_RETRIES", "0", "REVIEW_MAX_RETRIES"},
		{"REVIEW_LOCK_TTL_MS", "-1", "REVIEW_LOCK_TTL_MS"},
		{"OTEL_SAMPLE_RATE", "1.5", "OTEL_SAMPLE_RATE"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
