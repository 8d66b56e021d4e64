package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all Cadence-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL",
		"DATABASE_URL", "REDIS_URL", "RABBITMQ_URL",
		"SUBSCRIPTION_CACHE_ENABLED", "SUBSCRIPTION_CACHE_TTL",
		"BILLING_PROVIDER_URL", "BILLING_PROVIDER_API_KEY", "BILLING_USE_FAKE_GATEWAY",
		"BILLING_BATCH_SIZE", "BILLING_WORKERS",
		"BILLING_RUN_INTERVAL", "BILLING_RETRY_INTERVAL", "GRACE_SWEEP_INTERVAL",
		"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
		"OUTBOX_STATS_INTERVAL", "OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL",
		"OUTBOX_PROCESSOR_ENABLED", "WORKER_HEALTH_ADDR", "CONSUMER_QUEUE",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Application defaults
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)

	// Billing defaults
	assert.True(t, cfg.BillingUseFakeGateway)
	assert.Equal(t, "", cfg.BillingProviderURL)
	assert.Equal(t, 500, cfg.BillingBatchSize)
	assert.Equal(t, 4, cfg.BillingWorkers)
	assert.Equal(t, time.Hour, cfg.BillingRunInterval)
	assert.Equal(t, 6*time.Hour, cfg.BillingRetryInterval)
	assert.Equal(t, time.Hour, cfg.GraceSweepInterval)

	// Cache defaults
	assert.True(t, cfg.SubscriptionCache)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)

	// Outbox defaults
	assert.Equal(t, 200*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 30*time.Second, cfg.OutboxStatsInterval)
	assert.Equal(t, 14, cfg.OutboxRetentionDays)
	assert.Equal(t, 24*time.Hour, cfg.OutboxCleanupInterval)
	assert.True(t, cfg.OutboxProcessorEnabled)

	// Worker defaults
	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)
	assert.Equal(t, "cadence.consumer", cfg.ConsumerQueue)
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/cadence")
	os.Setenv("BILLING_PROVIDER_URL", "https://billing.example.com")
	os.Setenv("BILLING_PROVIDER_API_KEY", "sk_test_123")
	os.Setenv("BILLING_USE_FAKE_GATEWAY", "false")
	os.Setenv("BILLING_BATCH_SIZE", "250")
	os.Setenv("BILLING_WORKERS", "8")
	os.Setenv("BILLING_RUN_INTERVAL", "30m")
	os.Setenv("OUTBOX_BATCH_SIZE", "200")
	os.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	os.Setenv("OUTBOX_PROCESSOR_ENABLED", "false")
	os.Setenv("SUBSCRIPTION_CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://user:pass@db:5432/cadence", cfg.DatabaseURL)
	assert.Equal(t, "https://billing.example.com", cfg.BillingProviderURL)
	assert.Equal(t, "sk_test_123", cfg.BillingProviderAPIKey)
	assert.False(t, cfg.BillingUseFakeGateway)
	assert.Equal(t, 250, cfg.BillingBatchSize)
	assert.Equal(t, 8, cfg.BillingWorkers)
	assert.Equal(t, 30*time.Minute, cfg.BillingRunInterval)
	assert.Equal(t, 200, cfg.OutboxBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.False(t, cfg.OutboxProcessorEnabled)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("BILLING_BATCH_SIZE", "not-a-number")
	os.Setenv("BILLING_RUN_INTERVAL", "soon")
	os.Setenv("OUTBOX_PROCESSOR_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.BillingBatchSize)
	assert.Equal(t, time.Hour, cfg.BillingRunInterval)
	assert.True(t, cfg.OutboxProcessorEnabled)
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		appEnv   string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"test", false},
	}

	for _, tt := range tests {
		t.Run(tt.appEnv, func(t *testing.T) {
			cfg := &Config{AppEnv: tt.appEnv}
			assert.Equal(t, tt.expected, cfg.IsDevelopment())
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		appEnv   string
		expected bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.appEnv, func(t *testing.T) {
			cfg := &Config{AppEnv: tt.appEnv}
			assert.Equal(t, tt.expected, cfg.IsProduction())
		})
	}
}
