package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_AppliesDefaults(t *testing.T) {
	// act
	cfg, err := Load()

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Broker.Brokers)
	assert.Equal(t, "pgx", cfg.Postgres.Adapter)
	assert.Equal(t, 6, cfg.Retry.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.ReadDelay)
	assert.Equal(t, 30*time.Second, cfg.Redis.LoadTTL)
}

func Test_Load_ReadsEnvironmentOverrides(t *testing.T) {
	// arrange
	t.Setenv("PICKING_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("PICKING_CONVERGENCE_CONCURRENCY", "8")
	t.Setenv("PICKING_RETRY_BASE_DELAY", "25ms")

	// act
	cfg, err := Load()

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Broker.Brokers)
	assert.Equal(t, 8, cfg.Broker.ConvergenceConcurrency)
	assert.Equal(t, 25*time.Millisecond, cfg.Retry.BaseDelay)
}

func Test_Load_RejectsMalformedValues(t *testing.T) {
	// arrange
	t.Setenv("PICKING_REDIS_DB", "not-a-number")

	// act
	_, err := Load()

	// assert
	require.Error(t, err)
}
