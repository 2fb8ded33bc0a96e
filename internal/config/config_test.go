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
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "interview-events", cfg.EventsTopic)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.AIEnabled())
	assert.False(t, cfg.EventsEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("KAFKA_BROKERS", "localhost:19092,localhost:29092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, []string{"localhost:19092", "localhost:29092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled())
}

func TestGetAIBackoffConfig_TestEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := Load()
	require.NoError(t, err)
	maxElapsed, initial, maxInterval, mult := cfg.GetAIBackoffConfig()
	assert.Equal(t, 2*time.Second, maxElapsed)
	assert.Equal(t, 50*time.Millisecond, initial)
	assert.Equal(t, 500*time.Millisecond, maxInterval)
	assert.Equal(t, 2.0, mult)
}

func TestGetAIBackoffConfig_Configured(t *testing.T) {
	t.Setenv("AI_BACKOFF_MAX_ELAPSED_TIME", "90s")
	cfg, err := Load()
	require.NoError(t, err)
	maxElapsed, _, _, _ := cfg.GetAIBackoffConfig()
	assert.Equal(t, 90*time.Second, maxElapsed)
}
