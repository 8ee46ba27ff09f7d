package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvWithoutConfigFile(t *testing.T) {
	t.Setenv("PULSE_DATABASE_DSN", "host=db user=pulse dbname=pulse")
	t.Setenv("PULSE_HTTP_ADDR", ":9999")
	t.Setenv("PULSE_WORKER_POOL_SIZE", "64")
	t.Setenv("PULSE_SCHEDULER_TICK", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=db user=pulse dbname=pulse", cfg.DatabaseDSN)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 64, cfg.WorkerPoolSize)
	assert.Equal(t, 5*time.Second, cfg.SchedulerTick)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 16, cfg.WorkerPoolSize)
	assert.Equal(t, time.Second, cfg.SchedulerTick)
	assert.Equal(t, 2, cfg.IncidentDebounce)
	assert.Equal(t, 10*time.Minute, cfg.DegradedLogInterval)
	assert.Equal(t, 3, cfg.AlertRetryCeiling)
	assert.Equal(t, 2*time.Second, cfg.AlertRetryBackoff)
	assert.Equal(t, "0 6 * * *", cfg.ExpiryCronSpec)
	assert.Equal(t, 587, cfg.SMTPPort)
}
