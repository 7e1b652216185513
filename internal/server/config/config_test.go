package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, "foodscheduler.db", cfg.DatabaseDSN)
	assert.Equal(t, 10*time.Minute, cfg.SyncCodeTTL)
}

func TestParseEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ADDRESS", ":9090")
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/meals")
	t.Setenv("SYNC_CODE_TTL_MINUTES", "5")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, "postgres://u:p@localhost:5432/meals", cfg.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, cfg.SyncCodeTTL)
}

func TestParseEnvIgnoresInvalidTTL(t *testing.T) {
	t.Setenv("SYNC_CODE_TTL_MINUTES", "not-a-number")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, 10*time.Minute, cfg.SyncCodeTTL)
}
