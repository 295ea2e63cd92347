package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Cache.MaxRanked)
	assert.Equal(t, 1024, cfg.Replication.QueueCapacity)
	assert.Equal(t, 10, cfg.Consistency.SampleSize)
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad server port", func(c *Config) { c.Server.Port = 0 }},
		{"missing primary host", func(c *Config) { c.Primary.Host = "" }},
		{"missing primary database", func(c *Config) { c.Primary.Database = "" }},
		{"missing secondary host", func(c *Config) { c.Secondary.Host = "" }},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero queue capacity", func(c *Config) { c.Replication.QueueCapacity = 0 }},
		{"zero sample size", func(c *Config) { c.Consistency.SampleSize = 0 }},
		{"zero audit op timeout", func(c *Config) { c.Consistency.OpTimeout = 0 }},
		{"periodic without interval", func(c *Config) {
			c.Consistency.Periodic = true
			c.Consistency.CheckInterval = 0
		}},
		{"rate limiter without rate", func(c *Config) {
			c.RateLimiter.Enabled = true
			c.RateLimiter.RequestsPerSecond = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	content := `
server:
  port: 8080
cache:
  ttl: 30m
  max_ranked: 25
replication:
  queue_capacity: 256
consistency:
  sample_size: 20
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 25, cfg.Cache.MaxRanked)
	assert.Equal(t, 256, cfg.Replication.QueueCapacity)
	assert.Equal(t, 20, cfg.Consistency.SampleSize)

	// Values the file omits keep their defaults.
	assert.Equal(t, "localhost", cfg.Primary.Host)
	assert.Equal(t, 5433, cfg.Secondary.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("PRIMARY_DB_HOST", "db-primary")
	t.Setenv("PRIMARY_DB_PASSWORD", "secret")
	t.Setenv("SECONDARY_DB_HOST", "db-replica")
	t.Setenv("REDIS_HOST", "cache-host")
	t.Setenv("UPLOAD_SERVICE_URL", "http://upload:5001")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "db-primary", cfg.Primary.Host)
	assert.Equal(t, "secret", cfg.Primary.Password)
	assert.Equal(t, "db-replica", cfg.Secondary.Host)
	assert.Equal(t, "cache-host", cfg.Redis.Host)
	assert.Equal(t, "http://upload:5001", cfg.Upload.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
