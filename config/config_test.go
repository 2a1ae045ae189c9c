package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lukehollenback/cbpro/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, constants.RESTURL, cfg.REST.BaseURL)
	assert.Equal(t, constants.FeedURL, cfg.Feed.URL)
	assert.Equal(t, constants.PublicRateLimit, cfg.REST.RateLimitRPS)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbpro.yaml")

	require.NoError(t, os.WriteFile(path, []byte(`
sandbox: true
rest:
  timeout: 3s
  rate_limit_rps: 1.5
  breaker:
    enabled: true
    max_consecutive_failures: 4
    open_timeout: 1m
feed:
  channels: [matches]
watch:
  poll_interval: 20s
log:
  level: debug
  format: json
`), 0o600))

	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, constants.SandboxRESTURL, cfg.REST.BaseURL)
	assert.Equal(t, constants.SandboxFeedURL, cfg.Feed.URL)
	assert.Equal(t, 3*time.Second, cfg.REST.Timeout)
	assert.Equal(t, 1.5, cfg.REST.RateLimitRPS)
	assert.Equal(t, constants.PublicRateLimitBurst, cfg.REST.RateLimitBurst)
	assert.True(t, cfg.REST.Breaker.Enabled)
	assert.Equal(t, uint32(4), cfg.REST.Breaker.MaxConsecutiveFailures)
	assert.Equal(t, time.Minute, cfg.REST.Breaker.OpenTimeout)
	assert.Equal(t, []string{"matches"}, cfg.Feed.Channels)
	assert.Equal(t, 20*time.Second, cfg.Watch.PollInterval)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer

	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	cfg.Log.Level = "loud"
	_, err = cfg.Logger(&buf)
	assert.Error(t, err)

	cfg.Log.Level = "info"
	cfg.Log.Format = "xml"
	_, err = cfg.Logger(&buf)
	assert.Error(t, err)
}
