package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
exchanges:
  okx:
    enabled: true
`)
	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8090", cfg.App.HTTPAddr)
	assert.Equal(t, 4, cfg.Collector.Concurrency)
	assert.Equal(t, 50, cfg.Collector.MaxPages)
	assert.Equal(t, 120*time.Second, cfg.Collector.RequestTimeout())
	assert.True(t, cfg.Exchanges.OKX.Enabled)
	assert.False(t, cfg.Exchanges.Binance.Enabled)
}

func TestLoadParsesExchangeSettings(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
collector:
  concurrency: 8
exchanges:
  okx:
    enabled: true
    page_limit: 50
    rate_requests: 10
    rate_window_seconds: 2
  birdeye:
    enabled: true
    api_key: abc123
`)
	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 8, cfg.Collector.Concurrency)
	assert.Equal(t, 50, cfg.Exchanges.OKX.PageLimit)
	assert.Equal(t, 10, cfg.Exchanges.OKX.RateRequests)
	assert.Equal(t, 2*time.Second, cfg.Exchanges.OKX.RateWindow())
	assert.Equal(t, "abc123", cfg.Exchanges.Birdeye.APIKey)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: verbose
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid log_level")
}

func TestLoadRequiresBirdeyeKey(t *testing.T) {
	path := writeConfig(t, `
exchanges:
  birdeye:
    enabled: true
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "api_key")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}
