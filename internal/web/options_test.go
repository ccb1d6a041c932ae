package web

import (
	"testing"
	"time"

	"github.com/JonMunkholm/staffdir/internal/config"
	"github.com/JonMunkholm/staffdir/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions(t *testing.T) {
	lookup := func(key string) (string, bool) {
		v, ok := map[string]string{
			"SERVER_READ_TIMEOUT":   "5s",
			"IMPORT_MAX_CONCURRENT": "2",
			"IMPORT_QUEUE_WAIT":     "3s",
			"TRUSTED_PROXIES":       "10.0.0.0/8",
		}[key]
		return v, ok
	}
	cfg, err := config.LoadFrom(lookup)
	require.NoError(t, err)
	mc := metrics.New()

	opts := NewOptions(cfg, mc)
	assert.Equal(t, 5*time.Second, opts.ReadTimeout)
	assert.Equal(t, cfg.Server.RequestTimeout, opts.RequestTimeout)
	assert.Equal(t, int64(10<<20), opts.MaxImportBytes)
	assert.Equal(t, 2, opts.MaxConcurrentImports)
	assert.Equal(t, 3*time.Second, opts.ImportQueueWait)
	assert.Equal(t, []string{"10.0.0.0/8"}, opts.TrustedProxies)
	assert.Equal(t, cfg.Rate.RequestsPerMinute, opts.RateLimit)
	assert.Same(t, mc, opts.Metrics)
	assert.Equal(t, "/metrics", opts.MetricsPath)

	cfg.Rate.Enabled = false
	cfg.Metrics.Enabled = false
	opts = NewOptions(cfg, mc)
	assert.Zero(t, opts.RateLimit)
	assert.Zero(t, opts.ImportRateLimit)
	assert.Nil(t, opts.Metrics)
}
