package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, ":8080", cfg.Gateway.ListenAddr)
	assert.Equal(t, int64(10<<20), cfg.Gateway.MaxRequestSize)
	assert.Equal(t, 30*time.Second, cfg.Gateway.RequestTimeout)
	assert.Equal(t, 100, cfg.Gateway.MaxStreams)
	assert.Equal(t, 50, cfg.Gateway.ChunkQueueSize)
	assert.Equal(t, 5*time.Second, cfg.Gateway.SlowConsumerTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nats:
  url: nats://bus.internal:4222
gateway:
  listen_addr: ":9000"
  max_streams: 25
  request_timeout: 10s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://bus.internal:4222", cfg.NATS.URL)
	assert.Equal(t, ":9000", cfg.Gateway.ListenAddr)
	assert.Equal(t, 25, cfg.Gateway.MaxStreams)
	assert.Equal(t, 10*time.Second, cfg.Gateway.RequestTimeout)

	// Values absent from the file keep their defaults.
	assert.Equal(t, int64(10<<20), cfg.Gateway.MaxRequestSize)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nats: [broken"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nats:
  url: nats://from-file:4222
`), 0o600))

	t.Setenv("BUSBRIDGE_NATS_URL", "nats://from-env:4222")
	t.Setenv("BUSBRIDGE_MAX_STREAMS", "7")
	t.Setenv("BUSBRIDGE_REQUEST_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://from-env:4222", cfg.NATS.URL)
	assert.Equal(t, 7, cfg.Gateway.MaxStreams)
	assert.Equal(t, 2*time.Second, cfg.Gateway.RequestTimeout)
}

func TestMetricsEnabledEnv(t *testing.T) {
	t.Setenv("BUSBRIDGE_METRICS_ENABLED", "false")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.NATS.URL = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.NATS.TLSCertFile = "cert.pem"
	assert.Error(t, cfg.Validate(), "cert without key")

	cfg = Default()
	cfg.NATS.TLSCertFile = "cert.pem"
	cfg.NATS.TLSKeyFile = "key.pem"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Gateway.MaxRequestSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Gateway.RequestTimeout = 50 * time.Millisecond
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Gateway.MaxStreams = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Gateway.ChunkQueueSize = -1
	assert.Error(t, cfg.Validate())
}

func TestEnvHelpersIgnoreMalformed(t *testing.T) {
	t.Setenv("BUSBRIDGE_MAX_STREAMS", "not-a-number")
	t.Setenv("BUSBRIDGE_REQUEST_TIMEOUT", "not-a-duration")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Gateway.MaxStreams)
	assert.Equal(t, 30*time.Second, cfg.Gateway.RequestTimeout)
}
