// Package config loads gateway configuration from an optional YAML file with
// environment variable overrides. Every BUSBRIDGE_* variable wins over the
// file, and the file wins over defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/busbridge/errors"
)

// NATSConfig configures the shared bus connection.
type NATSConfig struct {
	URL           string        `yaml:"url"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	PingInterval  time.Duration `yaml:"ping_interval"`
	MaxPingsOut   int           `yaml:"max_pings_out"`
	DrainTimeout  time.Duration `yaml:"drain_timeout"`
	TLSCertFile   string        `yaml:"tls_cert_file"`
	TLSKeyFile    string        `yaml:"tls_key_file"`
	TLSCAFile     string        `yaml:"tls_ca_file"`
}

// GatewayConfig configures the HTTP surface and bridging behavior.
type GatewayConfig struct {
	ListenAddr          string        `yaml:"listen_addr"`
	MaxRequestSize      int64         `yaml:"max_request_size"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	FirstChunkTimeout   time.Duration `yaml:"first_chunk_timeout"`
	MaxStreams          int           `yaml:"max_streams"`
	ChunkQueueSize      int           `yaml:"chunk_queue_size"`
	SlowConsumerTimeout time.Duration `yaml:"slow_consumer_timeout"`
	KeepaliveInterval   time.Duration `yaml:"keepalive_interval"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// Config is the root configuration.
type Config struct {
	NATS    NATSConfig    `yaml:"nats"`
	Gateway GatewayConfig `yaml:"gateway"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			ReconnectWait: 2 * time.Second,
			PingInterval:  30 * time.Second,
			MaxPingsOut:   3,
			DrainTimeout:  30 * time.Second,
		},
		Gateway: GatewayConfig{
			ListenAddr:          ":8080",
			MaxRequestSize:      10 << 20,
			RequestTimeout:      30 * time.Second,
			FirstChunkTimeout:   30 * time.Second,
			MaxStreams:          100,
			ChunkQueueSize:      50,
			SlowConsumerTimeout: 5 * time.Second,
			KeepaliveInterval:   10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file when path is
// non-empty, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapClient(err, "Config", "Load", "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapClient(err, "Config", "Load", "parse config file")
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.NATS.URL = getEnv("BUSBRIDGE_NATS_URL", c.NATS.URL)
	c.NATS.ReconnectWait = getEnvDuration("BUSBRIDGE_NATS_RECONNECT_WAIT", c.NATS.ReconnectWait)
	c.NATS.DrainTimeout = getEnvDuration("BUSBRIDGE_NATS_DRAIN_TIMEOUT", c.NATS.DrainTimeout)
	c.NATS.TLSCertFile = getEnv("BUSBRIDGE_TLS_CERT_FILE", c.NATS.TLSCertFile)
	c.NATS.TLSKeyFile = getEnv("BUSBRIDGE_TLS_KEY_FILE", c.NATS.TLSKeyFile)
	c.NATS.TLSCAFile = getEnv("BUSBRIDGE_TLS_CA_FILE", c.NATS.TLSCAFile)

	c.Gateway.ListenAddr = getEnv("BUSBRIDGE_LISTEN_ADDR", c.Gateway.ListenAddr)
	c.Gateway.MaxRequestSize = getEnvInt64("BUSBRIDGE_MAX_REQUEST_SIZE", c.Gateway.MaxRequestSize)
	c.Gateway.RequestTimeout = getEnvDuration("BUSBRIDGE_REQUEST_TIMEOUT", c.Gateway.RequestTimeout)
	c.Gateway.FirstChunkTimeout = getEnvDuration("BUSBRIDGE_FIRST_CHUNK_TIMEOUT", c.Gateway.FirstChunkTimeout)
	c.Gateway.MaxStreams = getEnvInt("BUSBRIDGE_MAX_STREAMS", c.Gateway.MaxStreams)
	c.Gateway.ChunkQueueSize = getEnvInt("BUSBRIDGE_CHUNK_QUEUE_SIZE", c.Gateway.ChunkQueueSize)
	c.Gateway.SlowConsumerTimeout = getEnvDuration("BUSBRIDGE_SLOW_CONSUMER_TIMEOUT", c.Gateway.SlowConsumerTimeout)
	c.Gateway.KeepaliveInterval = getEnvDuration("BUSBRIDGE_KEEPALIVE_INTERVAL", c.Gateway.KeepaliveInterval)

	c.Metrics.Addr = getEnv("BUSBRIDGE_METRICS_ADDR", c.Metrics.Addr)
	if v := os.Getenv("BUSBRIDGE_METRICS_ENABLED"); v != "" {
		c.Metrics.Enabled = v == "true" || v == "1"
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return errors.WrapClient(errors.ErrMissingConfig, "Config", "Validate", "nats url required")
	}
	if (c.NATS.TLSCertFile == "") != (c.NATS.TLSKeyFile == "") {
		return errors.WrapClient(errors.ErrInvalidConfig, "Config", "Validate",
			"tls cert and key must be set together")
	}
	if c.Gateway.MaxRequestSize <= 0 {
		return errors.WrapClient(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("max request size must be positive, got %d", c.Gateway.MaxRequestSize))
	}
	if c.Gateway.RequestTimeout < 100*time.Millisecond {
		return errors.WrapClient(errors.ErrInvalidConfig, "Config", "Validate",
			"request timeout must be at least 100ms")
	}
	if c.Gateway.MaxStreams <= 0 {
		return errors.WrapClient(errors.ErrInvalidConfig, "Config", "Validate",
			"max streams must be positive")
	}
	if c.Gateway.ChunkQueueSize <= 0 {
		return errors.WrapClient(errors.ErrInvalidConfig, "Config", "Validate",
			"chunk queue size must be positive")
	}
	return nil
}
