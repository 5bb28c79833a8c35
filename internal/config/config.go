package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the live graph service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"LIVEGRAPH_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"LIVEGRAPH_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Live graph client configuration
	Client ClientConfig

	// Redis configuration
	Redis RedisConfig

	// Snapshot configuration
	Snapshots SnapshotConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// ClientConfig holds the live graph stream client configuration
type ClientConfig struct {
	// An empty base URL is reported by the client as a configuration failure.
	BaseURL     string `env:"LIVEGRAPH_API_BASE_URL"`
	IDToken     string `env:"LIVEGRAPH_ID_TOKEN"`
	IDTokenFile string `env:"LIVEGRAPH_ID_TOKEN_FILE"`
	StreamPath  string `env:"LIVEGRAPH_STREAM_PATH" envDefault:"/live-graph"`
	TicketPath  string `env:"LIVEGRAPH_TICKET_PATH" envDefault:"/v1/ws-auth"`
	AutoConnect bool   `env:"LIVEGRAPH_AUTO_CONNECT" envDefault:"true"`

	// Reconnect policy
	MaxRetries     int           `env:"LIVEGRAPH_MAX_RETRIES" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"LIVEGRAPH_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryMaxDelay  time.Duration `env:"LIVEGRAPH_RETRY_MAX_DELAY" envDefault:"30s"`
	Backoff        string        `env:"LIVEGRAPH_BACKOFF" envDefault:"linear"`

	TicketTimeout    time.Duration `env:"LIVEGRAPH_TICKET_TIMEOUT" envDefault:"10s"`
	HandshakeTimeout time.Duration `env:"LIVEGRAPH_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	ViewerBuffer     int           `env:"LIVEGRAPH_VIEWER_BUFFER" envDefault:"64"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	StreamMaxLen int64 `env:"REDIS_STREAM_MAXLEN" envDefault:"10000"`
}

// SnapshotConfig holds graph snapshot configuration
type SnapshotConfig struct {
	Interval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"` // 0 disables
	TTL      time.Duration `env:"SNAPSHOT_TTL" envDefault:"24h"`
	Restore  bool          `env:"SNAPSHOT_RESTORE" envDefault:"false"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate client config
	if c.Client.BaseURL != "" {
		u, err := url.Parse(c.Client.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid API base URL: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid API base URL: %s (must be an http or https URL)", c.Client.BaseURL)
		}
	}
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if c.Client.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive")
	}
	if c.Client.RetryMaxDelay < c.Client.RetryBaseDelay {
		return fmt.Errorf("retry max delay must not be smaller than the base delay")
	}
	if c.Client.Backoff != "linear" && c.Client.Backoff != "exponential" {
		return fmt.Errorf("invalid backoff: %s (must be linear or exponential)", c.Client.Backoff)
	}

	// Validate Redis config
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
