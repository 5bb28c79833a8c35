package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 8080 || cfg.GRPCPort != 9090 {
		t.Errorf("ports = %d/%d, want 8080/9090", cfg.HTTPPort, cfg.GRPCPort)
	}
	if cfg.Client.StreamPath != "/live-graph" || cfg.Client.TicketPath != "/v1/ws-auth" {
		t.Errorf("paths = %s, %s", cfg.Client.StreamPath, cfg.Client.TicketPath)
	}
	if cfg.Client.MaxRetries != 3 || cfg.Client.RetryBaseDelay != time.Second || cfg.Client.Backoff != "linear" {
		t.Errorf("unexpected retry policy: %+v", cfg.Client)
	}
	if !cfg.Client.AutoConnect {
		t.Error("auto connect should default to true")
	}
	if cfg.Redis.Enabled {
		t.Error("redis should be disabled by default")
	}
	if cfg.Snapshots.Interval != 30*time.Second || cfg.Snapshots.TTL != 24*time.Hour {
		t.Errorf("unexpected snapshot config: %+v", cfg.Snapshots)
	}
	if cfg.GetHTTPAddr() != ":8080" || cfg.GetGRPCAddr() != ":9090" {
		t.Errorf("addrs = %s, %s", cfg.GetHTTPAddr(), cfg.GetGRPCAddr())
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LIVEGRAPH_API_BASE_URL", "https://api.example.com")
	t.Setenv("LIVEGRAPH_ID_TOKEN_FILE", "/var/run/secrets/id-token")
	t.Setenv("LIVEGRAPH_MAX_RETRIES", "5")
	t.Setenv("LIVEGRAPH_BACKOFF", "exponential")
	t.Setenv("LIVEGRAPH_RETRY_MAX_DELAY", "1m")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("SNAPSHOT_INTERVAL", "0s")
	t.Setenv("SNAPSHOT_RESTORE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Client.BaseURL != "https://api.example.com" || cfg.Client.IDTokenFile != "/var/run/secrets/id-token" {
		t.Errorf("unexpected client config: %+v", cfg.Client)
	}
	if cfg.Client.MaxRetries != 5 || cfg.Client.Backoff != "exponential" || cfg.Client.RetryMaxDelay != time.Minute {
		t.Errorf("unexpected retry policy: %+v", cfg.Client)
	}
	if !cfg.Redis.Enabled || cfg.Snapshots.Interval != 0 || !cfg.Snapshots.Restore {
		t.Errorf("unexpected config: redis=%+v snapshots=%+v", cfg.Redis, cfg.Snapshots)
	}
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("LIVEGRAPH_MAX_RETRIES", "three")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("error = %v, want parse error", err)
	}
}

func validConfig() *Config {
	return &Config{
		HTTPPort: 8080,
		GRPCPort: 9090,
		LogLevel: "info",
		Client: ClientConfig{
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
			RetryMaxDelay:  30 * time.Second,
			Backoff:        "linear",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty base url is allowed", func(c *Config) { c.Client.BaseURL = "" }, ""},
		{"https base url", func(c *Config) { c.Client.BaseURL = "https://api.example.com/v2" }, ""},
		{"zero retries", func(c *Config) { c.Client.MaxRetries = 0 }, ""},
		{"http port", func(c *Config) { c.HTTPPort = 0 }, "invalid HTTP port"},
		{"grpc port", func(c *Config) { c.GRPCPort = 70000 }, "invalid gRPC port"},
		{"base url scheme", func(c *Config) { c.Client.BaseURL = "ftp://api.example.com" }, "invalid API base URL"},
		{"base url host", func(c *Config) { c.Client.BaseURL = "https://" }, "invalid API base URL"},
		{"negative retries", func(c *Config) { c.Client.MaxRetries = -1 }, "max retries"},
		{"base delay", func(c *Config) { c.Client.RetryBaseDelay = 0 }, "base delay"},
		{"max delay", func(c *Config) { c.Client.RetryMaxDelay = time.Millisecond }, "max delay"},
		{"backoff", func(c *Config) { c.Client.Backoff = "fibonacci" }, "invalid backoff"},
		{"redis addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, "redis address"},
		{"redis disabled ignores addr", func(c *Config) { c.Redis.Addr = "" }, ""},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
