package config

import (
	"strings"
	"testing"
	"time"

	"medibook-console/internal/store"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Timezone != "Africa/Lagos" {
		t.Errorf("expected default timezone Africa/Lagos, got %q", cfg.Timezone)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("expected default timeout 15s, got %s", cfg.RequestTimeout)
	}
	if cfg.SessionDriver != store.DriverFile {
		t.Errorf("expected file driver, got %q", cfg.SessionDriver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.medibook.ng/api")
	t.Setenv("SESSION_DRIVER", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_BURST", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SessionDriver != store.DriverRedis || cfg.RequestTimeout != 3*time.Second || cfg.RateLimitBurst != 2 {
		t.Errorf("config %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			APIBaseURL:     "http://localhost:5000/api",
			SessionDriver:  store.DriverFile,
			RequestTimeout: time.Second,
			Timezone:       "Africa/Lagos",
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative base url", func(c *Config) { c.APIBaseURL = "/api" }, "API_BASE_URL"},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"redis without url", func(c *Config) { c.SessionDriver = store.DriverRedis }, "REDIS_URL"},
		{"postgres without url", func(c *Config) { c.SessionDriver = store.DriverPostgres }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.SessionDriver = "etcd" }, "SESSION_DRIVER"},
		{"bad key hex", func(c *Config) { c.SessionKey = "zz" }, "not valid hex"},
		{"short key", func(c *Config) { c.SessionKey = "abcd" }, "32 bytes"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestStoreOptions(t *testing.T) {
	c := Config{
		SessionDriver: store.DriverFile,
		Profile:       "clinic-a",
		SessionDir:    t.TempDir(),
		SessionKey:    strings.Repeat("ab", 32),
	}
	o, err := c.StoreOptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Key) != 32 || o.Profile != "clinic-a" || o.Dir != c.SessionDir {
		t.Errorf("options %+v", o)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}
	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}
