package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"medibook-console/internal/store"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	Profile        string        `mapstructure:"PROFILE"`
	SessionDriver  string        `mapstructure:"SESSION_DRIVER"`
	SessionDir     string        `mapstructure:"SESSION_DIR"`
	SessionKey     string        `mapstructure:"SESSION_KEY"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	Timezone       string        `mapstructure:"TIMEZONE"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFile        string        `mapstructure:"LOG_FILE"`
}

var keys = []string{
	"ENV", "API_BASE_URL", "PROFILE",
	"SESSION_DRIVER", "SESSION_DIR", "SESSION_KEY",
	"REDIS_URL", "DATABASE_URL",
	"REQUEST_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"TIMEZONE", "LOG_LEVEL", "LOG_FILE",
}

// Load reads the environment, after merging an optional .env file, into a
// Config. It does not validate; call Validate before use.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("PROFILE", "default")
	v.SetDefault("SESSION_DRIVER", store.DriverFile)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("RATE_LIMIT_RPS", 0.2)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("TIMEZONE", "Africa/Lagos")
	v.SetDefault("LOG_LEVEL", "warn")

	for _, k := range keys {
		v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.SessionDriver = strings.ToLower(strings.TrimSpace(cfg.SessionDriver))
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks the configuration is usable: a parseable base URL, a
// known timezone, and whatever the selected session driver needs.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}

	switch c.SessionDriver {
	case store.DriverFile, store.DriverMemory:
	case store.DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_DRIVER is %q", c.SessionDriver)
		}
	case store.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_DRIVER is %q", c.SessionDriver)
		}
	default:
		return fmt.Errorf("SESSION_DRIVER must be file, redis, postgres or memory, got %q", c.SessionDriver)
	}

	if _, err := c.Key(); err != nil {
		return err
	}
	return nil
}

// Key decodes SESSION_KEY. An empty key leaves the file store unencrypted.
func (c *Config) Key() ([]byte, error) {
	if c.SessionKey == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(c.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("SESSION_KEY is not valid hex: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("SESSION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(b))
	}
	return b, nil
}

// Location resolves TIMEZONE, used to read and display appointment times.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// StoreOptions maps the session settings onto store.Options.
func (c *Config) StoreOptions() (store.Options, error) {
	key, err := c.Key()
	if err != nil {
		return store.Options{}, err
	}
	return store.Options{
		Driver:      c.SessionDriver,
		Profile:     c.Profile,
		Dir:         c.SessionDir,
		Key:         key,
		RedisURL:    c.RedisURL,
		DatabaseURL: c.DatabaseURL,
	}, nil
}
