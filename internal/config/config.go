package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override the config file.
const (
	EnvStoreURL   = "NETFLO_STORE_URL"
	EnvServiceKey = "NETFLO_SERVICE_KEY"
)

type Config struct {
	Theme           string        `toml:"theme"`
	PollInterval    time.Duration `toml:"-"`
	PollIntervalStr string        `toml:"poll_interval"`
	MaxHistory      int           `toml:"max_history"`
	Listen          string        `toml:"listen"`
	Database        string        `toml:"database"`
	ServiceKey      string        `toml:"service_key"`
	LogLevel        string        `toml:"log_level"`
	LogFile         string        `toml:"log_file"`
	// Remote is the base URL of a running `netflo serve`. When set, the
	// dashboard talks to it instead of opening the database directly.
	Remote string `toml:"remote"`
}

func DefaultConfig() *Config {
	return &Config{
		Theme:           "solarized-dark",
		PollInterval:    30 * time.Second,
		PollIntervalStr: "30s",
		MaxHistory:      60,
		Listen:          "127.0.0.1:8080",
		LogLevel:        "info",
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.PollIntervalStr != "" {
		d, err := time.ParseDuration(cfg.PollIntervalStr)
		if err != nil {
			return nil, fmt.Errorf("invalid poll_interval %q: %w", cfg.PollIntervalStr, err)
		}
		cfg.PollInterval = d
	}
	return cfg, nil
}

// ApplyEnv overrides file settings from the environment. NETFLO_STORE_URL is
// either a database path or, for the dashboard, an http(s) server URL.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvStoreURL)); v != "" {
		if IsRemoteURL(v) {
			c.Remote = v
		} else {
			c.Database = v
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvServiceKey)); v != "" {
		c.ServiceKey = v
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll_interval must be at least 1s, got %s", c.PollInterval)
	}
	if c.MaxHistory < 1 {
		return fmt.Errorf("max_history must be positive, got %d", c.MaxHistory)
	}
	if c.Remote != "" && !IsRemoteURL(c.Remote) {
		return fmt.Errorf("remote must be an http or https URL, got %q", c.Remote)
	}
	return nil
}

// IsRemoteURL reports whether s names an HTTP server rather than a database.
func IsRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func SaveConfig(cfg *Config, path string) error {
	cfg.PollIntervalStr = cfg.PollInterval.String()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
