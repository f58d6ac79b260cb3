package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Theme != "solarized-dark" {
		t.Errorf("expected default theme 'solarized-dark', got %q", cfg.Theme)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("expected poll interval 30s, got %v", cfg.PollInterval)
	}
	if cfg.MaxHistory != 60 {
		t.Errorf("expected max history 60, got %d", cfg.MaxHistory)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfigSaveLoad(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")

	cfg := DefaultConfig()
	cfg.Theme = "dracula"
	cfg.PollInterval = 45 * time.Second
	cfg.ServiceKey = "s3cret"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Theme != "dracula" {
		t.Errorf("expected theme 'dracula', got %q", loaded.Theme)
	}
	if loaded.PollInterval != 45*time.Second {
		t.Errorf("expected poll interval 45s, got %v", loaded.PollInterval)
	}
	if loaded.ServiceKey != "s3cret" {
		t.Errorf("expected service key to round-trip, got %q", loaded.ServiceKey)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("LoadConfig() should return defaults for missing file, got error: %v", err)
	}
	if cfg.Theme != "solarized-dark" {
		t.Errorf("expected default theme, got %q", cfg.Theme)
	}
}

func TestConfigLoadBadInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`poll_interval = "soon"`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unparseable poll_interval")
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		storeURL string
		wantDB   string
		wantURL  string
	}{
		{"sqlite path", "/tmp/netflo.db", "/tmp/netflo.db", ""},
		{"remote server", "http://10.0.0.5:8080", "", "http://10.0.0.5:8080"},
		{"tls server", "https://netflo.example.com", "", "https://netflo.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvStoreURL, tt.storeURL)
			t.Setenv(EnvServiceKey, "key-1")
			cfg := DefaultConfig()
			cfg.ApplyEnv()
			if cfg.Database != tt.wantDB {
				t.Errorf("expected database %q, got %q", tt.wantDB, cfg.Database)
			}
			if cfg.Remote != tt.wantURL {
				t.Errorf("expected remote %q, got %q", tt.wantURL, cfg.Remote)
			}
			if cfg.ServiceKey != "key-1" {
				t.Errorf("expected service key from env, got %q", cfg.ServiceKey)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollInterval = 100 * time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sub-second poll interval")
	}

	cfg = DefaultConfig()
	cfg.Remote = "ftp://nope"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-http remote")
	}
}
