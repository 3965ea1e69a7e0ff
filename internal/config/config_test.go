package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)

	// Verify logger is set (we can't easily compare loggers directly)
	// This test mainly ensures the function doesn't panic
}

func TestApplyDefaults(t *testing.T) {
	t.Run("Config struct defaults", func(t *testing.T) {
		config := &Config{}
		applyDefaults(config)

		if config.Site.Name != "Медиасервис" {
			t.Errorf("Expected site name 'Медиасервис', got %q", config.Site.Name)
		}
		if config.Server.Port != "12600" {
			t.Errorf("Expected port '12600', got %q", config.Server.Port)
		}
		if !config.Server.Compress {
			t.Error("Expected compression to be enabled by default")
		}
		if config.API.PostsPerPage != 9 {
			t.Errorf("Expected 9 posts per page, got %d", config.API.PostsPerPage)
		}
		if config.API.Timeout != 15*time.Second {
			t.Errorf("Expected API timeout 15s, got %v", config.API.Timeout)
		}
		if config.Session.Store != SessionStoreMemory {
			t.Errorf("Expected memory session store, got %q", config.Session.Store)
		}
		if config.Session.TTL != 24*time.Hour {
			t.Errorf("Expected session TTL 24h, got %v", config.Session.TTL)
		}
		if config.Locale.Language != "ru" {
			t.Errorf("Expected language 'ru', got %q", config.Locale.Language)
		}
		if !config.Features.LiveViews.Enabled || !config.Features.Metrics.Enabled {
			t.Error("Expected live views and metrics to be enabled by default")
		}
		if config.Logging.Level != "info" {
			t.Errorf("Expected log level 'info', got %q", config.Logging.Level)
		}
	})

	t.Run("Non-pointer and non-struct values are ignored", func(t *testing.T) {
		s := "unchanged"
		applyDefaults(&s)
		if s != "unchanged" {
			t.Errorf("Expected string to stay unchanged, got %q", s)
		}
		applyDefaults(Config{})
	})
}

func TestSliceDefaults(t *testing.T) {
	type withSlice struct {
		Items []string `default:"a, b ,c"`
		Kept  []string `default:"x"`
	}

	v := &withSlice{Kept: []string{"set"}}
	applyDefaults(v)

	if strings.Join(v.Items, "|") != "a|b|c" {
		t.Errorf("Expected trimmed slice [a b c], got %v", v.Items)
	}
	if len(v.Kept) != 1 || v.Kept[0] != "set" {
		t.Errorf("Expected pre-populated slice to be kept, got %v", v.Kept)
	}
}

func TestLoadConfig(t *testing.T) {
	SetLogger(zerolog.Nop())

	t.Run("Missing file falls back to defaults", func(t *testing.T) {
		err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if AppConfig == nil {
			t.Fatal("Expected AppConfig to be set")
		}
		if AppConfig.API.BaseURL != "http://localhost:8000/api" {
			t.Errorf("Expected default base URL, got %q", AppConfig.API.BaseURL)
		}
	})

	t.Run("File values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
api:
  base_url: https://news.example.com/api
  timeout: 3s
session:
  store: sqlite
locale:
  language: en
  timezone: UTC
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		if err := LoadConfig(path); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if AppConfig.API.BaseURL != "https://news.example.com/api" {
			t.Errorf("Expected overridden base URL, got %q", AppConfig.API.BaseURL)
		}
		if AppConfig.API.Timeout != 3*time.Second {
			t.Errorf("Expected timeout 3s, got %v", AppConfig.API.Timeout)
		}
		if AppConfig.API.PostsPerPage != 9 {
			t.Errorf("Expected untouched default posts per page, got %d", AppConfig.API.PostsPerPage)
		}
		if AppConfig.Session.Store != SessionStoreSQLite {
			t.Errorf("Expected sqlite store, got %q", AppConfig.Session.Store)
		}
		if AppConfig.Locale.Language != "en" {
			t.Errorf("Expected language 'en', got %q", AppConfig.Locale.Language)
		}
	})

	t.Run("Invalid YAML is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		if err := os.WriteFile(path, []byte("api: [unclosed"), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		err := LoadConfig(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("Expected parse error, got %v", err)
		}
	})

	t.Run("Unknown session store is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("session:\n  store: etcd\n"), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		if err := LoadConfig(path); err == nil {
			t.Error("Expected error for unknown session store")
		}
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("MEDIAFRONT_API_BASE_URL", "http://api.internal/api")
		t.Setenv("MEDIAFRONT_PORT", "9000")

		if err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if AppConfig.API.BaseURL != "http://api.internal/api" {
			t.Errorf("Expected env base URL, got %q", AppConfig.API.BaseURL)
		}
		if AppConfig.Server.Port != "9000" {
			t.Errorf("Expected env port, got %q", AppConfig.Server.Port)
		}
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(*Config) {}},
		{name: "Empty base URL", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: true},
		{name: "Zero page size", mutate: func(c *Config) { c.API.PostsPerPage = 0 }, wantErr: true},
		{name: "Redis store", mutate: func(c *Config) { c.Session.Store = SessionStoreRedis }},
		{name: "Gzip codec", mutate: func(c *Config) { c.Session.Codec = CodecGzip }},
		{name: "Unknown codec", mutate: func(c *Config) { c.Session.Codec = "lz4" }, wantErr: true},
		{name: "Bad timezone", mutate: func(c *Config) { c.Locale.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "UTC timezone", mutate: func(c *Config) { c.Locale.Timezone = "UTC" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("Expected an error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	loc, err := LocaleConfig{Timezone: "Local"}.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Expected time.Local, got %v (%v)", loc, err)
	}

	loc, err = LocaleConfig{Timezone: "UTC"}.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Expected UTC, got %v (%v)", loc, err)
	}
}
