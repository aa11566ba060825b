package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Proxy.URL != "https://api.allorigins.win/get" {
		t.Errorf("unexpected proxy url %q", cfg.Proxy.URL)
	}
	if cfg.FetchStagger() != 150*time.Millisecond {
		t.Errorf("expected 150ms stagger, got %v", cfg.FetchStagger())
	}
	if cfg.MemoWindow() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s memo window, got %v", cfg.MemoWindow())
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Map.Width != 960 || cfg.Map.Height != 600 {
		t.Errorf("unexpected map size %dx%d", cfg.Map.Width, cfg.Map.Height)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
proxy:
  url: http://localhost:9999/get
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Proxy.URL != "http://localhost:9999/get" {
		t.Errorf("expected overridden proxy url, got %q", cfg.Proxy.URL)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Proxy.StaggerMs != 150 {
		t.Errorf("expected default stagger, got %d", cfg.Proxy.StaggerMs)
	}
	if cfg.Map.GeoFile != "states.geojson" {
		t.Errorf("expected default geo file, got %q", cfg.Map.GeoFile)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Data.Dir != "data" {
		t.Errorf("expected data dir from file, got %q", cfg.Data.Dir)
	}
}

func TestDBPath(t *testing.T) {
	cfg := &Config{}
	if cfg.DBPath() == "" {
		t.Error("expected non-empty default db path")
	}

	cfg.Data.DB = "/custom/overrides.db"
	if cfg.DBPath() != "/custom/overrides.db" {
		t.Errorf("expected '/custom/overrides.db', got %q", cfg.DBPath())
	}
}
