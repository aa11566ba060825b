package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Data     Data     `yaml:"data"`
	Proxy    Proxy    `yaml:"proxy"`
	Activity Activity `yaml:"activity"`
	Map      Map      `yaml:"map"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

// Data locates the baseline resources and the override store.
type Data struct {
	Dir string `yaml:"dir"`
	DB  string `yaml:"db"`
}

// Proxy configures feed retrieval through the JSON-envelope proxy.
// StaggerMs is the per-feed start delay (index * stagger) used to spread
// proxy load during a refresh.
type Proxy struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	StaggerMs int    `yaml:"stagger_ms"`
}

// Activity holds scorer tuning. MemoWindowMs bounds how long a computed
// per-state snapshot may be served before recomputation.
type Activity struct {
	MemoWindowMs int `yaml:"memo_window_ms"`
}

type Map struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Padding int    `yaml:"padding"`
	GeoFile string `yaml:"geo_file"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for statewatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "statewatch")
}

// DataDir returns the XDG data directory for statewatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "statewatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/statewatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'statewatch init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Data: Data{Dir: "data"},
		Proxy: Proxy{
			URL:       "https://api.allorigins.win/get",
			TimeoutMs: 15000,
			StaggerMs: 150,
		},
		Activity: Activity{MemoWindowMs: 1500},
		Map: Map{
			Width:   960,
			Height:  600,
			Padding: 24,
			GeoFile: "states.geojson",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// DBPath returns the effective override-store path from config or XDG default.
func (c *Config) DBPath() string {
	if c.Data.DB != "" {
		return c.Data.DB
	}
	return filepath.Join(DataDir(), "statewatch.db")
}

// GeoPath returns the geometry resource path inside the data dir.
func (c *Config) GeoPath() string {
	return filepath.Join(c.Data.Dir, c.Map.GeoFile)
}

func (c *Config) ProxyTimeout() time.Duration {
	return time.Duration(c.Proxy.TimeoutMs) * time.Millisecond
}

func (c *Config) FetchStagger() time.Duration {
	return time.Duration(c.Proxy.StaggerMs) * time.Millisecond
}

func (c *Config) MemoWindow() time.Duration {
	return time.Duration(c.Activity.MemoWindowMs) * time.Millisecond
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
