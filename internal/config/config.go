// Package config handles configuration loading for the heatmap tile server.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/heat-tiles/server/internal/heatmap"
)

// Config represents the server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Heatmap HeatmapConfig `yaml:"heatmap"`
	Storage StorageConfig `yaml:"storage"`
	Demo    DemoConfig    `yaml:"demo"`
	Layers  []LayerConfig `yaml:"layers"`
	Title   string        `yaml:"title"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	TileCacheMB    int    `yaml:"tile_cache_mb"`
	TileTTL        string `yaml:"tile_ttl"`
	QueryCacheSize int    `yaml:"query_cache_size"`
}

// TTL returns the parsed tile TTL.
func (c CacheConfig) TTL() time.Duration {
	d, err := time.ParseDuration(c.TileTTL)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// HeatmapConfig contains default render parameters for new layers.
type HeatmapConfig struct {
	Radius    int     `yaml:"radius"`
	Opacity   float64 `yaml:"opacity"`
	Smoothing float64 `yaml:"smoothing"`
}

// StorageConfig contains layer persistence settings.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// DemoConfig controls the built-in demo layer.
type DemoConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// LayerConfig describes a layer bootstrapped from a GeoJSON file at startup.
// Zero render parameters inherit the heatmap section's defaults.
type LayerConfig struct {
	Name         string  `yaml:"name"`
	GeoJSONPath  string  `yaml:"geojson_path"`
	Weighted     *bool   `yaml:"weighted"`
	Radius       int     `yaml:"radius"`
	Opacity      float64 `yaml:"opacity"`
	Smoothing    float64 `yaml:"smoothing"`
	MaxIntensity float64 `yaml:"max_intensity"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	if _, err := time.ParseDuration(cfg.Cache.TileTTL); err != nil {
		return nil, fmt.Errorf("invalid cache.tile_ttl %q: %w", cfg.Cache.TileTTL, err)
	}

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Cache: CacheConfig{
			TileCacheMB:    512,
			TileTTL:        "10m",
			QueryCacheSize: 256,
		},
		Heatmap: HeatmapConfig{
			Radius:    heatmap.DefaultRadius,
			Opacity:   heatmap.DefaultOpacity,
			Smoothing: heatmap.DefaultSmoothing,
		},
		Storage: StorageConfig{
			SQLitePath: "./data/layers.db",
		},
		Demo: DemoConfig{
			Enabled: true,
			Name:    "Demo",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Cache.TileCacheMB == 0 {
		cfg.Cache.TileCacheMB = defaults.Cache.TileCacheMB
	}
	if cfg.Cache.TileTTL == "" {
		cfg.Cache.TileTTL = defaults.Cache.TileTTL
	}
	if cfg.Cache.QueryCacheSize == 0 {
		cfg.Cache.QueryCacheSize = defaults.Cache.QueryCacheSize
	}
	if cfg.Heatmap.Radius == 0 {
		cfg.Heatmap.Radius = defaults.Heatmap.Radius
	}
	if cfg.Heatmap.Opacity == 0 {
		cfg.Heatmap.Opacity = defaults.Heatmap.Opacity
	}
	if cfg.Heatmap.Smoothing == 0 {
		cfg.Heatmap.Smoothing = defaults.Heatmap.Smoothing
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = defaults.Storage.SQLitePath
	}
	if cfg.Demo.Name == "" {
		cfg.Demo.Name = defaults.Demo.Name
	}
}
