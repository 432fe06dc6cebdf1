// Package config provides configuration management for the land-cover
// pipeline service.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Catalog  CatalogConfig  `envPrefix:"CATALOG_"`
	Data     DataConfig     `envPrefix:"DATA_"`
	Pipeline PipelineConfig `envPrefix:"PIPELINE_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// CatalogConfig selects and configures the scene source.
type CatalogConfig struct {
	// Source specifies which scene source to use: "stac" or "dir"
	Source string `env:"SOURCE" envDefault:"dir"`

	// STACURL is the remote STAC API root, used when Source is "stac".
	STACURL string        `env:"STAC_URL" envDefault:"https://landsatlook.usgs.gov/stac-server"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// SceneDir is the local scene directory, used when Source is "dir".
	SceneDir string `env:"SCENE_DIR" envDefault:"data/scenes"`

	// CacheTTL controls the search result cache. Zero disables caching.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// DataConfig locates the study inputs and the run database.
type DataConfig struct {
	DatabasePath    string `env:"DATABASE_PATH" envDefault:"data/runs.db"`
	ModelPath       string `env:"MODEL_PATH" envDefault:"data/model.json"`
	ElevationTIF    string `env:"ELEVATION_TIF" envDefault:"data/elevation.tif"`
	TrainingGeoJSON string `env:"TRAINING_GEOJSON" envDefault:"data/training.geojson"`
	OutputDir       string `env:"OUTPUT_DIR" envDefault:"data/out"`
}

// PipelineConfig contains compositing and classification parameters.
type PipelineConfig struct {
	// CellSize is the grid cell size in metres, used for area tabulation.
	CellSize float64 `env:"CELL_SIZE" envDefault:"30"`

	// MaxCloudCover filters catalog searches, in percent.
	MaxCloudCover float64 `env:"MAX_CLOUD_COVER" envDefault:"30"`

	// MaxScenes caps how many scenes feed one composite.
	MaxScenes int `env:"MAX_SCENES" envDefault:"24"`

	// Neighbours is the classifier's k.
	Neighbours int `env:"NEIGHBOURS" envDefault:"5"`

	// TestFraction is the held-out share during training evaluation.
	TestFraction float64 `env:"TEST_FRACTION" envDefault:"0.2"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.Catalog.Source != "stac" && c.Catalog.Source != "dir" {
		return fmt.Errorf("catalog source must be 'stac' or 'dir', got %q", c.Catalog.Source)
	}

	if c.Catalog.Source == "stac" && c.Catalog.STACURL == "" {
		return fmt.Errorf("STAC URL is required for the stac source")
	}

	if c.Catalog.Source == "dir" && c.Catalog.SceneDir == "" {
		return fmt.Errorf("scene directory is required for the dir source")
	}

	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog timeout must be positive, got %s", c.Catalog.Timeout)
	}

	if c.Data.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Pipeline.CellSize <= 0 {
		return fmt.Errorf("cell size must be positive, got %f", c.Pipeline.CellSize)
	}

	if c.Pipeline.MaxCloudCover < 0 || c.Pipeline.MaxCloudCover > 100 {
		return fmt.Errorf("max cloud cover must be between 0 and 100, got %f", c.Pipeline.MaxCloudCover)
	}

	if c.Pipeline.MaxScenes < 1 {
		return fmt.Errorf("max scenes must be at least 1, got %d", c.Pipeline.MaxScenes)
	}

	if c.Pipeline.Neighbours < 1 {
		return fmt.Errorf("neighbours must be at least 1, got %d", c.Pipeline.Neighbours)
	}

	if c.Pipeline.TestFraction < 0 || c.Pipeline.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in [0,1), got %f", c.Pipeline.TestFraction)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
