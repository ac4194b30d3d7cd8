package config

import (
	"fmt"
	"os"

	"market-pipeline/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// Defaults applied by Validate when a field is unset.
const (
	DefaultHistoryCapacity   = 1000
	DefaultVolumeBarCapacity = 60
	DefaultVolumeBarWidthMs  = 60_000
	DefaultVolumeAvgWindow   = 20
	DefaultVolumeAlertFactor = 2.0
	DefaultReconnectBaseMs   = 5_000
	DefaultReconnectMaxMs    = 30_000
	DefaultMaxReconnects     = 10
)

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation and fills defaults.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Feed
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url cannot be empty")
	}
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	if c.Feed.ReconnectBaseMs < 0 || c.Feed.ReconnectMaxMs < 0 || c.Feed.MaxReconnectRetries < 0 {
		return fmt.Errorf("reconnect settings cannot be negative")
	}
	if c.Feed.ReconnectBaseMs == 0 {
		c.Feed.ReconnectBaseMs = DefaultReconnectBaseMs
	}
	if c.Feed.ReconnectMaxMs == 0 {
		c.Feed.ReconnectMaxMs = DefaultReconnectMaxMs
	}
	if c.Feed.MaxReconnectRetries == 0 {
		c.Feed.MaxReconnectRetries = DefaultMaxReconnects
	}
	if len(c.Feed.Streams) == 0 {
		c.Feed.Streams = []string{"trades"}
	}

	// Pipeline
	if c.Pipeline.HistoryCapacity < 0 || c.Pipeline.VolumeBarCapacity < 0 {
		return fmt.Errorf("pipeline capacities cannot be negative")
	}
	if c.Pipeline.HistoryCapacity == 0 {
		c.Pipeline.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.Pipeline.VolumeBarCapacity == 0 {
		c.Pipeline.VolumeBarCapacity = DefaultVolumeBarCapacity
	}
	if c.Pipeline.VolumeBarWidthMs == 0 {
		c.Pipeline.VolumeBarWidthMs = DefaultVolumeBarWidthMs
	}
	if c.Pipeline.VolumeAvgWindow == 0 {
		c.Pipeline.VolumeAvgWindow = DefaultVolumeAvgWindow
	}
	if c.Pipeline.VolumeAlertFactor == 0 {
		c.Pipeline.VolumeAlertFactor = DefaultVolumeAlertFactor
	}
	if len(c.Pipeline.MomentumWindows) == 0 {
		c.Pipeline.MomentumWindows = []int{5, 15}
	}
	if c.Pipeline.CalendarMIC == "" {
		c.Pipeline.CalendarMIC = "xnys"
	}

	// Storage
	if c.Storage.Enabled {
		if c.Storage.DBType == "" {
			return fmt.Errorf("database type cannot be empty")
		}
		if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
		if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
		if c.Storage.RetentionDays <= 0 {
			c.Storage.RetentionDays = 7
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
