package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	Storage  MStorageConfig  `yaml:"storage"`
	Feed     MFeedConfig     `yaml:"feed"`
	Pipeline MPipelineConfig `yaml:"pipeline"`
}

type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MFeedConfig struct {
	URL                 string   `yaml:"url"`
	APIKey              string   `yaml:"api_key"` // usually injected from env
	Symbols             []string `yaml:"symbols"`
	Streams             []string `yaml:"streams"` // trades, quotes, bars, updates
	ReconnectBaseMs     int      `yaml:"reconnect_base_ms"`
	ReconnectMaxMs      int      `yaml:"reconnect_max_ms"`
	MaxReconnectRetries int      `yaml:"max_reconnect_retries"`
}

type MPipelineConfig struct {
	HistoryCapacity   int     `yaml:"history_capacity"`
	VolumeBarCapacity int     `yaml:"volume_bar_capacity"`
	VolumeBarWidthMs  int64   `yaml:"volume_bar_width_ms"`
	VolumeAvgWindow   int     `yaml:"volume_avg_window"` // bars
	VolumeAlertFactor float64 `yaml:"volume_alert_factor"`
	MomentumWindows   []int   `yaml:"momentum_windows"` // minutes
	ReferenceDataPath string  `yaml:"reference_data_path"`
	PreviousClosePath string  `yaml:"previous_close_path"`
	CalendarMIC       string  `yaml:"calendar_mic"`
}
