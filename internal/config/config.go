// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Portal  PortalConfig  `mapstructure:"portal" yaml:"portal"`
	Scrape  ScrapeConfig  `mapstructure:"scrape" yaml:"scrape"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser process.
type BrowserConfig struct {
	Headless  bool     `mapstructure:"headless" yaml:"headless"`
	ExecPath  string   `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent string   `mapstructure:"user_agent" yaml:"user_agent"`
	Args      []string `mapstructure:"args" yaml:"args"`
}

// PortalConfig tunes navigation against the e-LHKPN portal. Every wait the
// pipeline performs is bounded by one of these timeouts.
type PortalConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ResultsTimeout    time.Duration `mapstructure:"results_timeout" yaml:"results_timeout"`
	DetailTimeout     time.Duration `mapstructure:"detail_timeout" yaml:"detail_timeout"`
	ModalCloseTimeout time.Duration `mapstructure:"modal_close_timeout" yaml:"modal_close_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	// InteractionRate caps page turns and modal opens, in actions per second.
	InteractionRate float64 `mapstructure:"interaction_rate" yaml:"interaction_rate"`
}

// SearchPage returns the announcement search URL derived from the base URL.
func (p PortalConfig) SearchPage() string {
	return strings.TrimRight(p.BaseURL, "/") + "/portal/user/login#announ"
}

// ScrapeConfig holds settings for a single scrape run.
type ScrapeConfig struct {
	// MaxResults caps the number of records collected. Zero means unbounded.
	MaxResults int64 `mapstructure:"max_results" yaml:"max_results"`
	// RowRetries is how many extra attempts a failed detail-view open gets
	// before the row is skipped.
	RowRetries int `mapstructure:"row_retries" yaml:"row_retries"`
}

// ExportConfig selects the output serialization.
type ExportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "lhkpn-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_agent", "")

	// -- Portal --
	v.SetDefault("portal.base_url", "https://elhkpn.kpk.go.id")
	v.SetDefault("portal.navigation_timeout", "60s")
	v.SetDefault("portal.results_timeout", "30s")
	v.SetDefault("portal.detail_timeout", "15s")
	v.SetDefault("portal.modal_close_timeout", "5s")
	v.SetDefault("portal.post_load_wait", "2s")
	v.SetDefault("portal.interaction_rate", 0.5)

	// -- Scrape --
	v.SetDefault("scrape.max_results", 10)
	v.SetDefault("scrape.row_retries", 1)

	// -- Export --
	v.SetDefault("export.format", "json")
	v.SetDefault("export.output", "lhkpn_results.json")
}

// NewFromViper creates a validated configuration instance from a viper object.
func NewFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is a required configuration field")
	}
	if c.Portal.NavigationTimeout <= 0 || c.Portal.ResultsTimeout <= 0 || c.Portal.DetailTimeout <= 0 {
		return fmt.Errorf("portal timeouts must be positive durations")
	}
	if c.Portal.InteractionRate <= 0 {
		return fmt.Errorf("portal.interaction_rate must be a positive number of actions per second")
	}
	if c.Scrape.MaxResults < 0 {
		return fmt.Errorf("scrape.max_results must be zero (unbounded) or positive")
	}
	if c.Scrape.RowRetries < 0 {
		return fmt.Errorf("scrape.row_retries must not be negative")
	}
	switch c.Export.Format {
	case "json", "csv":
	default:
		return fmt.Errorf("export.format must be 'json' or 'csv', got %q", c.Export.Format)
	}
	if c.Export.Output == "" {
		return fmt.Errorf("export.output is a required configuration field")
	}
	return nil
}
