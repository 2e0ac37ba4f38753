// Package config loads the standalone console configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sabio/subsurface-console/pkg/view"
)

// EnvPrefix prefixes environment overrides, e.g. CONSOLE_ADDR
const EnvPrefix = "CONSOLE"

// Config is the standalone console configuration
type Config struct {
	Addr                   string  `mapstructure:"addr" yaml:"addr"`
	PageTTLMinutes         int     `mapstructure:"page_ttl_minutes" yaml:"page_ttl_minutes"`
	MaxPages               int     `mapstructure:"max_pages" yaml:"max_pages"`
	CleanupIntervalSeconds int     `mapstructure:"cleanup_interval_seconds" yaml:"cleanup_interval_seconds"`
	AutoRefreshSeconds     int     `mapstructure:"auto_refresh_seconds" yaml:"auto_refresh_seconds"`
	RequestLogging         bool    `mapstructure:"request_logging" yaml:"request_logging"`
	OpenRateRPS            float64 `mapstructure:"open_rate_rps" yaml:"open_rate_rps"`
	OpenRateBurst          int     `mapstructure:"open_rate_burst" yaml:"open_rate_burst"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		Addr:                   ":8080",
		PageTTLMinutes:         30,
		MaxPages:               200,
		CleanupIntervalSeconds: 60,
		AutoRefreshSeconds:     1,
		RequestLogging:         true,
		OpenRateRPS:            5,
		OpenRateBurst:          10,
	}
}

// DefaultConfigPath returns ~/.subsurface-console/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".subsurface-console", "config.yaml"), nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.PageTTLMinutes <= 0 {
		return fmt.Errorf("page_ttl_minutes must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be positive")
	}
	if c.CleanupIntervalSeconds <= 0 {
		return fmt.Errorf("cleanup_interval_seconds must be positive")
	}
	if c.AutoRefreshSeconds < 0 || c.AutoRefreshSeconds > 60 {
		return fmt.Errorf("auto_refresh_seconds must be between 0 and 60")
	}
	if c.OpenRateRPS < 0 || c.OpenRateBurst < 0 {
		return fmt.Errorf("open_rate_rps and open_rate_burst must not be negative")
	}
	return nil
}

// RegistryConfig returns the page retention limits
func (c Config) RegistryConfig() view.RegistryConfig {
	return view.RegistryConfig{
		IdleTTL:  time.Duration(c.PageTTLMinutes) * time.Minute,
		MaxPages: c.MaxPages,
	}
}

// CleanupInterval returns how often idle pages are expired
func (c Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}
