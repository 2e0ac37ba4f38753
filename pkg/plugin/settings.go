package plugin

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sabio/subsurface-console/pkg/view"
)

// Setting defaults used when jsonData leaves a key out
const (
	DefaultPageTTLMinutes     = 30
	DefaultMaxPages           = 200
	DefaultAutoRefreshSeconds = 1
)

// PluginSettings holds the plugin configuration. The backend address is
// fixed at build time and is not a setting.
type PluginSettings struct {
	PageTTLMinutes     int `json:"page_ttl_minutes"`
	MaxPages           int `json:"max_pages"`
	AutoRefreshSeconds int `json:"auto_refresh_seconds"`
}

// LoadSettings loads plugin settings from JSON
func LoadSettings(jsonData []byte) (*PluginSettings, error) {
	settings := &PluginSettings{
		PageTTLMinutes:     DefaultPageTTLMinutes,
		MaxPages:           DefaultMaxPages,
		AutoRefreshSeconds: DefaultAutoRefreshSeconds,
	}

	if len(jsonData) == 0 {
		return settings, nil
	}

	if err := json.Unmarshal(jsonData, settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return settings, nil
}

// Validate checks that the settings are usable
func (s *PluginSettings) Validate() error {
	if s.PageTTLMinutes <= 0 {
		return fmt.Errorf("page_ttl_minutes must be positive")
	}

	if s.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be positive")
	}

	if s.AutoRefreshSeconds < 0 || s.AutoRefreshSeconds > 60 {
		return fmt.Errorf("auto_refresh_seconds must be between 0 and 60")
	}

	return nil
}

// RegistryConfig returns the page retention limits
func (s *PluginSettings) RegistryConfig() view.RegistryConfig {
	return view.RegistryConfig{
		IdleTTL:  time.Duration(s.PageTTLMinutes) * time.Minute,
		MaxPages: s.MaxPages,
	}
}
