// Package config provides configuration management for VPN Connect.
// It handles loading, saving, and managing application settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/vpn-connect/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// LogToFile enables the rotating log file.
	LogToFile bool `yaml:"log_to_file"`
	// ThrottleWindow is the minimum interval between accepted connect presses.
	ThrottleWindow time.Duration `yaml:"throttle_window"`
	// AccountExpiryWarning is how early the expiring-soon notification appears.
	AccountExpiryWarning time.Duration `yaml:"account_expiry_warning"`
	// DesktopNotifications mirrors the notification slot to the desktop.
	DesktopNotifications bool `yaml:"desktop_notifications"`
	// WireguardMTU is applied on startup. Zero keeps the daemon default.
	WireguardMTU int `yaml:"wireguard_mtu"`
	// LoopbackStepDelay paces the simulated daemon.
	LoopbackStepDelay time.Duration `yaml:"loopback_step_delay"`
	// BlockWhenDisconnected keeps traffic blocked after a disconnect.
	BlockWhenDisconnected bool `yaml:"block_when_disconnected"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:              "info",
		LogToFile:             false,
		ThrottleWindow:        common.ThrottleWindow,
		AccountExpiryWarning:  common.AccountExpiryWarning,
		DesktopNotifications:  true,
		WireguardMTU:          0,
		LoopbackStepDelay:     common.LoopbackStepDelay,
		BlockWhenDisconnected: false,
	}
}

// DefaultPath returns ~/.config/vpn-connect/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: error getting home directory: %v", common.ErrConfigLoad, err)
	}
	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path.
// If the file doesn't exist, it creates one with default values.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cfg.SaveTo(path); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: error opening configuration: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	// Start from defaults so missing keys keep their default value
	cfg := DefaultConfig()
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: error parsing configuration: %v", common.ErrConfigLoad, err)
	}

	cfg.validate()
	return cfg, nil
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// validate repairs invalid values to their defaults.
func (c *Config) validate() {
	def := DefaultConfig()

	if !validLevels[c.LogLevel] {
		common.LogWarn("Invalid log_level %q, using %q", c.LogLevel, def.LogLevel)
		c.LogLevel = def.LogLevel
	}
	if c.ThrottleWindow <= 0 {
		c.ThrottleWindow = def.ThrottleWindow
	}
	if c.AccountExpiryWarning <= 0 {
		c.AccountExpiryWarning = def.AccountExpiryWarning
	}
	if c.LoopbackStepDelay < 0 {
		c.LoopbackStepDelay = def.LoopbackStepDelay
	}
	if c.WireguardMTU != 0 && (c.WireguardMTU < common.MinWireguardMTU || c.WireguardMTU > common.MaxWireguardMTU) {
		common.LogWarn("Invalid wireguard_mtu %d, using daemon default", c.WireguardMTU)
		c.WireguardMTU = def.WireguardMTU
	}
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}
	return c.SaveTo(path)
}

// SaveTo saves the configuration to path.
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: error creating config directory: %v", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: error serializing configuration: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: error saving configuration: %v", common.ErrConfigSave, err)
	}

	return nil
}
