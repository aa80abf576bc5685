// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for safenode.
//
// Configuration is TOML with sensible defaults and validation.
// File location: ~/.safenode/config.toml (overridable for tests).
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/safenode/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete safenode configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// AutoLock controls the idle re-lock behavior.
	AutoLock AutoLockConfig `toml:"auto_lock" json:"auto_lock"`

	// Lockout controls failed-unlock throttling.
	Lockout LockoutConfig `toml:"lockout" json:"lockout"`

	// Audit controls the session event trail.
	Audit AuditConfig `toml:"audit" json:"audit"`

	// Keyring names the OS credential-vault service entries are filed under.
	Keyring KeyringConfig `toml:"keyring" json:"keyring"`

	// Vault locates the sealed vault file.
	Vault VaultConfig `toml:"vault" json:"vault"`
}

// AutoLockConfig contains auto-lock settings.
type AutoLockConfig struct {
	// TimeoutSecs is the idle timeout in seconds before re-lock.
	// 0 means unset (the default applies); -1 disables auto-lock.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// PollIntervalSecs is the monitor polling cadence in seconds.
	PollIntervalSecs int `toml:"poll_interval_secs" json:"poll_interval_secs"`
}

// Timeout returns the idle timeout. The second return is false when
// auto-lock is disabled.
func (c AutoLockConfig) Timeout() (time.Duration, bool) {
	if c.TimeoutSecs < 0 {
		return 0, false
	}
	return time.Duration(c.TimeoutSecs) * time.Second, true
}

// PollInterval returns the monitor cadence.
func (c AutoLockConfig) PollInterval() time.Duration {
	if c.PollIntervalSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// LockoutConfig contains failed-unlock lockout settings.
type LockoutConfig struct {
	// Enabled turns the lockout mechanism on. Failed attempts are still
	// audited when disabled.
	Enabled bool `toml:"enabled" json:"enabled"`
	// MaxAttempts is the number of consecutive failures before lockout.
	MaxAttempts int `toml:"max_attempts" json:"max_attempts"`
	// DurationMinutes is how long unlock stays refused after lockout.
	DurationMinutes int `toml:"duration_minutes" json:"duration_minutes"`
}

// Duration returns the lockout window.
func (c LockoutConfig) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// AuditConfig contains audit trail settings.
type AuditConfig struct {
	// Enabled turns audit logging on.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the audit log file (empty = ~/.safenode/audit.log).
	Path string `toml:"path" json:"path"`
}

// KeyringConfig contains OS credential-vault settings.
type KeyringConfig struct {
	// Service is the service name secrets are filed under.
	Service string `toml:"service" json:"service"`
}

// VaultConfig contains sealed-vault settings.
type VaultConfig struct {
	// Path is the sealed vault file (empty = ~/.safenode/vault.bin).
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// CurrentVersion is written into new config files.
const CurrentVersion = "1.0"

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = CurrentVersion
	}
	if c.AutoLock.TimeoutSecs == 0 {
		c.AutoLock.TimeoutSecs = 300 // 5 minutes
	}
	if c.AutoLock.PollIntervalSecs == 0 {
		c.AutoLock.PollIntervalSecs = 5
	}
	if c.Lockout.MaxAttempts == 0 {
		c.Lockout.MaxAttempts = 3
	}
	if c.Lockout.DurationMinutes == 0 {
		c.Lockout.DurationMinutes = 15
	}
	if c.Keyring.Service == "" {
		c.Keyring.Service = "safenode"
	}
	if dir, err := ConfigDir(); err == nil {
		if c.Audit.Path == "" {
			c.Audit.Path = filepath.Join(dir, "audit.log")
		}
		if c.Vault.Path == "" {
			c.Vault.Path = filepath.Join(dir, "vault.bin")
		}
	}
}

// DefaultConfig returns a fully-populated default configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Lockout: LockoutConfig{Enabled: true},
		Audit:   AuditConfig{Enabled: true},
	}
	cfg.SetDefaults()
	return cfg
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.AutoLock.TimeoutSecs < -1 {
		return fmt.Errorf("auto_lock.timeout_secs must be >= -1, got %d", c.AutoLock.TimeoutSecs)
	}
	if c.AutoLock.PollIntervalSecs < 1 {
		return fmt.Errorf("auto_lock.poll_interval_secs must be >= 1, got %d", c.AutoLock.PollIntervalSecs)
	}
	if c.Lockout.MaxAttempts < 1 {
		return fmt.Errorf("lockout.max_attempts must be >= 1, got %d", c.Lockout.MaxAttempts)
	}
	if c.Lockout.DurationMinutes < 1 {
		return fmt.Errorf("lockout.duration_minutes must be >= 1, got %d", c.Lockout.DurationMinutes)
	}
	if c.Keyring.Service == "" {
		return fmt.Errorf("keyring.service must not be empty")
	}
	return nil
}

// =============================================================================
// LOADING AND SAVING
// =============================================================================

// ConfigDir returns the safenode configuration directory (~/.safenode).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".safenode"), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config from the default location, applying defaults
// when the file is absent.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config from an explicit path. A missing file
// yields the defaults, not an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{
		Lockout: LockoutConfig{Enabled: true},
		Audit:   AuditConfig{Enabled: true},
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the default location atomically.
func Save(cfg *Config) error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the config to an explicit path atomically with
// restricted permissions.
func SaveToPath(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
