// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for council-tui.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. File location: ~/.council/config.toml. The same directory
// holds the cached auth token.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete council-tui configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Chat   ChatConfig   `toml:"chat"`
	UI     UIConfig     `toml:"ui"`
	Voice  VoiceConfig  `toml:"voice"`
}

// ServerConfig describes how to reach the council backend.
type ServerConfig struct {
	// URL is the backend base URL (scheme + host + optional port, no path).
	URL string `toml:"url"`
	// TimeoutSecs bounds non-streaming requests. Streams are never timed out.
	TimeoutSecs int `toml:"timeout_secs"`
	// MaxRetries caps retry attempts for idempotent requests.
	MaxRetries int `toml:"max_retries"`
}

// ChatConfig holds per-turn defaults.
type ChatConfig struct {
	// Tier selects the model roster: "pro", "budget", or "uncensored".
	Tier string `toml:"tier"`
	// DanMode is the persona injection id ("classic", "historian", ...).
	// Empty means no persona.
	DanMode string `toml:"dan_mode"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	// GlamourStyle is the markdown rendering theme ("dark", "light",
	// "notty", or "auto").
	GlamourStyle string `toml:"glamour_style"`
	// SidebarWidth is the conversation list width in columns.
	SidebarWidth int `toml:"sidebar_width"`
	// ShowStages expands the per-model stage detail by default.
	ShowStages bool `toml:"show_stages"`
	// MouseEnabled turns on terminal mouse support.
	MouseEnabled bool `toml:"mouse_enabled"`
}

// VoiceConfig holds audio capture preferences.
type VoiceConfig struct {
	// Enabled exposes the push-to-talk binding. Capture still fails at
	// record time if no tool is installed.
	Enabled bool `toml:"enabled"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         api.DefaultBaseURL,
			TimeoutSecs: 60,
			MaxRetries:  api.DefaultMaxRetries,
		},
		Chat: ChatConfig{
			Tier:    api.TierPro,
			DanMode: "",
		},
		UI: UIConfig{
			GlamourStyle: "auto",
			SidebarWidth: 32,
			ShowStages:   false,
			MouseEnabled: true,
		},
		Voice: VoiceConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the council-tui configuration directory path. The
// COUNCIL_CONFIG_DIR environment variable overrides the default ~/.council.
func ConfigDir() (string, error) {
	if dir := os.Getenv("COUNCIL_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".council"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists with owner-only
// permissions; it also holds the auth token.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the config file atomically.
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetDefaults fills zero values with defaults. Called after decoding so a
// partial config file still yields a complete configuration.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Server.URL == "" {
		c.Server.URL = def.Server.URL
	}
	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if c.Server.MaxRetries < 0 {
		c.Server.MaxRetries = def.Server.MaxRetries
	}
	if c.Chat.Tier == "" {
		c.Chat.Tier = def.Chat.Tier
	}
	if c.UI.GlamourStyle == "" {
		c.UI.GlamourStyle = def.UI.GlamourStyle
	}
	if c.UI.SidebarWidth <= 0 {
		c.UI.SidebarWidth = def.UI.SidebarWidth
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates all validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.url",
				Message: fmt.Sprintf("must be an absolute URL, got %q", c.Server.URL),
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{
				Field:   "server.url",
				Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
			})
		}
	}

	if c.Chat.DanMode != "" && !api.ValidDanModes[c.Chat.DanMode] {
		errs = append(errs, ValidationError{
			Field:   "chat.dan_mode",
			Message: fmt.Sprintf("unknown persona %q", c.Chat.DanMode),
		})
	}

	if c.Chat.Tier != "" && !api.ValidTiers[c.Chat.Tier] {
		errs = append(errs, ValidationError{
			Field: "chat.tier",
			Message: fmt.Sprintf("must be one of %s, %s, %s; got %q",
				api.TierPro, api.TierBudget, api.TierUncensored, c.Chat.Tier),
		})
	}

	switch c.UI.GlamourStyle {
	case "", "auto", "dark", "light", "notty", "dracula":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.glamour_style",
			Message: fmt.Sprintf("unknown style %q", c.UI.GlamourStyle),
		})
	}

	if c.UI.SidebarWidth != 0 && (c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 80) {
		errs = append(errs, ValidationError{
			Field:   "ui.sidebar_width",
			Message: fmt.Sprintf("must be between 16 and 80, got %d", c.UI.SidebarWidth),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - COUNCIL_API_URL: overrides server.url
//   - COUNCIL_TIER: overrides chat.tier
//   - COUNCIL_DAN: overrides chat.dan_mode ("off" or "0" clears it)
//   - COUNCIL_NO_MOUSE: set to "1" or "true" to disable mouse support
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("COUNCIL_API_URL"); u != "" {
		c.Server.URL = strings.TrimRight(u, "/")
	}
	if tier := os.Getenv("COUNCIL_TIER"); tier != "" {
		c.Chat.Tier = strings.ToLower(tier)
	}
	if dan := os.Getenv("COUNCIL_DAN"); dan != "" {
		if strings.EqualFold(dan, "off") || dan == "0" {
			c.Chat.DanMode = ""
		} else {
			c.Chat.DanMode = strings.ToLower(dan)
		}
	}
	if noMouse := os.Getenv("COUNCIL_NO_MOUSE"); noMouse != "" {
		c.UI.MouseEnabled = !envTrue(noMouse)
	}
}

func envTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// =============================================================================
// SINGLETON (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance. Loads on first access;
// a broken config file degrades to defaults with a warning. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	globalConfigOnce.Do(func() {})
}

// ResetGlobalForTesting resets the global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
