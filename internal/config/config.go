package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config holds application configuration
type Config struct {
	BackendURL            string       `json:"backend_url"`
	LanguageCode          string       `json:"language_code"` // BCP-47 code sent to text-to-speech, e.g. "en-IN"
	Hotkey                HotkeyConfig `json:"hotkey"`
	Mode                  string       `json:"mode"` // "assistant" or "dictation"
	AudioDeviceID         int          `json:"audio_device_id"`
	UILanguage            string       `json:"ui_language"` // "en" or "hi"
	MaxRecordSeconds      int          `json:"max_record_seconds"`
	PlaybackSampleRate    int          `json:"playback_sample_rate"`
	LevelRefreshMs        int          `json:"level_refresh_ms"`
	StatusAddr            string       `json:"status_addr"`
	Notifications         bool         `json:"notifications"`
	RequestTimeoutSeconds int          `json:"request_timeout_seconds"`
	PasteSplitSize        int          `json:"paste_split_size"` // characters
	LogLevel              string       `json:"log_level"`
	mu                    sync.RWMutex
}

// HotkeyConfig holds hotkey configuration
type HotkeyConfig struct {
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	Super bool   `json:"super"`
	Key   string `json:"key"` // e.g., "Space"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BackendURL:   "http://127.0.0.1:8000",
		LanguageCode: "en-IN",
		Hotkey: HotkeyConfig{
			Ctrl: true,
			Alt:  true,
			Key:  "Space",
		},
		Mode:                  "assistant",
		AudioDeviceID:         -1, // -1 means use system default device
		UILanguage:            "en",
		MaxRecordSeconds:      10,
		PlaybackSampleRate:    24000,
		LevelRefreshMs:        33,
		StatusAddr:            "127.0.0.1:18765",
		Notifications:         true,
		RequestTimeoutSeconds: 60,
		PasteSplitSize:        500,
		LogLevel:              "info",
	}
}

// Load loads configuration from the specified path
func Load(path string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// fill gaps left by hand-edited files
	if config.Hotkey.Key == "" {
		config.Hotkey.Key = "Space"
	}
	if config.LanguageCode == "" {
		config.LanguageCode = "en-IN"
	}

	return config, nil
}

// Save saves configuration to the specified path
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "vaani", "config.json")
}

// Update updates configuration fields from a JSON-decoded patch
func (c *Config) Update(updates map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, value := range updates {
		switch key {
		case "backend_url":
			if v, ok := value.(string); ok {
				if _, err := url.ParseRequestURI(v); err != nil {
					return fmt.Errorf("invalid backend_url: %s", v)
				}
				c.BackendURL = v
			}
		case "language_code":
			if v, ok := value.(string); ok && v != "" {
				c.LanguageCode = v
			}
		case "mode":
			if v, ok := value.(string); ok {
				if v != "assistant" && v != "dictation" {
					return fmt.Errorf("invalid mode: %s", v)
				}
				c.Mode = v
			}
		case "audio_device_id":
			if v, ok := value.(float64); ok {
				c.AudioDeviceID = int(v)
			}
		case "ui_language":
			if v, ok := value.(string); ok {
				if v != "en" && v != "hi" {
					return fmt.Errorf("invalid ui_language: %s", v)
				}
				c.UILanguage = v
			}
		case "max_record_seconds":
			if v, ok := value.(float64); ok {
				c.MaxRecordSeconds = int(v)
			}
		case "playback_sample_rate":
			if v, ok := value.(float64); ok {
				c.PlaybackSampleRate = int(v)
			}
		case "level_refresh_ms":
			if v, ok := value.(float64); ok {
				c.LevelRefreshMs = int(v)
			}
		case "notifications":
			if v, ok := value.(bool); ok {
				c.Notifications = v
			}
		case "request_timeout_seconds":
			if v, ok := value.(float64); ok {
				c.RequestTimeoutSeconds = int(v)
			}
		case "paste_split_size":
			if v, ok := value.(float64); ok {
				c.PasteSplitSize = int(v)
			}
		case "log_level":
			if v, ok := value.(string); ok {
				c.LogLevel = v
			}
		case "hotkey":
			if v, ok := value.(map[string]interface{}); ok {
				if ctrl, ok := v["ctrl"].(bool); ok {
					c.Hotkey.Ctrl = ctrl
				}
				if shift, ok := v["shift"].(bool); ok {
					c.Hotkey.Shift = shift
				}
				if alt, ok := v["alt"].(bool); ok {
					c.Hotkey.Alt = alt
				}
				if super, ok := v["super"].(bool); ok {
					c.Hotkey.Super = super
				}
				if key, ok := v["key"].(string); ok {
					c.Hotkey.Key = key
				}
			}
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		BackendURL:            c.BackendURL,
		LanguageCode:          c.LanguageCode,
		Hotkey:                c.Hotkey,
		Mode:                  c.Mode,
		AudioDeviceID:         c.AudioDeviceID,
		UILanguage:            c.UILanguage,
		MaxRecordSeconds:      c.MaxRecordSeconds,
		PlaybackSampleRate:    c.PlaybackSampleRate,
		LevelRefreshMs:        c.LevelRefreshMs,
		StatusAddr:            c.StatusAddr,
		Notifications:         c.Notifications,
		RequestTimeoutSeconds: c.RequestTimeoutSeconds,
		PasteSplitSize:        c.PasteSplitSize,
		LogLevel:              c.LogLevel,
	}
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// Validate validates all configuration fields
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.BackendURL == "" {
		return fmt.Errorf("backend_url cannot be empty")
	}
	if _, err := url.ParseRequestURI(c.BackendURL); err != nil {
		return fmt.Errorf("invalid backend_url: %s", c.BackendURL)
	}

	if c.LanguageCode == "" {
		return fmt.Errorf("language_code cannot be empty")
	}

	if c.Mode != "assistant" && c.Mode != "dictation" {
		return fmt.Errorf("invalid mode: %s (must be 'assistant' or 'dictation')", c.Mode)
	}

	if c.UILanguage != "en" && c.UILanguage != "hi" {
		return fmt.Errorf("invalid ui_language: %s (must be 'en' or 'hi')", c.UILanguage)
	}

	if c.MaxRecordSeconds <= 0 || c.MaxRecordSeconds > 120 {
		return fmt.Errorf("invalid max_record_seconds: %d (must be between 1 and 120)", c.MaxRecordSeconds)
	}

	if c.PlaybackSampleRate < 8000 || c.PlaybackSampleRate > 192000 {
		return fmt.Errorf("invalid playback_sample_rate: %d (must be between 8000 and 192000)", c.PlaybackSampleRate)
	}

	if c.LevelRefreshMs < 10 || c.LevelRefreshMs > 1000 {
		return fmt.Errorf("invalid level_refresh_ms: %d (must be between 10 and 1000)", c.LevelRefreshMs)
	}

	if c.RequestTimeoutSeconds <= 0 || c.RequestTimeoutSeconds > 600 {
		return fmt.Errorf("invalid request_timeout_seconds: %d (must be between 1 and 600)", c.RequestTimeoutSeconds)
	}

	if c.PasteSplitSize <= 0 || c.PasteSplitSize > 10000 {
		return fmt.Errorf("invalid paste_split_size: %d (must be between 1 and 10000 characters)", c.PasteSplitSize)
	}

	return nil
}
