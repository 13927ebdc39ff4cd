// Package setup handles first-run detection. The marker file lives
// next to the config so wiping the config directory resets both.
package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vaani-app/vaani/internal/config"
)

// markerName is the file whose presence means the welcome flow ran.
const markerName = ".setup_completed"

// Manager tracks first-run state next to the config file.
type Manager struct {
	configDir  string
	configPath string
	markerFile string
	mu         sync.RWMutex
}

// New creates a setup manager rooted at the directory holding
// configPath. The directory is created if missing.
func New(configPath string) (*Manager, error) {
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return &Manager{
		configDir:  configDir,
		configPath: configPath,
		markerFile: filepath.Join(configDir, markerName),
	}, nil
}

// EnsureDefaults loads the configuration, writing the defaults to disk
// first when no config file exists yet. An existing file is left alone.
func (m *Manager) EnsureDefaults() (*config.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, statErr := os.Stat(m.configPath)
	firstRun := os.IsNotExist(statErr)

	cfg, err := config.Load(m.configPath)
	if err != nil {
		return nil, err
	}

	if firstRun {
		if err := cfg.Save(m.configPath); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	return cfg, nil
}

// IsFirstRun returns true while no config file exists
func (m *Manager) IsFirstRun() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configPath)
	return os.IsNotExist(err)
}

// IsCompleted returns whether the welcome flow has run before
func (m *Manager) IsCompleted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.markerFile)
	return !os.IsNotExist(err)
}

// MarkCompleted records that the welcome flow has run
func (m *Manager) MarkCompleted() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.Create(m.markerFile)
	if err != nil {
		return fmt.Errorf("failed to create setup marker: %w", err)
	}
	file.Close()

	return nil
}

// NeedsWelcome returns true until both the config file and the
// completion marker exist.
func (m *Manager) NeedsWelcome() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		return true
	}

	_, err := os.Stat(m.markerFile)
	return os.IsNotExist(err)
}

// Reset removes the completion marker so the welcome flow runs again
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.markerFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove setup marker: %w", err)
	}

	return nil
}

// ConfigDir returns the configuration directory
func (m *Manager) ConfigDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.configDir
}

// ConfigPath returns the configuration file path
func (m *Manager) ConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.configPath
}
