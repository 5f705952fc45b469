package config

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// globalConfig is the process configuration.
	globalConfig *Config

	// globalPath is the file Initialize loaded, reused by Reload.
	globalPath string

	configMutex sync.RWMutex
	initOnce    sync.Once
)

// Initialize loads the configuration at path (defaults only when path is
// empty), applies environment overrides and installs it as the process
// configuration. Only the first call has any effect.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		globalPath = path
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the process configuration, or nil before Initialize.
//
// For testing, prefer passing explicit Config instances over the global.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the process configuration. Intended for tests.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// Reload re-reads the file Initialize loaded, with environment overrides,
// and installs the result. If loading or validation fails the current
// configuration stays in place.
//
// Components built from the previous configuration keep it; the caller
// applies whatever can change at runtime (log level, catalog contents).
func Reload() (*Config, error) {
	configMutex.RLock()
	initialized := globalConfig != nil
	path := globalPath
	configMutex.RUnlock()

	if !initialized {
		return nil, errors.New("configuration not initialized: call Initialize first")
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	configMutex.Unlock()

	return cfg, nil
}
