package config

import (
	"fmt"
	"sync"
)

// The process-wide configuration. Commands call Initialize once at startup
// and read through GetConfig afterwards; components receive the pieces they
// need explicitly and never reach for the global themselves.
var (
	mu      sync.RWMutex
	current *Config
	once    sync.Once
)

// Initialize loads the configuration (file, SEXTANT_* environment, defaults,
// validation) and installs it as the process-wide instance. An empty path
// skips the file and builds the configuration from environment and defaults
// alone.
//
// Only the first call does any work; later calls return nil without
// reloading. Use ReloadConfig to replace a loaded configuration.
func Initialize(path string) error {
	var err error
	once.Do(func() {
		var cfg *Config
		cfg, err = LoadConfigWithEnvOverrides(path)
		if err != nil {
			return
		}
		mu.Lock()
		current = cfg
		mu.Unlock()
	})
	return err
}

// GetConfig returns the process-wide configuration, or nil before a
// successful Initialize.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// MustGetConfig is GetConfig for paths that run strictly after startup;
// it panics when no configuration is installed.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("config.MustGetConfig called before Initialize")
	}
	return cfg
}

// SetConfig replaces the process-wide instance directly. Tests use this to
// install fixtures; production code goes through Initialize.
func SetConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// ReloadConfig loads the configuration from path and swaps it in. A load or
// validation failure leaves the current configuration in place.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("reload configuration: %w", err)
	}
	mu.Lock()
	current = cfg
	mu.Unlock()
	return nil
}
