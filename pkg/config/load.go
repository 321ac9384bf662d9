package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// loadFile reads and unmarshals the configuration file and applies defaults.
// An empty path skips the file entirely and yields a default configuration;
// the proxy is routinely deployed with nothing but environment variables.
// Validation is left to the callers, which differ on when it runs.
func loadFile(path string) (*Config, error) {
	var cfg Config

	// Seed true-valued bool defaults before unmarshalling so an explicit
	// false in the file is not flipped back afterwards.
	applyBoolDefaults(&cfg)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)

	return &cfg, nil
}

// LoadConfig reads the YAML file at path, fills in defaults, and validates
// the result. The environment is not consulted; callers that want SEXTANT_*
// variables applied on top should use LoadConfigWithEnvOverrides.
func LoadConfig(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides behaves like LoadConfig but lets SEXTANT_*
// environment variables override whatever the file said. A variable maps to
// the field it names, so SEXTANT_BACKEND_HOSTNAME sets
// discovery.backend_hostname and SEXTANT_LISTEN_ADDRESS sets
// proxy.listen_address; a set variable always wins over the file.
//
// Validation runs only after the overrides so an env-only deployment, where
// the backend hostname arrives through SEXTANT_BACKEND_HOSTNAME, passes.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides copies any set SEXTANT_* variables into cfg. Unset
// variables leave the corresponding fields alone.
func applyEnvOverrides(cfg *Config) {
	// Proxy
	if val := os.Getenv("SEXTANT_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("SEXTANT_READ_HEADER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ReadHeaderTimeout = d
		}
	}
	if val := os.Getenv("SEXTANT_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.IdleTimeout = d
		}
	}
	if val := os.Getenv("SEXTANT_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ShutdownTimeout = d
		}
	}

	// Discovery
	if val := os.Getenv("SEXTANT_BACKEND_HOSTNAME"); val != "" {
		cfg.Discovery.BackendHostname = val
	}
	if val := os.Getenv("SEXTANT_BACKEND_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Discovery.BackendPort = i
		}
	}
	if val := os.Getenv("SEXTANT_PROBE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Discovery.ProbeTimeout = d
		}
	}
	if val := os.Getenv("SEXTANT_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Discovery.CacheTTL = d
		}
	}
	if val := os.Getenv("SEXTANT_NAMESERVER"); val != "" {
		cfg.Discovery.Nameserver = val
	}

	// Routes
	if val := os.Getenv("SEXTANT_ROUTES_PATH"); val != "" {
		cfg.Routes.Path = val
	}
	if val := os.Getenv("SEXTANT_ROUTES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Routes.Watch = b
		}
	}

	// Audit
	if val := os.Getenv("SEXTANT_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("SEXTANT_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("SEXTANT_AUDIT_PATH"); val != "" {
		cfg.Audit.Path = val
	}
	if val := os.Getenv("SEXTANT_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.RetentionDays = i
		}
	}
	if val := os.Getenv("SEXTANT_AUDIT_PRUNE_SCHEDULE"); val != "" {
		cfg.Audit.PruneSchedule = val
	}

	// Telemetry
	if val := os.Getenv("SEXTANT_LOG_LEVEL"); val != "" {
		cfg.Telemetry.LogLevel = val
	}
	if val := os.Getenv("SEXTANT_LOG_FORMAT"); val != "" {
		cfg.Telemetry.LogFormat = val
	}
	if val := os.Getenv("SEXTANT_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("SEXTANT_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("SEXTANT_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("SEXTANT_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}
