package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError pins a validation failure to the configuration field that
// caused it.
type FieldError struct {
	// Field is the dotted path of the offending field as it appears in the
	// YAML file, "discovery.backend_hostname" for example.
	Field string

	// Message says what is wrong with the value.
	Message string
}

// Error formats the failure as "field: message".
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError is the error type returned by Validate. It carries every
// failure found in one pass over the configuration, not just the first.
type ValidationError struct {
	// Errors holds the failures in the order the fields were checked.
	Errors []FieldError
}

// Error renders a single failure on one line and several as a bulleted list.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the whole configuration and reports everything wrong with
// it in one ValidationError. A nil return means the configuration is usable.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateDiscovery(&cfg.Discovery)...)
	errs = append(errs, validateRoutes(&cfg.Routes)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProxy checks the HTTP server settings.
func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: "listen address is required (set proxy.listen_address)",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: must be host:port or :port", cfg.ListenAddress),
		})
	}

	if cfg.ReadHeaderTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.read_header_timeout",
			Message: "read header timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

// validateDiscovery validates backend discovery configuration.
func validateDiscovery(cfg *DiscoveryConfig) []FieldError {
	var errs []FieldError

	// The backend hostname has no sensible default. Refusing to start is
	// better than silently resolving nothing.
	if cfg.BackendHostname == "" {
		errs = append(errs, FieldError{
			Field:   "discovery.backend_hostname",
			Message: "backend hostname is required (set discovery.backend_hostname or SEXTANT_BACKEND_HOSTNAME)",
		})
	}

	if cfg.BackendPort < 1 || cfg.BackendPort > 65535 {
		errs = append(errs, FieldError{
			Field:   "discovery.backend_port",
			Message: fmt.Sprintf("backend port %d out of range 1-65535", cfg.BackendPort),
		})
	}

	if cfg.ProbeTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "discovery.probe_timeout",
			Message: "probe timeout must be positive",
		})
	}
	if cfg.CacheTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "discovery.cache_ttl",
			Message: "cache TTL must be positive",
		})
	}

	if cfg.Nameserver != "" {
		if _, _, err := net.SplitHostPort(cfg.Nameserver); err != nil {
			errs = append(errs, FieldError{
				Field:   "discovery.nameserver",
				Message: fmt.Sprintf("invalid nameserver %q: must be host:port", cfg.Nameserver),
			})
		}
	}

	return errs
}

// validateRoutes validates route override configuration.
func validateRoutes(cfg *RoutesConfig) []FieldError {
	var errs []FieldError

	if cfg.DebounceDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "routes.debounce_delay",
			Message: "debounce delay must be positive",
		})
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
		// No further requirements.
	case "sqlite":
		if cfg.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.path",
				Message: "path is required for the sqlite backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unknown backend %q: must be \"memory\" or \"sqlite\"", cfg.Backend),
		})
	}

	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.async_buffer",
			Message: "async buffer must be at least 1",
		})
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention_days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.PruneSchedule, err),
			})
		}
	}

	return errs
}

// validateTelemetry checks logging, metrics, and tracing settings.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.log_level",
			Message: fmt.Sprintf("unknown log level %q: must be debug, info, warn, or error", cfg.LogLevel),
		})
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.log_format",
			Message: fmt.Sprintf("unknown log format %q: must be json or text", cfg.LogFormat),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: fmt.Sprintf("metrics path %q must start with /", cfg.Metrics.Path),
		})
	}

	errs = append(errs, validateTracing(&cfg.Tracing)...)

	return errs
}

// validateTracing validates distributed tracing configuration. Sampler and
// ratio bounds are checked even when tracing is disabled, so a config flaw
// does not hide until someone flips the enabled switch.
func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("unknown sampler %q: must be always, never, or ratio", cfg.Sampler),
		})
	}

	if cfg.SampleRatio < 0.0 || cfg.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: fmt.Sprintf("sample ratio %f out of range 0.0-1.0", cfg.SampleRatio),
		})
	}

	if cfg.Enabled {
		if cfg.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		} else if _, _, err := net.SplitHostPort(cfg.Endpoint); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: fmt.Sprintf("invalid endpoint %q: must be host:port", cfg.Endpoint),
			})
		}
		if cfg.OTLP.Timeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.otlp.timeout",
				Message: "export timeout must be positive",
			})
		}
	}

	return errs
}
