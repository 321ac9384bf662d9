package config

import "time"

// Fallbacks applied when the file and the environment leave a field unset.
const (
	// Proxy
	DefaultListenAddress     = ":80"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMaxHeaderBytes    = 1048576 // 1MB

	// Discovery
	DefaultBackendPort  = 7777
	DefaultProbeTimeout = 2 * time.Second
	DefaultCacheTTL     = 15 * time.Second

	// Routes
	DefaultRoutesWatch    = true
	DefaultRoutesDebounce = 500 * time.Millisecond

	// Audit
	DefaultAuditEnabled       = true
	DefaultAuditBackend       = "memory"
	DefaultAuditAsyncBuffer   = 1000
	DefaultAuditWriteTimeout  = 5 * time.Second
	DefaultAuditRetentionDays = 7
	DefaultAuditPruneSchedule = "0 3 * * *"
	DefaultAuditMaxRecords    = int64(0)

	// Telemetry
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"

	// Tracing
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingService     = "sextant"
	DefaultOTLPInsecure       = true
	DefaultOTLPTimeout        = 10 * time.Second
)

// ApplyDefaults fills every zero-valued field with its fallback. Applying it
// twice to the same Config changes nothing.
//
// Boolean fields whose default is true (audit.enabled, routes.watch,
// metrics.enabled) are not touched here: a false value is indistinguishable
// from an unset one. LoadConfig seeds those before unmarshalling so an
// explicit false in the file survives.
func ApplyDefaults(cfg *Config) {
	// Proxy
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadHeaderTimeout == 0 {
		cfg.Proxy.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Discovery
	if cfg.Discovery.BackendPort == 0 {
		cfg.Discovery.BackendPort = DefaultBackendPort
	}
	if cfg.Discovery.ProbeTimeout == 0 {
		cfg.Discovery.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Discovery.CacheTTL == 0 {
		cfg.Discovery.CacheTTL = DefaultCacheTTL
	}

	// Routes
	if cfg.Routes.DebounceDelay == 0 {
		cfg.Routes.DebounceDelay = DefaultRoutesDebounce
	}

	// Audit
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.AsyncBuffer == 0 {
		cfg.Audit.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = DefaultAuditPruneSchedule
	}

	// Telemetry
	if cfg.Telemetry.LogLevel == "" {
		cfg.Telemetry.LogLevel = DefaultLogLevel
	}
	if cfg.Telemetry.LogFormat == "" {
		cfg.Telemetry.LogFormat = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	// Tracing
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}

// applyBoolDefaults seeds the boolean fields whose default is true.
// Runs before unmarshalling a config file, never after, so an explicit
// false in the file is not flipped back.
func applyBoolDefaults(cfg *Config) {
	cfg.Routes.Watch = DefaultRoutesWatch
	cfg.Audit.Enabled = DefaultAuditEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
}
