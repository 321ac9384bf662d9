package config

import "time"

// Config is the root of Sextant's YAML configuration. Each field is one
// section of the file; defaults are applied before validation, so a
// minimal config only needs the discovery backend hostname.
type Config struct {
	// Proxy tunes the HTTP listener.
	Proxy ProxyConfig `yaml:"proxy"`

	// Discovery controls how backend pods are found and identified.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Routes configures the static override table consulted ahead of
	// discovery.
	Routes RoutesConfig `yaml:"routes"`

	// Audit controls recording of discovery rounds and their retention.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry groups logging, metrics, and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig tunes the HTTP listener and its lifecycle.
type ProxyConfig struct {
	// ListenAddress is where the proxy accepts connections, as "host:port"
	// or ":port".
	// Default: ":80"
	ListenAddress string `yaml:"listen_address"`

	// ReadHeaderTimeout is the maximum duration for reading request headers.
	// The server carries no overall read or write timeout: tunneled
	// WebSocket sessions stay open far longer than any sane request
	// deadline.
	// Default: 10s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// IdleTimeout is how long a keep-alive connection may sit idle between
	// requests before the server closes it.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Requests still in flight
	// when it expires are cut off.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes caps the size of an inbound request's header block,
	// request line included.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// DiscoveryConfig contains configuration for backend pod discovery.
type DiscoveryConfig struct {
	// BackendHostname is the shared internal hostname that resolves to the
	// addresses of all backend pods. Every discovery round resolves this
	// name and probes each returned address for its pod identity.
	// Example: "pods.internal.example.com"
	// Required. Startup fails if unset.
	BackendHostname string `yaml:"backend_hostname"`

	// BackendPort is the TCP port backend pods serve game traffic and the
	// identity endpoint on.
	// Default: 7777
	BackendPort int `yaml:"backend_port"`

	// ProbeTimeout is the per-candidate deadline for a single identity
	// probe. A candidate that does not answer within this window is treated
	// as unhealthy for that round.
	// Default: 2s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// CacheTTL is how long a resolved pod address stays valid in the
	// discovery cache before a fresh round is required.
	// Default: 15s
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Nameserver optionally points DNS resolution at a specific server
	// instead of the system resolver.
	// Format: "host:port" (e.g., "10.96.0.10:53").
	// Default: "" (system resolver)
	Nameserver string `yaml:"nameserver"`
}

// RoutesConfig contains configuration for the static route override table.
type RoutesConfig struct {
	// Path is the YAML file holding pod-to-address pins. An empty path
	// disables the override table entirely.
	// Default: ""
	Path string `yaml:"path"`

	// Watch controls whether the override file is watched for changes and
	// reloaded without a restart.
	// Default: true
	Watch bool `yaml:"watch"`

	// DebounceDelay is how long to wait after a file change before
	// reloading, so editors that write in several steps trigger one reload.
	// Default: 500ms
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// AuditConfig contains configuration for discovery audit recording.
type AuditConfig struct {
	// Enabled controls whether discovery rounds are recorded at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the audit storage backend.
	// Valid values: "memory", "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path. Required when Backend is
	// "sqlite", ignored otherwise.
	// Example: "/var/lib/sextant/audit.db"
	Path string `yaml:"path"`

	// AsyncBuffer is the size of the in-memory queue between the recorder
	// and the storage backend. Records are dropped, with an error log, when
	// the queue stays full past WriteTimeout.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the maximum time to wait when enqueueing a record
	// before dropping it.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RetentionDays is how many days of audit records to keep. Records
	// older than this are pruned on the configured schedule. Zero disables
	// age-based pruning.
	// Default: 7
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for when pruning runs.
	// Example: "0 3 * * *" (daily at 3 AM). An empty schedule disables
	// scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords caps the total number of stored records. When the cap is
	// exceeded the oldest records are pruned first. Zero means no cap.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	// LogLevel sets the minimum level for structured logs.
	// Valid values: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log output encoding.
	// Valid values: "json", "text".
	// Default: "json"
	LogFormat string `yaml:"log_format"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures trace sampling and export.
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path the metrics handler is mounted on.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig configures trace sampling and OTLP export.
type TracingConfig struct {
	// Enabled turns span recording and export on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler picks which traces to record: "always", "never", or "ratio".
	// Inbound trace context wins either way; the sampler only decides for
	// requests arriving without one.
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of root traces recorded under the
	// "ratio" sampler, between 0.0 and 1.0. Ignored by the others.
	// Default: 0.1 (10%)
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Example: "localhost:4317"
	// Required when tracing is enabled.
	Endpoint string `yaml:"endpoint"`

	// ServiceName labels every exported span with the emitting service.
	// Default: "sextant"
	ServiceName string `yaml:"service_name"`

	// OTLP tunes the exporter connection.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig tunes the OTLP exporter connection.
type OTLPConfig struct {
	// Insecure skips TLS when dialing the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export batch.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
