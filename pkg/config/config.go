package config

import "time"

// Config is the root configuration structure for the procurement service.
// It contains all configuration sections for the tool server, catalog,
// search, budget ledger, audit log and telemetry.
type Config struct {
	// Server contains HTTP tool server configuration including listen
	// address, timeouts and CORS.
	Server ServerConfig `yaml:"server"`

	// Catalog contains the location of the catalog files and hot reload
	// settings.
	Catalog CatalogConfig `yaml:"catalog"`

	// Search contains product search configuration.
	Search SearchConfig `yaml:"search"`

	// Budget contains budget tracking configuration including the ledger
	// backend and the monthly rollover schedule.
	Budget BudgetConfig `yaml:"budget"`

	// Audit contains audit log configuration including backend selection.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP tool server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of a tool invocation body.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`
}

// CatalogConfig contains catalog source configuration.
type CatalogConfig struct {
	// Path is a catalog directory, a catalog.yaml file, or a single JSON or
	// YAML document.
	// Default: "./data"
	Path string `yaml:"path"`

	// Watch enables hot reload when catalog files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval coalesces bursts of file events into one reload.
	// Default: 250ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Git syncs the catalog from a Git repository. When enabled the catalog
	// is read from the clone and Path is ignored.
	Git CatalogGitConfig `yaml:"git"`
}

// CatalogGitConfig configures Git-based catalog loading.
type CatalogGitConfig struct {
	// Enabled determines if the catalog is cloned from Repository.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Repository URL (HTTPS, SSH or a local path).
	// Example: "https://github.com/company/procurement-catalog.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within the repository to the catalog directory or file.
	// Default: "" (repository root)
	Path string `yaml:"path"`

	// LocalPath is where the repository is cloned.
	// Default: "data/catalog-repo"
	LocalPath string `yaml:"local_path"`

	// Depth limits the clone history. 0 clones everything.
	Depth int `yaml:"depth"`

	// PollInterval is how often the server checks the remote for new
	// commits. One-shot commands read the clone once.
	// Default: 1m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds a single clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token", "ssh", "none"
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication. Required when Type is "token".
	Token string `yaml:"token"`

	// SSHKeyPath for SSH authentication. Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase for encrypted SSH keys.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// SearchConfig contains product search configuration.
type SearchConfig struct {
	// Synonyms maps a query term to extra terms it also matches. The table
	// is made symmetric when loaded. Empty uses the built-in table.
	Synonyms map[string][]string `yaml:"synonyms"`
}

// BudgetConfig contains budget tracking configuration.
type BudgetConfig struct {
	// Backend selects the ledger implementation.
	// Options: "memory", "sqlite", "redis"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// CommitTimeout bounds a single budget commit.
	// Default: 2s
	CommitTimeout time.Duration `yaml:"commit_timeout"`

	// Timezone is the IANA zone budget periods are computed in.
	// Default: "UTC"
	Timezone string `yaml:"timezone"`

	// Rollover contains the monthly rollover schedule.
	Rollover RolloverConfig `yaml:"rollover"`

	// SQLite contains SQLite ledger configuration.
	SQLite LedgerSQLiteConfig `yaml:"sqlite"`

	// Redis contains Redis ledger configuration.
	Redis LedgerRedisConfig `yaml:"redis"`
}

// RolloverConfig contains the budget period rollover schedule.
type RolloverConfig struct {
	// Enabled starts the rollover scheduler with the server.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression.
	// Default: "0 0 1 * *" (midnight on the first of the month)
	Schedule string `yaml:"schedule"`
}

// LedgerSQLiteConfig contains SQLite ledger configuration.
type LedgerSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/ledger.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the WAL is checkpointed.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// LedgerRedisConfig contains Redis ledger configuration.
type LedgerRedisConfig struct {
	// URL is a redis:// connection URL.
	// Example: "redis://localhost:6379/0"
	URL string `yaml:"url"`

	// Prefix namespaces ledger keys.
	// Default: "procurement:ledger"
	Prefix string `yaml:"prefix"`

	// DialTimeout bounds the initial connection check.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// AuditConfig contains audit log configuration.
type AuditConfig struct {
	// Backend selects the audit storage.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// WriteTimeout bounds a single audit write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// SQLite contains SQLite audit storage configuration.
	SQLite AuditSQLiteConfig `yaml:"sqlite"`

	// Query contains audit query limits.
	Query AuditQueryConfig `yaml:"query"`
}

// AuditSQLiteConfig contains SQLite audit storage configuration.
type AuditSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuditQueryConfig contains audit query configuration.
type AuditQueryConfig struct {
	// DefaultLimit is the number of records returned when no limit is given.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit is the largest accepted limit.
	// Default: 10000
	MaxLimit int `yaml:"max_limit"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactContacts masks e-mail addresses and phone numbers in log values.
	// Default: false
	RedactContacts bool `yaml:"redact_contacts"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "procurement"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`

	// DecisionDurationBuckets defines histogram buckets for decision
	// duration (seconds).
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5]
	DecisionDurationBuckets []float64 `yaml:"decision_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio", "parentbased_always", "parentbased_ratio"
	// Default: "parentbased_ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "procurement"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
