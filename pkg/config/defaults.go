package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = int64(1048576)

	// CORS defaults
	DefaultCORSMaxAge = 3600 // 1 hour

	// Catalog defaults
	DefaultCatalogPath             = "./data"
	DefaultCatalogDebounceInterval = 250 * time.Millisecond
	DefaultCatalogGitBranch        = "main"
	DefaultCatalogGitLocalPath     = "data/catalog-repo"
	DefaultCatalogGitPollInterval  = time.Minute
	DefaultCatalogGitTimeout       = 30 * time.Second
	DefaultCatalogGitAuthType      = "none"

	// Budget defaults
	DefaultBudgetBackend                  = "sqlite"
	DefaultBudgetCommitTimeout            = 2 * time.Second
	DefaultBudgetTimezone                 = "UTC"
	DefaultBudgetRolloverSchedule         = "0 0 1 * *"
	DefaultBudgetSQLitePath               = "data/ledger.db"
	DefaultBudgetSQLiteBusyTimeout        = 5 * time.Second
	DefaultBudgetSQLiteCheckpointInterval = 5 * time.Minute
	DefaultBudgetRedisPrefix              = "procurement:ledger"
	DefaultBudgetRedisDialTimeout         = 5 * time.Second

	// Audit defaults
	DefaultAuditBackend           = "sqlite"
	DefaultAuditWriteTimeout      = 5 * time.Second
	DefaultAuditSQLitePath        = "data/audit.db"
	DefaultAuditSQLiteMaxOpen     = 10
	DefaultAuditSQLiteMaxIdle     = 5
	DefaultAuditSQLiteBusyTimeout = 5 * time.Second
	DefaultAuditQueryDefaultLimit = 100
	DefaultAuditQueryMaxLimit     = 10000

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "procurement"
	DefaultMetricsSubsystem   = "engine"
	DefaultTracingSampler     = "parentbased_ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingService     = "procurement"
	DefaultOTLPTimeout        = 10 * time.Second
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultDecisionDurationBuckets covers in-process decisions (1ms) up to
// slow ledger round trips (2.5s).
var DefaultDecisionDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5}

// NewDefaultConfig returns a configuration with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	applyCORSDefaults(&cfg.Server.CORS)

	// Catalog defaults
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = DefaultCatalogPath
	}
	if cfg.Catalog.DebounceInterval == 0 {
		cfg.Catalog.DebounceInterval = DefaultCatalogDebounceInterval
	}
	if cfg.Catalog.Git.Branch == "" {
		cfg.Catalog.Git.Branch = DefaultCatalogGitBranch
	}
	if cfg.Catalog.Git.LocalPath == "" {
		cfg.Catalog.Git.LocalPath = DefaultCatalogGitLocalPath
	}
	if cfg.Catalog.Git.PollInterval == 0 {
		cfg.Catalog.Git.PollInterval = DefaultCatalogGitPollInterval
	}
	if cfg.Catalog.Git.Timeout == 0 {
		cfg.Catalog.Git.Timeout = DefaultCatalogGitTimeout
	}
	if cfg.Catalog.Git.Auth.Type == "" {
		cfg.Catalog.Git.Auth.Type = DefaultCatalogGitAuthType
	}

	// Budget defaults
	if cfg.Budget.Backend == "" {
		cfg.Budget.Backend = DefaultBudgetBackend
	}
	if cfg.Budget.CommitTimeout == 0 {
		cfg.Budget.CommitTimeout = DefaultBudgetCommitTimeout
	}
	if cfg.Budget.Timezone == "" {
		cfg.Budget.Timezone = DefaultBudgetTimezone
	}
	if cfg.Budget.Rollover.Schedule == "" {
		cfg.Budget.Rollover.Schedule = DefaultBudgetRolloverSchedule
	}
	if cfg.Budget.SQLite.Path == "" {
		cfg.Budget.SQLite.Path = DefaultBudgetSQLitePath
	}
	if cfg.Budget.SQLite.BusyTimeout == 0 {
		cfg.Budget.SQLite.BusyTimeout = DefaultBudgetSQLiteBusyTimeout
	}
	if cfg.Budget.SQLite.CheckpointInterval == 0 {
		cfg.Budget.SQLite.CheckpointInterval = DefaultBudgetSQLiteCheckpointInterval
	}
	if cfg.Budget.Redis.Prefix == "" {
		cfg.Budget.Redis.Prefix = DefaultBudgetRedisPrefix
	}
	if cfg.Budget.Redis.DialTimeout == 0 {
		cfg.Budget.Redis.DialTimeout = DefaultBudgetRedisDialTimeout
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpen
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdle
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}
	if cfg.Audit.Query.DefaultLimit == 0 {
		cfg.Audit.Query.DefaultLimit = DefaultAuditQueryDefaultLimit
	}
	if cfg.Audit.Query.MaxLimit == 0 {
		cfg.Audit.Query.MaxLimit = DefaultAuditQueryMaxLimit
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyCORSDefaults(cfg *CORSConfig) {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = DefaultCORSMaxAge
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Metrics.DecisionDurationBuckets) == 0 {
		cfg.Metrics.DecisionDurationBuckets = append([]float64(nil), DefaultDecisionDurationBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
