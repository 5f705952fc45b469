package config

import "time"

// ConfigBuilder builds configurations for tests.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig returns a builder seeded with defaults and in-memory
// backends.
func NewTestConfig() *ConfigBuilder {
	cfg := &Config{
		Budget: BudgetConfig{Backend: "memory"},
		Audit:  AuditConfig{Backend: "memory"},
	}
	ApplyDefaults(cfg)
	return &ConfigBuilder{cfg: cfg}
}

func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

func (b *ConfigBuilder) WithCatalogPath(path string) *ConfigBuilder {
	b.cfg.Catalog.Path = path
	return b
}

func (b *ConfigBuilder) WithRedisLedger(url string) *ConfigBuilder {
	b.cfg.Budget.Backend = "redis"
	b.cfg.Budget.Redis.URL = url
	return b
}

func (b *ConfigBuilder) WithCommitTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Budget.CommitTimeout = d
	return b
}

func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}
