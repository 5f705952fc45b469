package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"empty listen address", func(c *Config) { c.Server.ListenAddress = "" }, "server.listen_address"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "server.read_timeout"},
		{"negative body limit", func(c *Config) { c.Server.MaxBodyBytes = -1 }, "server.max_body_bytes"},
		{"empty catalog path", func(c *Config) { c.Catalog.Path = "" }, "catalog.path"},
		{"git without repository", func(c *Config) { c.Catalog.Git.Enabled = true }, "catalog.git.repository"},
		{"git token auth without token", func(c *Config) {
			c.Catalog.Git.Enabled = true
			c.Catalog.Git.Repository = "https://example.com/catalog.git"
			c.Catalog.Git.Auth.Type = "token"
		}, "catalog.git.auth.token"},
		{"git unknown auth", func(c *Config) {
			c.Catalog.Git.Enabled = true
			c.Catalog.Git.Repository = "https://example.com/catalog.git"
			c.Catalog.Git.Auth.Type = "kerberos"
		}, "catalog.git.auth.type"},
		{"empty synonym", func(c *Config) { c.Search.Synonyms = map[string][]string{"chair": {" "}} }, "search.synonyms.chair"},
		{"unknown ledger backend", func(c *Config) { c.Budget.Backend = "postgres" }, "budget.backend"},
		{"redis without url", func(c *Config) { c.Budget.Backend = "redis" }, "budget.redis.url"},
		{"redis with http url", func(c *Config) {
			c.Budget.Backend = "redis"
			c.Budget.Redis.URL = "http://localhost:6379"
		}, "budget.redis.url"},
		{"zero commit timeout", func(c *Config) { c.Budget.CommitTimeout = 0 }, "budget.commit_timeout"},
		{"bad timezone", func(c *Config) { c.Budget.Timezone = "Mars/Olympus" }, "budget.timezone"},
		{"bad cron", func(c *Config) { c.Budget.Rollover.Schedule = "every month" }, "budget.rollover.schedule"},
		{"unknown audit backend", func(c *Config) { c.Audit.Backend = "s3" }, "audit.backend"},
		{"idle above open", func(c *Config) { c.Audit.SQLite.MaxIdleConns = 50 }, "audit.sqlite.max_idle_conns"},
		{"default above max limit", func(c *Config) { c.Audit.Query.DefaultLimit = 20000 }, "audit.query.default_limit"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"metrics path without slash", func(c *Config) {
			c.Telemetry.Metrics.Enabled = true
			c.Telemetry.Metrics.Path = "metrics"
		}, "telemetry.metrics.path"},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint"},
		{"unknown sampler", func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, "telemetry.tracing.sampler"},
		{"sample ratio out of range", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}

			var vErr ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range vErr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.wantField, vErr.Errors)
			}
		})
	}
}

func TestValidationError_Format(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error format: %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	msg := multi.Error()
	if !strings.Contains(msg, "with 2 errors") || !strings.Contains(msg, "  - b: worse") {
		t.Errorf("unexpected multi error format: %q", msg)
	}
}
