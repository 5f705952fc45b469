package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/procurement/pkg/audit"
	"mercator-hq/procurement/pkg/audit/storage"
	"mercator-hq/procurement/pkg/budget"
	"mercator-hq/procurement/pkg/budget/ledger"
	"mercator-hq/procurement/pkg/catalog"
	"mercator-hq/procurement/pkg/catalog/gitsync"
	"mercator-hq/procurement/pkg/catalog/search"
	"mercator-hq/procurement/pkg/cli"
	"mercator-hq/procurement/pkg/config"
	"mercator-hq/procurement/pkg/decision"
	"mercator-hq/procurement/pkg/telemetry/health"
	"mercator-hq/procurement/pkg/telemetry/logging"
	"mercator-hq/procurement/pkg/telemetry/metrics"
	"mercator-hq/procurement/pkg/telemetry/tracing"
	"mercator-hq/procurement/pkg/tools"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg *config.Config

	catalog      *catalog.Source
	catalogRepo  *gitsync.Repository
	ledger       ledger.Ledger
	auditStorage audit.Storage
	tracker      *budget.Tracker
	recorder     *audit.Recorder
	engine       *decision.Engine
	registry     *tools.Registry
	metrics      *metrics.Collector
	tracer       *tracing.Tracer
	health       *health.Checker

	closers []io.Closer
}

// loadConfig loads the configuration named by --config (or defaults plus
// environment overrides) and installs it as the process configuration.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	return config.GetConfig(), nil
}

// setupLogging installs the process logger. It must run before newApp:
// components capture the default logger when they are built.
func setupLogging(cfg *config.Config) error {
	lc := logging.Config{
		Level:          cfg.Telemetry.Logging.Level,
		Format:         cfg.Telemetry.Logging.Format,
		AddSource:      cfg.Telemetry.Logging.AddSource,
		RedactContacts: cfg.Telemetry.Logging.RedactContacts,
		Writer:         os.Stderr,
	}
	if verbose {
		lc.Level = "debug"
	}
	if _, err := logging.Setup(lc); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	return nil
}

// newApp opens the catalog, ledger and audit storage named by cfg and
// wires the engine and tool registry over them. With git sync enabled the
// catalog repository is cloned (or opened) first.
func newApp(ctx context.Context, cfg *config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	catalogPath := cfg.Catalog.Path
	if cfg.Catalog.Git.Enabled {
		a.catalogRepo, err = gitsync.NewRepository(&cfg.Catalog.Git)
		if err != nil {
			return nil, cli.NewConfigError("catalog.git", err.Error())
		}
		if err := a.catalogRepo.Clone(ctx); err != nil {
			return nil, fmt.Errorf("failed to sync catalog repository: %w", err)
		}
		catalogPath = a.catalogRepo.CatalogPath()
	}

	a.catalog, err = catalog.NewSource(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	a.ledger, err = openLedger(&cfg.Budget)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.ledger)

	a.auditStorage, err = openAuditStorage(&cfg.Audit)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.auditStorage)

	location, err := time.LoadLocation(cfg.Budget.Timezone)
	if err != nil {
		return nil, cli.NewConfigError("budget.timezone", err.Error())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	a.tracker = budget.NewTracker(a.catalog, a.ledger, budget.Config{
		CommitTimeout: cfg.Budget.CommitTimeout,
		Location:      location,
	})
	a.recorder = audit.NewRecorder(a.auditStorage, &audit.Config{WriteTimeout: cfg.Audit.WriteTimeout})

	var synonyms map[string][]string
	if len(cfg.Search.Synonyms) > 0 {
		synonyms = cfg.Search.Synonyms
	}
	resolver := search.New(a.catalog, synonyms)

	a.engine, err = decision.NewEngine(decision.Options{
		Catalog:  a.catalog,
		Resolver: resolver,
		Budget:   a.tracker,
		Recorder: a.recorder,
		Metrics:  a.metrics,
		Tracer:   a.tracer,
	})
	if err != nil {
		return nil, err
	}

	a.registry = tools.NewRegistry(a.metrics, a.tracer)
	if err := tools.RegisterProcurement(a.registry, tools.Services{
		Catalog:  a.catalog,
		Resolver: resolver,
		Budget:   a.tracker,
		Recorder: a.recorder,
		Engine:   a.engine,
	}); err != nil {
		return nil, err
	}

	a.health = health.New(cfg.Telemetry.Health.CheckTimeout)
	a.health.RegisterCheck(health.ComponentCatalog, health.CatalogCheck(a.catalog))
	a.health.RegisterCheck(health.ComponentLedger, health.LedgerCheck(a.ledger))
	a.health.RegisterCheck(health.ComponentAudit, health.AuditCheck(a.auditStorage))

	a.catalog.OnReload(func(s *catalog.Store) {
		stats := s.Stats()
		slog.Info("Catalog reloaded",
			"products", stats.Products,
			"departments", stats.Departments,
			"offers", stats.Offers,
		)
	})

	return a, nil
}

// reload re-reads the configuration file, applies its log level and
// reloads the catalog from disk. Backends, listen address and catalog
// location take effect on restart. A git-synced catalog is left to the
// syncer.
func (a *app) reload() error {
	next, err := config.Reload()
	if err != nil {
		return err
	}

	level := next.Telemetry.Logging.Level
	if runFlags.logLevel != "" {
		level = runFlags.logLevel
	}
	if verbose {
		level = "debug"
	}
	if err := logging.SetLevel(level); err != nil {
		return cli.NewConfigError("telemetry.logging.level", err.Error())
	}

	if a.catalogRepo != nil {
		return nil
	}
	if next.Catalog.Path != a.cfg.Catalog.Path {
		slog.Warn("Catalog path changed, restart to use it",
			"current", a.cfg.Catalog.Path, "configured", next.Catalog.Path)
	}
	return a.catalog.Reload()
}

// Close flushes traces and releases storage in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.tracer.Shutdown(ctx))
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openLedger(cfg *config.BudgetConfig) (ledger.Ledger, error) {
	switch cfg.Backend {
	case "memory":
		return ledger.NewMemoryLedger(), nil
	case "sqlite":
		l, err := ledger.NewSQLiteLedgerWithConfig(ledger.SQLiteConfig{
			DBPath:             cfg.SQLite.Path,
			CheckpointInterval: cfg.SQLite.CheckpointInterval,
			BusyTimeout:        cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite ledger: %w", err)
		}
		return l, nil
	case "redis":
		l, err := ledger.NewRedisLedger(ledger.RedisConfig{
			URL:         cfg.Redis.URL,
			Prefix:      cfg.Redis.Prefix,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis ledger: %w", err)
		}
		return l, nil
	default:
		return nil, cli.NewConfigError("budget.backend", fmt.Sprintf("unsupported ledger backend %q", cfg.Backend))
	}
}

func openAuditStorage(cfg *config.AuditConfig) (audit.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		s, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      true,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite audit log: %w", err)
		}
		return s, nil
	default:
		return nil, cli.NewConfigError("audit.backend", fmt.Sprintf("unsupported audit backend %q", cfg.Backend))
	}
}
