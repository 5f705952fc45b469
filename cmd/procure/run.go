package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/procurement/pkg/budget"
	"mercator-hq/procurement/pkg/catalog"
	"mercator-hq/procurement/pkg/catalog/gitsync"
	"mercator-hq/procurement/pkg/cli"
	"mercator-hq/procurement/pkg/server"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the procurement tool server",
	Long: `Start the procurement tool server with the specified configuration.

The server exposes the procurement tools over HTTP:
  GET  /v1/tools          list tool definitions
  POST /v1/tools/{name}   invoke a tool with JSON arguments

Examples:
  # Start with default config
  procure run

  # Start with custom config
  procure run --config /etc/procure/config.yaml

  # Override listen address
  procure run --listen 0.0.0.0:8080

  # Validate config and catalog without starting the server
  procure run --dry-run

Send SIGHUP to re-read the configuration file (log level) and reload the
catalog without restarting.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and catalog without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	stats := a.catalog.Current().Stats()
	fmt.Fprintf(out, "Procure v%s\n", Version)
	fmt.Fprintf(out, "✓ Catalog loaded from %s (%d products, %d offers, %d departments)\n",
		stats.Source, stats.Products, stats.Offers, stats.Departments)
	fmt.Fprintf(out, "✓ Budget ledger: %s\n", cfg.Budget.Backend)
	fmt.Fprintf(out, "✓ Audit log: %s\n", cfg.Audit.Backend)

	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	if cfg.Budget.Rollover.Enabled {
		scheduler := budget.NewScheduler(a.tracker, cfg.Budget.Rollover.Schedule)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewConfigError("budget.rollover.schedule", err.Error())
		}
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			slog.Debug("Budget rollover scheduler started", "next_run", next)
		}
	}

	if cfg.Catalog.Watch && a.catalogRepo == nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		wc := catalog.DefaultWatcherConfig()
		wc.Path = cfg.Catalog.Path
		if cfg.Catalog.DebounceInterval > 0 {
			wc.DebounceInterval = cfg.Catalog.DebounceInterval
		}
		go func() {
			if err := a.catalog.Watch(watchCtx, wc); err != nil {
				slog.Error("Catalog watcher stopped", "error", err)
			}
		}()
	}

	opts := server.Options{
		Registry:      a.registry,
		Health:        a.health,
		LivenessPath:  cfg.Telemetry.Health.LivenessPath,
		ReadinessPath: cfg.Telemetry.Health.ReadinessPath,
		Tracer:        a.tracer,
		Version:       versionInfo(),
	}
	if cfg.Telemetry.Metrics.Enabled {
		opts.Metrics = a.metrics.Handler()
		opts.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	if a.catalogRepo != nil {
		syncer := gitsync.NewSyncer(a.catalogRepo, a.catalog, cfg.Catalog.Git.PollInterval)
		go func() {
			if err := syncer.Run(ctx); err != nil {
				slog.Error("Catalog git sync stopped", "error", err)
			}
		}()
	}

	cli.HandleReload(ctx, a.reload)

	srv := server.NewServer(&cfg.Server, opts)

	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}
