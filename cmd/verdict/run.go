package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"clearline-hq/verdict/pkg/config"
	"clearline-hq/verdict/pkg/ledger"
	"clearline-hq/verdict/pkg/policy/manager"
	"clearline-hq/verdict/pkg/policy/source"
	"clearline-hq/verdict/pkg/server"
	"clearline-hq/verdict/pkg/telemetry/logging"
	"clearline-hq/verdict/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the decision server",
	Long: `Start the HTTP decision server with the specified configuration.

The server loads policies from the configured path, keeps spending
totals in the configured ledger backend, and answers decision requests
on /v1/decisions.

Examples:
  # Start with default config
  verdict run

  # Start with custom config
  verdict run --config /etc/verdict/config.yaml

  # Override listen address
  verdict run --listen 0.0.0.0:8080

  # Validate config without starting the server
  verdict run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Ledger backend
	store, err := openLedger(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	pruner := ledger.NewPruner(store, ledger.PrunerConfig{
		RetentionDays: cfg.Ledger.RetentionDays,
		Schedule:      cfg.Ledger.PruneSchedule,
	}, logger)
	scheduler := ledger.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		logger.Warn("failed to start ledger pruning scheduler", "error", err)
	} else {
		defer scheduler.Stop()
	}

	// Policy set
	policySource := source.NewFileSource(cfg.Policy.Path, logger)
	mgr := manager.NewManager(policySource, logger)
	if err := mgr.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load policies from %q: %w", cfg.Policy.Path, err)
	}
	fmt.Printf("✓ Policies loaded (%d policies)\n", mgr.Len())

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(nil)
		collector.RecordReload(mgr.Len())
	}

	// Hot reload
	if cfg.Policy.Watch {
		watcherCfg := manager.DefaultWatcherConfig()
		watcherCfg.Path = cfg.Policy.Path
		watcherCfg.DebounceInterval = cfg.Policy.DebounceInterval

		watcher, err := manager.NewFileWatcher(watcherCfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create policy watcher: %w", err)
		}
		go func() {
			err := watcher.Watch(ctx, func() error {
				if err := mgr.Reload(ctx); err != nil {
					return err
				}
				if collector != nil {
					collector.RecordReload(mgr.Len())
				}
				return nil
			})
			if err != nil {
				logger.Error("policy watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Println("✓ Policy hot reload enabled")
	}

	srv, err := server.NewServer(server.Options{
		Config:      &cfg.Server,
		Logger:      logger,
		Manager:     mgr,
		Ledger:      store,
		Metrics:     collector,
		MetricsPath: cfg.Telemetry.Metrics.Path,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	if collector != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

// openLedger creates the configured ledger backend.
func openLedger(cfg *config.Config, logger *slog.Logger) (ledger.Store, error) {
	switch cfg.Ledger.Backend {
	case "memory":
		logger.Warn("using in-memory ledger, spending totals reset on restart")
		return ledger.NewMemoryStore(), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Ledger.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create ledger directory: %w", err)
			}
		}
		store, err := ledger.NewSQLiteStore(cfg.Ledger.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger at %q: %w", cfg.Ledger.SQLitePath, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Ledger.Backend)
	}
}
