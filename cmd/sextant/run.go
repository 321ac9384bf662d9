package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/sextant-gg/sextant/pkg/audit"
	"github.com/sextant-gg/sextant/pkg/audit/recorder"
	"github.com/sextant-gg/sextant/pkg/audit/retention"
	"github.com/sextant-gg/sextant/pkg/audit/storage"
	"github.com/sextant-gg/sextant/pkg/cli"
	"github.com/sextant-gg/sextant/pkg/config"
	"github.com/sextant-gg/sextant/pkg/discovery"
	"github.com/sextant-gg/sextant/pkg/health"
	"github.com/sextant-gg/sextant/pkg/relay"
	"github.com/sextant-gg/sextant/pkg/routes"
	"github.com/sextant-gg/sextant/pkg/server"
	"github.com/sextant-gg/sextant/pkg/telemetry/logging"
	"github.com/sextant-gg/sextant/pkg/telemetry/metrics"
	"github.com/sextant-gg/sextant/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Sextant proxy server",
	Long: `Start the proxy and serve until interrupted.

The server listens on the configured address, discovers backend pods by
probing every address behind the shared hostname, and relays HTTP and
WebSocket traffic to the pod named in the request path.

Examples:
  # Built-in defaults
  sextant run

  # Explicit config file
  sextant run --config /etc/sextant/config.yaml

  # Listen somewhere else
  sextant run --listen 0.0.0.0:8080

  # Check the config and exit
  sextant run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "listen address, overriding the config file")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "log level for this run (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "load and validate the config, then exit")
}

func runServer(cmd *cobra.Command, args []string) error {
	path := configPath()
	if err := config.Initialize(path); err != nil {
		return cli.NewConfigError("", err.Error())
	}
	cfg := config.GetConfig()

	// Flags win over both the file and the environment. An explicit
	// --log-level beats the -v shorthand.
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.LogLevel = runFlags.logLevel
	} else if verbose {
		cfg.Telemetry.LogLevel = "debug"
	}

	// The --log-level flag bypasses config validation, so logger
	// construction re-checks the level.
	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.LogLevel,
		Format: cfg.Telemetry.LogFormat,
	})
	if err != nil {
		return cli.NewConfigError("telemetry", fmt.Sprintf("failed to initialize logging: %v", err))
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration OK")
		return nil
	}

	printBanner(cfg, path)

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		fmt.Println("✓ Metrics collector initialized")
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer tracer.Shutdown(context.Background())
	if tracer.Enabled() {
		fmt.Println("✓ Tracing initialized")
	}

	var auditRecorder *recorder.Recorder
	var pruner *retention.Pruner
	if cfg.Audit.Enabled {
		slog.Info("initializing audit recording",
			"backend", cfg.Audit.Backend,
		)

		var auditStorage audit.Storage
		switch cfg.Audit.Backend {
		case "sqlite":
			sqliteConfig := storage.DefaultSQLiteConfig()
			sqliteConfig.Path = cfg.Audit.Path
			auditStorage, err = storage.NewSQLiteStorage(sqliteConfig)
			if err != nil {
				return fmt.Errorf("open sqlite audit storage: %w", err)
			}
		case "memory":
			auditStorage = storage.NewMemoryStorage(int(cfg.Audit.MaxRecords))
		default:
			return fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
		}
		defer auditStorage.Close()

		recorderConfig := &recorder.Config{
			Enabled:      true,
			AsyncBuffer:  cfg.Audit.AsyncBuffer,
			WriteTimeout: cfg.Audit.WriteTimeout,
		}
		auditRecorder = recorder.NewRecorder(auditStorage, recorderConfig)
		defer auditRecorder.Close()

		if cfg.Audit.PruneSchedule != "" {
			retentionConfig := &retention.Config{
				RetentionDays: cfg.Audit.RetentionDays,
				PruneSchedule: cfg.Audit.PruneSchedule,
				MaxRecords:    cfg.Audit.MaxRecords,
			}
			pruner = retention.NewPruner(auditStorage, retentionConfig)
			ctx := context.Background()
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("retention scheduler did not start", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextPruning(); next != nil {
					slog.Debug("audit retention scheduler started", "next_pruning", next)
				}
			}
		}

		fmt.Println("✓ Audit store initialized")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var routeTable *routes.Table
	if cfg.Routes.Path != "" {
		routeTable = routes.NewTable(cfg.Routes.Path)
		if err := routeTable.Load(); err != nil {
			return fmt.Errorf("failed to load route overrides: %w", err)
		}
		fmt.Printf("✓ Route overrides loaded (%d pins)\n", routeTable.Len())

		if cfg.Routes.Watch {
			watcher, err := routes.NewWatcher(routeTable, cfg.Routes.DebounceDelay)
			if err != nil {
				slog.Warn("failed to watch route overrides", "error", err)
			} else {
				go func() {
					if err := watcher.Watch(ctx); err != nil {
						slog.Warn("route override watcher stopped", "error", err)
					}
				}()
				defer watcher.Stop()
			}
		}
	}

	// Assemble the discovery pipeline
	slog.Info("initializing discovery",
		"backend_hostname", cfg.Discovery.BackendHostname,
		"backend_port", cfg.Discovery.BackendPort,
	)

	resolver := discovery.NewResolver(cfg.Discovery.BackendHostname, cfg.Discovery.Nameserver)
	prober := discovery.NewProber(cfg.Discovery.ProbeTimeout, collector)
	cache := discovery.NewCache(cfg.Discovery.CacheTTL)

	// Interface fields must stay nil when the component is disabled; a
	// typed nil pointer would pass the != nil checks downstream.
	var pins discovery.PinSource
	if routeTable != nil {
		pins = routeTable
	}
	var auditSink discovery.AuditSink
	if auditRecorder != nil {
		auditSink = auditRecorder
	}

	discoverer := discovery.NewDiscoverer(discovery.DiscovererConfig{
		Resolver:    resolver,
		Prober:      prober,
		Cache:       cache,
		BackendPort: uint16(cfg.Discovery.BackendPort),
		Pins:        pins,
		Metrics:     collector,
		Audit:       auditSink,
	})

	checker := health.NewChecker(health.CheckerConfig{
		Resolver:    resolver,
		Prober:      prober,
		BackendPort: uint16(cfg.Discovery.BackendPort),
		Audit:       auditSink,
	})

	fmt.Println("✓ Discovery pipeline initialized")

	srv := server.NewServer(&cfg.Proxy, server.Options{
		Resolver:       discoverer,
		Checker:        checker,
		HTTPRelay:      relay.NewHTTPRelay(relay.DefaultHTTPRelayConfig()),
		WebSocketRelay: relay.NewWebSocketRelay(relay.DefaultWebSocketRelayConfig(), collector),
		Collector:      collector,
		Tracer:         tracer,
		MetricsConfig:  &cfg.Telemetry.Metrics,
	})

	errChan := make(chan error, 1)
	go func() {
		slog.Info("proxy listener starting",
			"address", cfg.Proxy.ListenAddress,
		)
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("proxy server: %w", err)
		}
	}()

	if err := waitForServerReady(cfg.Proxy.ListenAddress, 5*time.Second); err != nil {
		return fmt.Errorf("listener never became ready: %w", err)
	}

	fmt.Println()
	fmt.Printf("✓ Proxy listening on %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("✓ Fleet health: http://%s/health\n", cfg.Proxy.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics: http://%s%s\n", cfg.Proxy.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nStop with Ctrl+C")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nCaught %s, draining and shutting down...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Proxy stopped")
		return nil
	}
}

func printBanner(cfg *config.Config, path string) {
	fmt.Printf("Sextant v%s\n", Version)
	if path != "" {
		fmt.Printf("Configuration file: %s\n", path)
	} else {
		fmt.Println("Using defaults and environment variables (no config file)")
	}

	slog.Debug("discovery configured",
		"backend_hostname", cfg.Discovery.BackendHostname,
		"backend_port", cfg.Discovery.BackendPort,
		"cache_ttl", cfg.Discovery.CacheTTL,
	)

	if cfg.Routes.Path != "" {
		slog.Debug("route overrides configured", "path", cfg.Routes.Path, "watch", cfg.Routes.Watch)
	}

	if cfg.Audit.Enabled {
		slog.Debug("audit enabled", "backend", cfg.Audit.Backend)
	}
}

// waitForServerReady polls the listen address until it accepts connections.
// The fleet health endpoint is no use here: it reflects pod health, not
// whether the listener is up.
func waitForServerReady(address string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", address, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("listener on %s not ready after %s: %w", address, timeout, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
