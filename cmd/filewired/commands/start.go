package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/filewire/filewire/internal/adminapi"
	"github.com/filewire/filewire/internal/logger"
	"github.com/filewire/filewire/internal/telemetry"
	"github.com/filewire/filewire/pkg/audit"
	"github.com/filewire/filewire/pkg/config"
	"github.com/filewire/filewire/pkg/metrics"
	"github.com/filewire/filewire/pkg/server"

	// Import prometheus metrics to register its init() constructor.
	_ "github.com/filewire/filewire/pkg/metrics/prometheus"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the filewire server",
	Long: `Start the filewire server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process
supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/filewire/config.yaml.

Examples:
  # Start in background (default)
  filewired start

  # Start in foreground
  filewired start --foreground

  # Start with a custom config file
  filewired start --config /etc/filewire/config.yaml

  # Start with environment variable overrides
  FILEWIRE_LOGGING_LEVEL=DEBUG filewired start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/filewire/filewired.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/filewire/filewired.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "filewire",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "filewire",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("filewire - a line-oriented read-only file server")
	logger.Info("log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}

	var serverMetrics metrics.ServerMetrics
	var metricsReg *prometheus.Registry
	if cfg.Metrics.Enabled {
		metricsReg = metrics.InitRegistry(nil)
		serverMetrics = metrics.NewServerMetrics()
		logger.Info("metrics enabled")
	} else {
		logger.Info("metrics disabled")
	}

	auditStore, err := audit.New(cfg.Audit)
	if err != nil {
		return fmt.Errorf("initialize audit store: %w", err)
	}
	auditRecorder := audit.NewRecorder(auditStore)
	defer func() {
		if err := auditRecorder.Close(); err != nil {
			logger.Error("audit store close error", "error", err)
		}
	}()
	if cfg.Audit.Enabled {
		logger.Info("audit logging enabled", "path", cfg.Audit.Path)
	} else {
		logger.Info("audit logging disabled")
	}

	st, err := buildStore(ctx, cfg, serverMetrics)
	if err != nil {
		return fmt.Errorf("initialize file store: %w", err)
	}
	logger.Info("file store ready", "backend", cfg.Share.Backend)

	srv := server.NewServer(server.Config{
		ListenAddr:    cfg.Listen,
		RecvBufferCap: cfg.RecvBufferCap,
	}, st)
	srv.SetMetrics(serverMetrics)
	srv.SetAudit(auditRecorder)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	var adminDone chan error
	if cfg.Metrics.Enabled {
		adminSrv := adminapi.NewServer(cfg.Metrics.Addr, func() (bool, string) { return true, "" }, metricsReg, auditStore)
		adminDone = make(chan error, 1)
		go func() {
			adminDone <- adminSrv.Start(ctx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("server is running, press Ctrl+C to stop", "address", cfg.Listen)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
	}

	if adminDone != nil {
		if err := <-adminDone; err != nil {
			logger.Warn("admin server shutdown error", "error", err)
		}
	}

	return nil
}
