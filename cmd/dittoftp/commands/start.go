package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittoftp/internal/logger"
	"github.com/marmos91/dittoftp/internal/telemetry"
	ftpadapter "github.com/marmos91/dittoftp/pkg/adapter/ftp"
	"github.com/marmos91/dittoftp/pkg/api"
	"github.com/marmos91/dittoftp/pkg/config"
	"github.com/marmos91/dittoftp/pkg/identity"
	"github.com/marmos91/dittoftp/pkg/metrics"
	"github.com/marmos91/dittoftp/pkg/metrics/prometheus"
	"github.com/spf13/cobra"
)

var (
	startPort     int
	startCapacity int
	startDebug    bool
	startLogFile  string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DittoFTP server",
	Long: `Start the DittoFTP server with the specified configuration.

The server reads its configuration from $XDG_CONFIG_HOME/dittoftp/config.yaml
unless --config points somewhere else. Command-line flags override the file.

Examples:
  # Start with default config location
  dittoftp start

  # Start with custom config file
  dittoftp start --config /etc/dittoftp/config.yaml

  # Override the control port and session capacity
  dittoftp start --port 2121 --capacity 100

  # Debug logging to a file
  dittoftp start --debug --log_file /var/log/dittoftp.log

  # Use environment variables to override config
  DITTOFTP_LOGGING_LEVEL=DEBUG dittoftp start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVar(&startPort, "port", 8080, "FTP control port")
	startCmd.Flags().IntVar(&startCapacity, "capacity", 500, "Maximum concurrent FTP sessions")
	startCmd.Flags().BoolVar(&startDebug, "debug", false, "Enable debug logging")
	startCmd.Flags().StringVar(&startLogFile, "log_file", "", "Write logs to this file instead of stdout")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	applyStartFlags(cmd, cfg)

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Tracing.Enabled,
		ServiceName:    "dittoftp",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Tracing.Endpoint,
		Insecure:       cfg.Telemetry.Tracing.Insecure,
		SampleRate:     cfg.Telemetry.Tracing.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "dittoftp",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("DittoFTP - Lightweight FTP server")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Tracing.Endpoint, "sample_rate", cfg.Telemetry.Tracing.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Initialize metrics (if enabled)
	var ftpMetrics metrics.FTPMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		ftpMetrics = prometheus.NewFTPMetrics()
		logger.Info("Metrics enabled", "endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.API.Port))
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Open the user store shared by the FTP server and the admin API
	users, err := cfg.CreateUserStore()
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	logger.Info("User store loaded", "path", users.Path(), "users", users.Count())

	// Watch the users file for external edits (if enabled)
	if cfg.Users.Watch {
		watcher, err := identity.NewWatcher(users)
		if err != nil {
			return fmt.Errorf("failed to watch users file: %w", err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("Users file watcher stopped", "error", err)
			}
		}()
		logger.Info("Users file watch enabled", "path", users.Path())
	}

	// Create the FTP adapter
	ftpSrv := ftpadapter.New(cfg.FTP, users, ftpMetrics)

	// Create the admin API server (if enabled)
	var apiSrv *api.Server
	if cfg.API.Enabled {
		var metricsHandler http.Handler
		if cfg.Metrics.Enabled {
			metricsHandler = metrics.Handler()
		}
		apiSrv, err = api.NewServer(cfg.API, api.Deps{
			FTP:     ftpSrv,
			Users:   users,
			Metrics: metricsHandler,
		})
		if err != nil {
			return fmt.Errorf("failed to create API server: %w", err)
		}
		logger.Info("API server enabled", "port", cfg.API.Port)
	} else {
		logger.Info("API server disabled")
	}

	// Start servers in background
	ftpDone := make(chan error, 1)
	go func() {
		ftpDone <- ftpSrv.Serve(ctx)
	}()

	var apiDone chan error
	if apiSrv != nil {
		apiDone = make(chan error, 1)
		go func() {
			apiDone <- apiSrv.Start(ctx)
		}()
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for servers to shut down gracefully
		err := <-ftpDone
		waitAPI(apiDone)
		if err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-ftpDone:
		signal.Stop(sigChan)
		cancel()
		waitAPI(apiDone)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")

	case err := <-apiDone:
		signal.Stop(sigChan)
		cancel()
		if err != nil {
			logger.Error("API server error", "error", err)
		}
		if ftpErr := <-ftpDone; ftpErr != nil {
			logger.Error("Server shutdown error", "error", ftpErr)
			return ftpErr
		}
		if err != nil {
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// applyStartFlags overlays command-line flags onto the loaded configuration.
// Only flags the user actually set override the file; the flag defaults
// mirror the config defaults, so an untouched flag never masks the file.
func applyStartFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.FTP.Port = startPort
	}
	if cmd.Flags().Changed("capacity") {
		cfg.FTP.Capacity = startCapacity
	}
	if startDebug {
		cfg.Logging.Level = "DEBUG"
	}
	if startLogFile != "" {
		cfg.Logging.Output = startLogFile
	}
}

// waitAPI drains the API server result after shutdown was initiated.
func waitAPI(apiDone chan error) {
	if apiDone == nil {
		return
	}
	if err := <-apiDone; err != nil {
		logger.Error("API server shutdown error", "error", err)
	}
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
