package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	engine "github.com/marmos91/dittoftp/internal/adapter/ftp"
	"github.com/marmos91/dittoftp/internal/logger"
	"github.com/marmos91/dittoftp/pkg/api/auth"
	"github.com/marmos91/dittoftp/pkg/identity"
)

// FTPRuntime is the view of the running FTP adapter the admin API needs.
type FTPRuntime interface {
	IsListening() bool
	Port() int
	SessionCount() int
	Sessions() []engine.SessionInfo
	CloseSession(handle uint64) bool
}

// Deps bundles the runtime dependencies of the admin API.
//
// Any field may be nil: the routes backed by a missing dependency are not
// mounted, and health probes report the gap instead of panicking. This keeps
// direct construction in tests cheap.
type Deps struct {
	// FTP is the running FTP adapter, used by health probes and session
	// management.
	FTP FTPRuntime

	// Users is the account store shared with the FTP server.
	Users *identity.Store

	// Metrics serves the Prometheus scrape endpoint. Leave nil when
	// metrics are disabled to keep /metrics unrouted.
	Metrics http.Handler
}

// Server provides the admin HTTP server for the FTP daemon.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe
//   - GET /metrics: Prometheus scrape endpoint (when metrics are enabled)
//   - /api/v1/auth/*: JWT login, refresh and identity (when API auth is enabled)
//   - /api/v1/sessions: Live FTP session listing and force-close
//   - /api/v1/users: FTP account management
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new admin API HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving requests.
//
// Defaults are applied here to ensure the server works correctly even when
// created directly (e.g., in tests). This is idempotent with the defaults
// applied during config loading.
//
// Returns an error when API auth is enabled but the configured JWT secret
// is missing or shorter than 32 characters.
func NewServer(config APIConfig, deps Deps) (*Server, error) {
	config.applyDefaults()

	var jwtService *auth.JWTService
	if config.Auth.Enabled {
		var err error
		jwtService, err = auth.NewJWTService(auth.JWTConfig{
			Secret:               config.GetSecret(),
			AccessTokenDuration:  config.Auth.AccessTokenDuration,
			RefreshTokenDuration: config.Auth.RefreshTokenDuration,
		})
		if err != nil {
			return nil, fmt.Errorf("create JWT service: %w", err)
		}
	}

	router := NewRouter(deps, jwtService)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}, nil
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and returns.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the server fails to start or shutdown encounters an error
func (s *Server) Start(ctx context.Context) error {
	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)
		logger.Debug("API endpoints available",
			"health", fmt.Sprintf("http://localhost:%d/health", s.config.Port),
			"ready", fmt.Sprintf("http://localhost:%d/health/ready", s.config.Port),
			"sessions", fmt.Sprintf("http://localhost:%d/api/v1/sessions", s.config.Port),
			"users", fmt.Sprintf("http://localhost:%d/api/v1/users", s.config.Port),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Create new context with timeout for graceful shutdown
		// Don't use the cancelled ctx as it would cause immediate shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
//
// Stop is safe to call multiple times and safe to call concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
