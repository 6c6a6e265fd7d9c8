package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittoftp/internal/logger"
	"github.com/marmos91/dittoftp/pkg/api/auth"
	"github.com/marmos91/dittoftp/pkg/api/handlers"
	apiMiddleware "github.com/marmos91/dittoftp/pkg/api/middleware"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus scrape endpoint (when metrics are enabled)
//   - POST /api/v1/auth/login - User authentication (when API auth is enabled)
//   - POST /api/v1/auth/refresh - Token refresh
//   - GET /api/v1/auth/me - Current user info
//   - GET /api/v1/sessions - Live FTP session listing
//   - DELETE /api/v1/sessions/{handle} - Force-close an FTP session
//   - /api/v1/users/* - FTP account management
//
// Health and metrics routes are always unauthenticated. Management routes
// require a bearer token when jwtService is non-nil.
func NewRouter(deps Deps, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Interface values must stay nil when the dependency is absent, so the
	// handlers' nil checks keep working.
	var ftpStatus handlers.FTPStatus
	var userDirectory handlers.UserDirectory
	if deps.FTP != nil {
		ftpStatus = deps.FTP
	}
	if deps.Users != nil {
		userDirectory = deps.Users
	}

	// Health routes - unauthenticated
	healthHandler := handlers.NewHealthHandler(ftpStatus, userDirectory)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Prometheus scrape endpoint - unauthenticated, absent when disabled
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes - login and refresh are unauthenticated by nature
		if jwtService != nil && deps.Users != nil {
			authHandler := handlers.NewAuthHandler(deps.Users, jwtService)
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)

				r.Group(func(r chi.Router) {
					r.Use(apiMiddleware.JWTAuth(jwtService))
					r.Get("/me", authHandler.Me)
				})
			})
		}

		// Management routes - bearer token required when auth is enabled
		r.Group(func(r chi.Router) {
			if jwtService != nil {
				r.Use(apiMiddleware.JWTAuth(jwtService))
			}

			if deps.FTP != nil {
				sessionHandler := handlers.NewSessionHandler(deps.FTP)
				r.Route("/sessions", func(r chi.Router) {
					r.Get("/", sessionHandler.List)
					r.Delete("/{handle}", sessionHandler.Close)
				})
			}

			if deps.Users != nil {
				userHandler := handlers.NewUserHandler(deps.Users)
				r.Route("/users", func(r chi.Router) {
					r.Post("/", userHandler.Create)
					r.Get("/", userHandler.List)
					r.Get("/{username}", userHandler.Get)
					r.Delete("/{username}", userHandler.Delete)
				})
			}
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
