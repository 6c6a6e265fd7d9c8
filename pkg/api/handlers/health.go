package handlers

import (
	"net/http"
	"time"
)

// FTPStatus is the view of the FTP adapter used by health probes.
type FTPStatus interface {
	IsListening() bool
	SessionCount() int
	Port() int
}

// UserDirectory is the view of the user store used by health probes.
type UserDirectory interface {
	Count() int
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the FTP adapter accepting connections?
type HealthHandler struct {
	ftp       FTPStatus
	users     UserDirectory
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
//
// Either parameter may be nil, in which case the readiness probe
// reports unhealthy status.
func NewHealthHandler(ftp FTPStatus, users UserDirectory) *HealthHandler {
	return &HealthHandler{
		ftp:       ftp,
		users:     users,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"service":    "dittoftp",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK once the FTP listener is bound and the user store is
// loaded, 503 Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.ftp == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("ftp adapter not initialized"))
		return
	}
	if !h.ftp.IsListening() {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("ftp listener not ready"))
		return
	}
	if h.users == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("user store not initialized"))
		return
	}

	WriteJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"ftp_port": h.ftp.Port(),
		"sessions": h.ftp.SessionCount(),
		"users":    h.users.Count(),
	}))
}
