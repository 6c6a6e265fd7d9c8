package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	engine "github.com/marmos91/dittoftp/internal/adapter/ftp"
)

// SessionController is the view of the FTP adapter used for session management.
type SessionController interface {
	Sessions() []engine.SessionInfo
	CloseSession(handle uint64) bool
}

// SessionHandler handles FTP session management API endpoints.
type SessionHandler struct {
	ftp SessionController
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(ftp SessionController) *SessionHandler {
	return &SessionHandler{ftp: ftp}
}

// List handles GET /api/v1/sessions.
// Lists all live FTP sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, h.ftp.Sessions())
}

// Close handles DELETE /api/v1/sessions/{handle}.
// Force-closes a live FTP session. The client sees its control connection
// drop without a goodbye reply.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	handle, err := strconv.ParseUint(chi.URLParam(r, "handle"), 10, 64)
	if err != nil {
		BadRequest(w, "Invalid session handle")
		return
	}

	if !h.ftp.CloseSession(handle) {
		NotFound(w, "Session not found")
		return
	}

	WriteNoContent(w)
}
