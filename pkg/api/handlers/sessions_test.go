package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	engine "github.com/marmos91/dittoftp/internal/adapter/ftp"
)

type fakeSessionController struct {
	sessions []engine.SessionInfo
	closed   []uint64
	closeOK  bool
}

func (f *fakeSessionController) Sessions() []engine.SessionInfo { return f.sessions }

func (f *fakeSessionController) CloseSession(handle uint64) bool {
	f.closed = append(f.closed, handle)
	return f.closeOK
}

func deleteSessionRequest(handle string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+handle, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("handle", handle)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSessionHandler_List(t *testing.T) {
	ctrl := &fakeSessionController{
		sessions: []engine.SessionInfo{
			{Handle: 1, ID: "a1b2", Username: "alice", RemoteAddr: "127.0.0.1:50000", State: "idle", Cwd: "./", Age: "5s"},
			{Handle: 2, ID: "c3d4", RemoteAddr: "127.0.0.1:50001", State: "login", Age: "1s"},
		},
	}
	handler := NewSessionHandler(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []engine.SessionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].Username != "alice" {
		t.Errorf("expected username 'alice', got %q", got[0].Username)
	}
	if got[1].Handle != 2 {
		t.Errorf("expected handle 2, got %d", got[1].Handle)
	}
}

func TestSessionHandler_List_Empty(t *testing.T) {
	handler := NewSessionHandler(&fakeSessionController{sessions: []engine.SessionInfo{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []engine.SessionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no sessions, got %d", len(got))
	}
}

func TestSessionHandler_Close(t *testing.T) {
	t.Run("invalid handle", func(t *testing.T) {
		ctrl := &fakeSessionController{closeOK: true}
		handler := NewSessionHandler(ctrl)

		w := httptest.NewRecorder()
		handler.Close(w, deleteSessionRequest("not-a-number"))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Close() status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if len(ctrl.closed) != 0 {
			t.Error("CloseSession should not be called for an invalid handle")
		}
	})

	t.Run("unknown handle", func(t *testing.T) {
		ctrl := &fakeSessionController{closeOK: false}
		handler := NewSessionHandler(ctrl)

		w := httptest.NewRecorder()
		handler.Close(w, deleteSessionRequest("99"))

		if w.Code != http.StatusNotFound {
			t.Errorf("Close() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("live session", func(t *testing.T) {
		ctrl := &fakeSessionController{closeOK: true}
		handler := NewSessionHandler(ctrl)

		w := httptest.NewRecorder()
		handler.Close(w, deleteSessionRequest("42"))

		if w.Code != http.StatusNoContent {
			t.Errorf("Close() status = %d, want %d", w.Code, http.StatusNoContent)
		}
		if len(ctrl.closed) != 1 || ctrl.closed[0] != 42 {
			t.Errorf("expected CloseSession(42), got %v", ctrl.closed)
		}
	})
}
