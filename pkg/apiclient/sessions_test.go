package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/sessions", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode([]Session{
			{
				Handle:     1,
				ID:         "b5df29m0-0001",
				Username:   "alice",
				RemoteAddr: "10.0.0.8:51034",
				State:      "idle",
				Cwd:        "./docs",
				Age:        "42s",
			},
			{
				Handle:     2,
				ID:         "b5df29m0-0002",
				RemoteAddr: "10.0.0.9:51040",
				State:      "login",
				Age:        "3s",
			},
		})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	sessions, err := client.ListSessions()

	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, uint64(1), sessions[0].Handle)
	assert.Equal(t, "alice", sessions[0].Username)
	assert.Equal(t, "idle", sessions[0].State)
	assert.Empty(t, sessions[1].Username)
}

func TestCloseSession(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		path = r.URL.Path

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	err := client.CloseSession(42)

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/sessions/42", path)
}

func TestCloseSession_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"title":  "Not Found",
			"status": 404,
			"detail": "Session not found",
		})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	err := client.CloseSession(999)

	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
}
