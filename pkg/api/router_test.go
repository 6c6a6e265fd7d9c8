package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittoftp/pkg/api/auth"
	"github.com/marmos91/dittoftp/pkg/identity"
)

func testStore(t *testing.T) *identity.Store {
	t.Helper()

	base := t.TempDir()
	store, err := identity.NewStore(filepath.Join(base, "users.json"), filepath.Join(base, "root"), 4)
	if err != nil {
		t.Fatalf("Failed to create identity store: %v", err)
	}
	return store
}

func testJWTService(t *testing.T) *auth.JWTService {
	t.Helper()

	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret: "test-secret-key-that-is-at-least-32-characters-long",
	})
	if err != nil {
		t.Fatalf("Failed to create JWT service: %v", err)
	}
	return svc
}

func TestRouter_MetricsRoute(t *testing.T) {
	store := testStore(t)

	t.Run("mounted when handler provided", func(t *testing.T) {
		metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		})
		router := NewRouter(Deps{Users: store, Metrics: metricsHandler}, nil)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET /metrics status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), "# metrics") {
			t.Errorf("unexpected metrics body: %q", w.Body.String())
		}
	})

	t.Run("absent when disabled", func(t *testing.T) {
		router := NewRouter(Deps{Users: store}, nil)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("GET /metrics status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestRouter_AuthDisabled(t *testing.T) {
	store := testStore(t)
	router := NewRouter(Deps{Users: store}, nil)

	t.Run("users reachable without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET /api/v1/users status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("login route not mounted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{}"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("POST /api/v1/auth/login status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestRouter_AuthEnabled(t *testing.T) {
	store := testStore(t)
	if _, err := store.Create("alice", "password123"); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	jwtService := testJWTService(t)
	router := NewRouter(Deps{Users: store}, jwtService)

	t.Run("users rejected without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET /api/v1/users status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("users reachable with token", func(t *testing.T) {
		user, err := store.Get("alice")
		if err != nil {
			t.Fatalf("Failed to get test user: %v", err)
		}
		tokens, err := jwtService.GenerateTokenPair(user)
		if err != nil {
			t.Fatalf("Failed to generate tokens: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET /api/v1/users status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}
	})

	t.Run("login reachable without token", func(t *testing.T) {
		body := strings.NewReader(`{"username":"alice","password":"password123"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("POST /api/v1/auth/login status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}
	})

	t.Run("health stays open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET /health status = %d, want %d", w.Code, http.StatusOK)
		}
	})
}

func TestRouter_SessionRoutesNeedFTP(t *testing.T) {
	store := testStore(t)
	router := NewRouter(Deps{Users: store}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("GET /api/v1/sessions status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
