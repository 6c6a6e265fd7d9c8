//go:build e2e

// Package framework provides the in-process test environment for the
// end-to-end suite: a real identity store on a temporary directory, the
// FTP adapter on an OS-assigned port and, when a test asks for it, the
// admin HTTP API.
package framework

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/dittoftp/internal/logger"
	ftpadapter "github.com/marmos91/dittoftp/pkg/adapter/ftp"
	"github.com/marmos91/dittoftp/pkg/api"
	"github.com/marmos91/dittoftp/pkg/apiclient"
	"github.com/marmos91/dittoftp/pkg/identity"
)

// testBcryptCost keeps account creation fast in tests. The cost does not
// change protocol behavior.
const testBcryptCost = 4

// testAPISecret satisfies the 32-character minimum for JWT signing.
const testAPISecret = "end-to-end-suite-signing-secret-0123456789"

// TestContext is one running server instance plus everything a test
// needs to talk to it.
type TestContext struct {
	T     *testing.T
	Root  string // directory holding the per-user chroots
	Users *identity.Store
	FTP   *ftpadapter.FTPAdapter

	// FTPAddr is the control endpoint, "127.0.0.1:port".
	FTPAddr string

	// APIURL is "http://127.0.0.1:port", empty unless EnableAPI.
	APIURL  string
	APIPort int

	apiServer *api.Server
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	options   TestContextOptions
}

// TestContextOptions configures the server under test. The zero value
// runs with production defaults, open enrollment included.
type TestContextOptions struct {
	// Capacity caps concurrent control sessions. 0 keeps the default.
	Capacity int

	// IdleTimeout closes silent control connections when positive.
	IdleTimeout time.Duration

	// DisableEnrollment turns off account auto-creation on PASS.
	DisableEnrollment bool

	// EnableAPI starts the admin HTTP server.
	EnableAPI bool

	// APIAuth turns JWT authentication on for the management routes.
	// Implies EnableAPI.
	APIAuth bool
}

// NewTestContext starts a server with default options. Cleanup is
// registered on t automatically.
func NewTestContext(t *testing.T) *TestContext {
	return NewTestContextWithOptions(t, TestContextOptions{})
}

// NewTestContextWithOptions starts a server with custom options.
func NewTestContextWithOptions(t *testing.T, opts TestContextOptions) *TestContext {
	t.Helper()

	// Server logs stay quiet unless a test is being debugged. Set
	// DITTOFTP_LOGGING_LEVEL=DEBUG to watch the server talk.
	if level := os.Getenv("DITTOFTP_LOGGING_LEVEL"); level != "" {
		logger.SetLevel(level)
	} else {
		logger.SetLevel("ERROR")
	}

	base := t.TempDir()
	root := filepath.Join(base, "root")

	users, err := identity.NewStore(filepath.Join(base, "users.json"), root, testBcryptCost)
	if err != nil {
		t.Fatalf("Failed to create user store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	tc := &TestContext{
		T:       t,
		Root:    root,
		Users:   users,
		ctx:     ctx,
		cancel:  cancel,
		options: opts,
	}

	tc.startFTP()
	if opts.EnableAPI || opts.APIAuth {
		tc.startAPI()
	}

	t.Cleanup(tc.shutdown)
	return tc
}

// startFTP boots the FTP adapter on an OS-assigned loopback port and
// waits for the listener to bind.
func (tc *TestContext) startFTP() {
	tc.T.Helper()

	cfg := ftpadapter.FTPConfig{
		BindAddress:    "127.0.0.1",
		Port:           0,
		Capacity:       tc.options.Capacity,
		Root:           tc.Root,
		OpenEnrollment: !tc.options.DisableEnrollment,
		IdleTimeout:    tc.options.IdleTimeout,
		DataTimeout:    2 * time.Second,
	}
	tc.FTP = ftpadapter.New(cfg, tc.Users, nil)

	tc.wg.Add(1)
	go func() {
		defer tc.wg.Done()
		if err := tc.FTP.Serve(tc.ctx); err != nil && err != context.Canceled {
			tc.T.Logf("FTP server error: %v", err)
		}
	}()

	// Blocks until the listener is bound, then reports the actual port.
	tc.FTPAddr = tc.FTP.GetListenerAddr()
}

// startAPI boots the admin HTTP server on a free port.
func (tc *TestContext) startAPI() {
	tc.T.Helper()

	port := FindFreePort(tc.T)
	cfg := api.APIConfig{
		Enabled: true,
		Port:    port,
	}
	if tc.options.APIAuth {
		cfg.Auth.Enabled = true
		cfg.Auth.Secret = testAPISecret
	}

	srv, err := api.NewServer(cfg, api.Deps{FTP: tc.FTP, Users: tc.Users})
	if err != nil {
		tc.T.Fatalf("Failed to create API server: %v", err)
	}
	tc.apiServer = srv
	tc.APIPort = port
	tc.APIURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	tc.wg.Add(1)
	go func() {
		defer tc.wg.Done()
		if err := srv.Start(tc.ctx); err != nil {
			tc.T.Logf("API server error: %v", err)
		}
	}()

	WaitForServer(tc.T, port, 10*time.Second)
}

// shutdown cancels the server context and waits for both servers to
// stop. Registered as a test cleanup; client connections opened through
// the context close first, so sessions drain quickly.
func (tc *TestContext) shutdown() {
	tc.cancel()

	done := make(chan struct{})
	go func() {
		tc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		tc.T.Error("Server did not shut down within 10s")
	}
}

// CreateUser provisions an account directly in the store.
func (tc *TestContext) CreateUser(username, password string) *identity.User {
	tc.T.Helper()

	user, err := tc.Users.Create(username, password)
	if err != nil {
		tc.T.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// SeedFile writes a file under the user's chroot, creating parent
// directories as needed, and returns its absolute path.
func (tc *TestContext) SeedFile(user *identity.User, rel string, data []byte) string {
	tc.T.Helper()

	path := filepath.Join(user.Chroot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tc.T.Fatalf("Failed to create directories for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tc.T.Fatalf("Failed to seed %s: %v", rel, err)
	}
	return path
}

// SeedDir creates a directory under the user's chroot.
func (tc *TestContext) SeedDir(user *identity.User, rel string) string {
	tc.T.Helper()

	path := filepath.Join(user.Chroot, filepath.FromSlash(rel))
	if err := os.MkdirAll(path, 0o755); err != nil {
		tc.T.Fatalf("Failed to create directory %s: %v", rel, err)
	}
	return path
}

// ReadUserFile reads a file back from the user's chroot.
func (tc *TestContext) ReadUserFile(user *identity.User, rel string) []byte {
	tc.T.Helper()

	data, err := os.ReadFile(filepath.Join(user.Chroot, filepath.FromSlash(rel)))
	if err != nil {
		tc.T.Fatalf("Failed to read %s: %v", rel, err)
	}
	return data
}

// APIClient returns a fresh, unauthenticated client for the admin API.
func (tc *TestContext) APIClient() *apiclient.Client {
	tc.T.Helper()

	if tc.APIURL == "" {
		tc.T.Fatal("API not enabled for this test context")
	}
	return apiclient.New(tc.APIURL)
}
