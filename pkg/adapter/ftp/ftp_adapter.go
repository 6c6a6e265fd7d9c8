// Package ftp provides the FTP protocol adapter for the dittoftp daemon.
//
// The adapter owns the listener and accept loop (via adapter.BaseAdapter)
// and delegates per-connection protocol work to the session engine in
// internal/adapter/ftp. Its one protocol-specific twist is the capacity
// gate: once the engine holds the configured number of sessions, new
// clients are told goodbye instead of being greeted.
package ftp

import (
	"context"
	"fmt"
	"net"
	"time"

	engine "github.com/marmos91/dittoftp/internal/adapter/ftp"
	"github.com/marmos91/dittoftp/internal/logger"
	"github.com/marmos91/dittoftp/pkg/adapter"
	"github.com/marmos91/dittoftp/pkg/metrics"
)

// goodbyeLine is written to over-capacity clients in place of a greeting.
const goodbyeLine = "Bye..."

// goodbyeTimeout bounds the goodbye write so a dead peer cannot stall
// the accept loop.
const goodbyeTimeout = 5 * time.Second

// FTPAdapter serves the FTP protocol on top of the shared BaseAdapter
// lifecycle.
type FTPAdapter struct {
	*adapter.BaseAdapter

	config  FTPConfig
	engine  *engine.Engine
	metrics metrics.FTPMetrics
}

// New creates an FTP adapter with the given configuration.
//
// The users store authenticates PASS commands and, when open enrollment
// is on, creates accounts for unknown usernames. ftpMetrics may be nil,
// in which case no metrics are recorded.
//
// Panics if the configuration is invalid. Call validate() explicitly
// for graceful error handling.
func New(config FTPConfig, users engine.UserStore, ftpMetrics metrics.FTPMetrics) *FTPAdapter {
	config.ApplyDefaults()

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid FTP config: %v", err))
	}

	base := adapter.NewBaseAdapter(adapter.BaseConfig{
		BindAddress:        config.BindAddress,
		Port:               config.Port,
		ShutdownTimeout:    config.ShutdownTimeout,
		MetricsLogInterval: config.MetricsLogInterval,
	}, "FTP")

	// Connection metrics are recorded by the engine, which sees sessions
	// and data connections; the base recorder stays nil so counts are
	// not doubled.
	eng := engine.NewEngine(engine.Config{
		Root:           config.Root,
		OpenEnrollment: config.OpenEnrollment,
		IdleTimeout:    config.IdleTimeout,
		DataTimeout:    config.DataTimeout,
		ReadBufferSize: int(config.ReadBufferSize),
		ChunkSize:      int(config.ChunkSize),
	}, users, ftpMetrics)

	return &FTPAdapter{
		BaseAdapter: base,
		config:      config,
		engine:      eng,
		metrics:     ftpMetrics,
	}
}

// SessionCount returns the number of live control sessions.
func (a *FTPAdapter) SessionCount() int {
	return a.engine.SessionCount()
}

// Sessions snapshots the live sessions for the admin API.
func (a *FTPAdapter) Sessions() []engine.SessionInfo {
	return a.engine.Sessions()
}

// CloseSession force-closes the session with the given handle. Returns
// false when no such session exists.
func (a *FTPAdapter) CloseSession(handle uint64) bool {
	return a.engine.CloseSession(handle)
}

// NewConnection implements adapter.ConnectionFactory. The session is
// registered with the engine before the accept loop moves on, so the
// capacity gate in preAccept always sees an up-to-date count.
func (a *FTPAdapter) NewConnection(conn net.Conn) adapter.ConnectionHandler {
	return a.engine.NewSession(conn)
}

// Serve starts the FTP server and blocks until ctx is cancelled or Stop
// is called.
func (a *FTPAdapter) Serve(ctx context.Context) error {
	logger.Info("Starting FTP adapter",
		"port", a.config.Port,
		"root", a.config.Root,
		"capacity", a.config.Capacity,
		"open_enrollment", a.config.OpenEnrollment)

	return a.ServeWithFactory(ctx, a, a.preAccept, nil)
}

// preAccept enforces the session capacity. Clients over the limit never
// see a greeting; they get a short goodbye and the socket is closed.
func (a *FTPAdapter) preAccept(conn net.Conn) bool {
	if a.config.Capacity <= 0 || a.engine.SessionCount() < a.config.Capacity {
		return true
	}

	logger.Warn("FTP session capacity reached, turning client away",
		"client", conn.RemoteAddr().String(),
		"capacity", a.config.Capacity)

	if a.metrics != nil {
		a.metrics.RecordCapacityRejection()
	}

	_ = conn.SetWriteDeadline(time.Now().Add(goodbyeTimeout))
	_, _ = conn.Write([]byte(goodbyeLine))

	return false
}
