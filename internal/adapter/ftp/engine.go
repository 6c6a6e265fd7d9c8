// Package ftp implements the FTP protocol engine: the per-connection
// command loop, authentication against the user store, the path sandbox,
// data-connection bookkeeping and the transfer goroutines that move file
// payloads. The adapter layer in pkg/adapter/ftp owns the listener and
// hands accepted control connections to an Engine.
package ftp

import (
	"net"
	"time"

	"github.com/marmos91/dittoftp/internal/logger"
	"github.com/marmos91/dittoftp/pkg/bufpool"
	"github.com/marmos91/dittoftp/pkg/identity"
	"github.com/marmos91/dittoftp/pkg/metrics"
)

// Config carries the engine tunables. The adapter fills it from the
// validated server configuration; the engine trusts the values.
type Config struct {
	// Root is the directory holding the per-user chroots.
	Root string

	// OpenEnrollment makes PASS auto-create unknown accounts with the
	// password the client offered.
	OpenEnrollment bool

	// IdleTimeout bounds the wait for the next command line. Expiry
	// sends 421 and closes the session. Zero disables the timeout.
	IdleTimeout time.Duration

	// DataTimeout bounds data-connection dials, passive accepts and
	// per-chunk transfer reads and writes.
	DataTimeout time.Duration

	// ReadBufferSize caps the length of one command line. A longer line
	// terminates the session.
	ReadBufferSize int

	// ChunkSize is the unit of file transfer I/O.
	ChunkSize int
}

// UserStore is the slice of the identity store the engine needs.
type UserStore interface {
	// Authenticate verifies a username/password pair and returns the
	// account. Unknown accounts return identity.ErrUserNotFound, wrong
	// passwords identity.ErrInvalidCredentials.
	Authenticate(username, password string) (*identity.User, error)

	// Create provisions a new account with the given password.
	Create(username, password string) (*identity.User, error)
}

// Engine owns the connection table and the collaborators every session
// shares. One engine serves all sessions of one listener.
type Engine struct {
	config  Config
	users   UserStore
	table   *ConnTable
	chunks  *bufpool.Pool
	metrics metrics.FTPMetrics
}

// NewEngine wires an engine. m may be nil when metrics are disabled.
func NewEngine(config Config, users UserStore, m metrics.FTPMetrics) *Engine {
	return &Engine{
		config:  config,
		users:   users,
		table:   NewConnTable(),
		chunks:  bufpool.New(config.ChunkSize),
		metrics: m,
	}
}

// NewSession admits an accepted control connection into the table and
// returns its session, ready to Serve. The caller has already passed the
// capacity gate.
func (e *Engine) NewSession(conn net.Conn) *Session {
	s := newSession(e, conn)
	e.table.Insert(s)

	if e.metrics != nil {
		e.metrics.RecordConnectionAccepted()
		e.metrics.SetActiveSessions(int32(e.table.SessionCount()))
	}
	return s
}

// SessionCount returns the number of live control sessions.
func (e *Engine) SessionCount() int {
	return e.table.SessionCount()
}

// SessionInfo is the admin API's view of one live session.
type SessionInfo struct {
	Handle     uint64 `json:"handle"`
	ID         string `json:"id"`
	Username   string `json:"username,omitempty"`
	RemoteAddr string `json:"remote_addr"`
	State      string `json:"state"`
	Cwd        string `json:"cwd,omitempty"`
	Age        string `json:"age"`
}

// Sessions snapshots the live sessions for the admin API.
func (e *Engine) Sessions() []SessionInfo {
	sessions := e.table.Sessions()
	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.info())
	}
	return infos
}

// CloseSession force-closes the session with the given handle. The
// session's own goroutine notices the dead socket and runs the usual
// teardown. Returns false when no such session exists.
func (e *Engine) CloseSession(handle uint64) bool {
	s, ok := e.table.Get(handle).(*Session)
	if !ok {
		return false
	}

	logger.Info("Force-closing session", "handle", handle, "session_id", s.id)
	s.forceClose()

	if e.metrics != nil {
		e.metrics.RecordConnectionForceClosed()
	}
	return true
}

func (e *Engine) recordCommand(verb string, code uint16, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordCommand(verb, code, duration)
	}
}

func (e *Engine) recordTransfer(direction string, bytes uint64, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordTransfer(direction, bytes, duration)
	}
}

func (e *Engine) recordLogin(success bool) {
	if e.metrics != nil {
		e.metrics.RecordLogin(success)
	}
}

func (e *Engine) sessionClosed() {
	if e.metrics != nil {
		e.metrics.RecordConnectionClosed()
		e.metrics.SetActiveSessions(int32(e.table.SessionCount()))
	}
}

// dataLaneChanged refreshes the data-connection gauge after a record
// joins or leaves the table.
func (e *Engine) dataLaneChanged() {
	if e.metrics != nil {
		e.metrics.SetActiveConnections(int32(e.table.Len() - e.table.SessionCount()))
	}
}
