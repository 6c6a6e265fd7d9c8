package ftp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/dittoftp/internal/logger"
	protocol "github.com/marmos91/dittoftp/internal/protocol/ftp"
	"github.com/marmos91/dittoftp/pkg/identity"
)

// Session is the table record for one control connection. The command
// loop runs on its own goroutine; transfer completions inject replies
// from theirs, serialized by the write mutex.
type Session struct {
	engine *Engine
	conn   net.Conn
	reader *bufio.Reader

	handle  uint64
	id      string
	started time.Time

	// writeMu serializes control-channel writes between the command
	// loop and transfer-completion goroutines.
	writeMu sync.Mutex

	mu            sync.Mutex
	username      string
	hasUsername   bool
	authenticated bool
	user          *identity.User
	sandbox       *Sandbox
	cwd           string
	renameFrom    string
	dataRef       uint64
}

func newSession(e *Engine, conn net.Conn) *Session {
	return &Session{
		engine:  e,
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, e.config.ReadBufferSize),
		id:      uuid.NewString(),
		started: time.Now(),
		cwd:     "./",
	}
}

// Handle returns the table handle.
func (s *Session) Handle() uint64 { return s.handle }

func (s *Session) setHandle(h uint64) { s.handle = h }

// Serve greets the client and runs the command loop until the client
// disconnects, the server shuts down, the idle timeout fires or the line
// cap is exceeded. Call it once, on its own goroutine.
func (s *Session) Serve(ctx context.Context) {
	defer s.handleClose()

	clientAddr := s.conn.RemoteAddr().String()
	logger.Info("Session started", "address", clientAddr, "session_id", s.id)

	lc := logger.NewLogContext(clientIP(clientAddr)).WithSession(s.id)
	ctx = logger.WithContext(ctx, lc)

	// The greeting is the first write on the wire; a client that sends
	// before reading it still sees 220 ahead of any command reply.
	if err := s.sendReply(protocol.ReplyServiceReady); err != nil {
		logger.DebugCtx(ctx, "Failed to send greeting", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.DebugCtx(ctx, "Session context cancelled")
			return
		default:
		}

		if s.engine.config.IdleTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.engine.config.IdleTimeout)); err != nil {
				logger.DebugCtx(ctx, "Failed to set read deadline", "error", err)
				return
			}
		}

		line, err := s.reader.ReadSlice('\n')
		if err != nil {
			s.logReadError(ctx, err)
			return
		}

		if done := s.dispatch(ctx, line); done {
			return
		}
	}
}

// logReadError classifies why the command read ended and, for an idle
// timeout, tells the client before the close.
func (s *Session) logReadError(ctx context.Context, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF):
		logger.DebugCtx(ctx, "Session closed by client")
	case errors.Is(err, bufio.ErrBufferFull):
		// Line longer than the read buffer. The protocol has no way to
		// resynchronize mid-line, so the session ends here.
		logger.WarnCtx(ctx, "Command line over limit, dropping session",
			"limit", s.engine.config.ReadBufferSize)
	case errors.As(err, &netErr) && netErr.Timeout():
		logger.InfoCtx(ctx, "Session idle timeout")
		_ = s.sendReply(protocol.ReplyShuttingDown)
	default:
		logger.DebugCtx(ctx, "Error reading command", "error", err)
	}
}

// forceClose kills the control socket out from under the command loop.
// The loop's read fails and the normal teardown runs on its goroutine.
func (s *Session) forceClose() {
	_ = s.conn.Close()
}

// handleClose recovers panics from the command loop and always runs the
// teardown, so a handler bug costs one session, not the server.
func (s *Session) handleClose() {
	if r := recover(); r != nil {
		stack := string(debug.Stack())
		logger.Error("Panic in session handler",
			"address", s.conn.RemoteAddr().String(),
			"session_id", s.id,
			"error", r,
			"stack", stack)
	}
	s.teardown()
}

// teardown cascades the close: the data record goes first, then the
// session leaves the table and the control socket closes. An upload
// still draining is left alone; its goroutine owns the record and its
// read deadline bounds how long that can take.
func (s *Session) teardown() {
	s.mu.Lock()
	ref := s.dataRef
	s.dataRef = 0
	s.mu.Unlock()

	if ref != 0 {
		if rec, ok := s.engine.table.Get(ref).(*DataConn); ok {
			if rec.uploadInFlight() {
				logger.Debug("Upload still draining at session close",
					"session_id", s.id, "data_handle", ref)
			} else {
				s.engine.table.Remove(ref)
				rec.close()
				s.engine.dataLaneChanged()
			}
		}
	}

	if s.engine.table.Remove(s.handle) != nil {
		s.engine.sessionClosed()
	}

	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug("Error closing control connection",
			"session_id", s.id, "error", err)
	}

	logger.Info("Session closed",
		"session_id", s.id,
		"duration_s", time.Since(s.started).Round(time.Second).Seconds())
}

// info snapshots the session for the admin API.
func (s *Session) info() SessionInfo {
	s.mu.Lock()
	username := s.username
	authenticated := s.authenticated
	cwd := s.cwd
	ref := s.dataRef
	s.mu.Unlock()

	state := "idle"
	switch {
	case !authenticated:
		state = "login"
	case ref != 0:
		state = "armed"
		if rec, ok := s.engine.table.Get(ref).(*DataConn); ok && rec.transferring() {
			state = "transferring"
		}
	}

	info := SessionInfo{
		Handle:     s.handle,
		ID:         s.id,
		RemoteAddr: s.conn.RemoteAddr().String(),
		State:      state,
		Age:        time.Since(s.started).Round(time.Second).String(),
	}
	if authenticated {
		info.Username = username
		info.Cwd = cwd
	}
	return info
}

func (s *Session) isAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Session) currentUsername() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// dataRefIs reports whether the session's data lane still points at ref.
func (s *Session) dataRefIs(ref uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataRef == ref
}

// clearDataRef drops the data-lane pointer if it still points at ref.
// Supersession by a newer PORT/PASV leaves the new pointer alone.
func (s *Session) clearDataRef(ref uint64) {
	s.mu.Lock()
	if s.dataRef == ref {
		s.dataRef = 0
	}
	s.mu.Unlock()
}

// replaceDataRef points the session at a fresh data record. A
// predecessor is closed and dropped: one data lane per session.
func (s *Session) replaceDataRef(ref uint64) {
	s.mu.Lock()
	old := s.dataRef
	s.dataRef = ref
	s.mu.Unlock()

	if old != 0 && old != ref {
		if rec, ok := s.engine.table.Remove(old).(*DataConn); ok {
			logger.Debug("Superseding armed data connection",
				"session_id", s.id, "data_handle", old)
			rec.close()
			s.engine.dataLaneChanged()
		}
	}
}

// dropDataConn tears down an armed data record after a command failure.
func (s *Session) dropDataConn(ref uint64) {
	if rec, ok := s.engine.table.Remove(ref).(*DataConn); ok {
		rec.close()
		s.engine.dataLaneChanged()
	}
	s.clearDataRef(ref)
}

// clientIP strips the port from a remote address for log context.
func clientIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
