package ftp

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/marmos91/dittoftp/internal/logger"
	protocol "github.com/marmos91/dittoftp/internal/protocol/ftp"
	"github.com/marmos91/dittoftp/pkg/identity"
)

// pathReply carries a sandbox failure back on the 550 code with the
// sandbox's own message.
func pathReply(err error) protocol.Reply {
	return protocol.NewReply(protocol.CodeFileUnavailable, err.Error())
}

// transferPathReply maps a sandbox failure on LIST/RETR/STOR onto the
// canned 550 lines: escapes read as access problems, everything else as
// a missing file.
func transferPathReply(err error) protocol.Reply {
	if errors.Is(err, ErrInvalidDirectory) {
		return protocol.ReplyNoAccess
	}
	return protocol.ReplyFileNotFound
}

// fsState snapshots the sandbox and working directory. Only called on
// authenticated sessions, where both are set.
func (s *Session) fsState() (*Sandbox, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sandbox, s.cwd
}

func (s *Session) handleUser(ctx context.Context, cmd protocol.Command) protocol.Reply {
	s.mu.Lock()
	s.username = cmd.Arg
	s.hasUsername = true
	s.authenticated = false
	s.user = nil
	s.mu.Unlock()

	logger.DebugCtx(ctx, "Username selected", "username", cmd.Arg)
	return protocol.ReplyUsernameOkay
}

func (s *Session) handlePass(ctx context.Context, cmd protocol.Command) protocol.Reply {
	s.mu.Lock()
	hasUsername := s.hasUsername
	username := s.username
	s.mu.Unlock()

	if !hasUsername {
		return protocol.ReplyNeedUsername
	}

	user, err := s.engine.users.Authenticate(username, cmd.Arg)
	switch {
	case err == nil:

	case errors.Is(err, identity.ErrUserNotFound) && s.engine.config.OpenEnrollment:
		user, err = s.engine.users.Create(username, cmd.Arg)
		if err != nil {
			logger.WarnCtx(ctx, "Enrollment failed", "username", username, "error", err)
			s.engine.recordLogin(false)
			return protocol.ReplyNotLoggedIn
		}
		logger.InfoCtx(ctx, "Account enrolled", "username", username, "uid", user.UID)

	default:
		logger.DebugCtx(ctx, "Login rejected", "username", username, "error", err)
		s.engine.recordLogin(false)
		return protocol.ReplyNotLoggedIn
	}

	sandbox, err := NewSandbox(user.Chroot)
	if err != nil {
		logger.ErrorCtx(ctx, "Chroot unavailable",
			"username", username, "chroot", user.Chroot, "error", err)
		s.engine.recordLogin(false)
		return protocol.ReplyNotLoggedIn
	}

	s.mu.Lock()
	s.authenticated = true
	s.user = user
	s.sandbox = sandbox
	s.cwd = "./"
	s.mu.Unlock()

	s.engine.recordLogin(true)
	logger.InfoCtx(ctx, "User logged in", "username", username)
	return protocol.ReplyLoginSuccess
}

func (s *Session) handlePwd() protocol.Reply {
	s.mu.Lock()
	cwd := s.cwd
	s.mu.Unlock()

	// cwd is "./"-rooted; the client sees the "/"-rooted form.
	return protocol.WorkingDirReply(strings.TrimPrefix(cwd, "."))
}

func (s *Session) handleCwd(ctx context.Context, cmd protocol.Command) protocol.Reply {
	sandbox, cwd := s.fsState()

	canonical, err := sandbox.Resolve(cwd, cmd.Arg)
	if err != nil {
		return pathReply(err)
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return pathReply(ErrDirectoryNotFound)
	}

	s.mu.Lock()
	s.cwd = sandbox.Relative(canonical)
	s.mu.Unlock()

	logger.DebugCtx(ctx, "Changed directory", "cwd", sandbox.Display(canonical))
	return protocol.ReplyFileActionOkay
}

func (s *Session) handleMkd(ctx context.Context, cmd protocol.Command) protocol.Reply {
	sandbox, cwd := s.fsState()

	target, err := sandbox.ResolveParent(cwd, cmd.Arg)
	if err != nil {
		return pathReply(err)
	}
	if err := os.Mkdir(target, 0o755); err != nil {
		logger.DebugCtx(ctx, "mkdir failed", "path", target, "error", err)
		return protocol.ReplyNoAccess
	}
	return protocol.CreatedReply(sandbox.Display(target))
}

func (s *Session) handleDele(ctx context.Context, cmd protocol.Command) protocol.Reply {
	sandbox, cwd := s.fsState()

	canonical, err := sandbox.Resolve(cwd, cmd.Arg)
	if err != nil {
		return pathReply(err)
	}
	info, err := os.Stat(canonical)
	if err != nil || info.IsDir() {
		return protocol.ReplyNoAccess
	}
	if err := os.Remove(canonical); err != nil {
		logger.DebugCtx(ctx, "remove failed", "path", canonical, "error", err)
		return protocol.ReplyNoAccess
	}
	return protocol.ReplyFileActionOkay
}

func (s *Session) handleRmd(ctx context.Context, cmd protocol.Command) protocol.Reply {
	sandbox, cwd := s.fsState()

	canonical, err := sandbox.Resolve(cwd, cmd.Arg)
	if err != nil {
		return pathReply(err)
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return protocol.ReplyNoAccess
	}
	// The chroot itself stays.
	if canonical == sandbox.Root() {
		return protocol.ReplyNoAccess
	}
	if err := os.RemoveAll(canonical); err != nil {
		logger.DebugCtx(ctx, "rmdir failed", "path", canonical, "error", err)
		return protocol.ReplyNoAccess
	}
	return protocol.ReplyFileActionOkay
}

func (s *Session) handleRnfr(ctx context.Context, cmd protocol.Command) protocol.Reply {
	sandbox, cwd := s.fsState()

	canonical, err := sandbox.Resolve(cwd, cmd.Arg)
	if err != nil {
		return pathReply(err)
	}

	s.mu.Lock()
	s.renameFrom = canonical
	s.mu.Unlock()

	logger.DebugCtx(ctx, "Rename source selected", "path", canonical)
	return protocol.ReplyActionPending
}

func (s *Session) handleRnto(ctx context.Context, cmd protocol.Command) protocol.Reply {
	s.mu.Lock()
	from := s.renameFrom
	s.renameFrom = ""
	s.mu.Unlock()

	if from == "" {
		return protocol.ReplyBadSequence
	}

	sandbox, cwd := s.fsState()
	target, err := sandbox.ResolveParent(cwd, cmd.Arg)
	if err != nil {
		return pathReply(err)
	}
	if err := os.Rename(from, target); err != nil {
		logger.DebugCtx(ctx, "rename failed", "old_path", from, "new_path", target, "error", err)
		return protocol.ReplyNoAccess
	}
	return protocol.ReplyFileActionOkay
}

func (s *Session) handleList(ctx context.Context, cmd protocol.Command) (protocol.Reply, func()) {
	s.mu.Lock()
	sandbox, cwd, ref := s.sandbox, s.cwd, s.dataRef
	s.mu.Unlock()

	if ref == 0 {
		return protocol.ReplyBadSequence, nil
	}

	canonical, err := sandbox.Resolve(cwd, cmd.Arg)
	if err != nil {
		s.dropDataConn(ref)
		return transferPathReply(err), nil
	}

	payload, err := Listing(sandbox, canonical)
	if err != nil {
		logger.DebugCtx(ctx, "Listing failed", "path", canonical, "error", err)
		s.dropDataConn(ref)
		return protocol.ReplyFileNotFound, nil
	}

	rec, ok := s.engine.table.Get(ref).(*DataConn)
	if !ok {
		s.clearDataRef(ref)
		return protocol.ReplyCantOpenData, nil
	}

	hook := func() {
		rec.armBuffer(payload)
		go s.runBufferTransfer(rec)
	}
	return protocol.ReplyOpeningData, hook
}

func (s *Session) handleRetr(ctx context.Context, cmd protocol.Command) (protocol.Reply, func()) {
	s.mu.Lock()
	sandbox, cwd, ref := s.sandbox, s.cwd, s.dataRef
	s.mu.Unlock()

	if ref == 0 {
		return protocol.ReplyBadSequence, nil
	}

	canonical, err := sandbox.Resolve(cwd, cmd.Arg)
	if err != nil {
		s.dropDataConn(ref)
		return transferPathReply(err), nil
	}

	file, err := os.Open(canonical)
	if err != nil {
		logger.DebugCtx(ctx, "open failed", "path", canonical, "error", err)
		s.dropDataConn(ref)
		return protocol.ReplyFileNotFound, nil
	}

	rec, ok := s.engine.table.Get(ref).(*DataConn)
	if !ok {
		_ = file.Close()
		s.clearDataRef(ref)
		return protocol.ReplyCantOpenData, nil
	}

	hook := func() {
		rec.armDownload(file)
		go s.runDownload(rec)
	}
	return protocol.ReplyDownloadStarts, hook
}

func (s *Session) handleStor(ctx context.Context, cmd protocol.Command) (protocol.Reply, func()) {
	s.mu.Lock()
	sandbox, cwd, ref := s.sandbox, s.cwd, s.dataRef
	s.mu.Unlock()

	if ref == 0 {
		return protocol.ReplyBadSequence, nil
	}

	target, err := sandbox.ResolveParent(cwd, cmd.Arg)
	if err != nil {
		s.dropDataConn(ref)
		return transferPathReply(err), nil
	}

	file, err := os.Create(target)
	if err != nil {
		logger.DebugCtx(ctx, "create failed", "path", target, "error", err)
		s.dropDataConn(ref)
		return protocol.ReplyNoAccess, nil
	}

	rec, ok := s.engine.table.Get(ref).(*DataConn)
	if !ok {
		_ = file.Close()
		s.clearDataRef(ref)
		return protocol.ReplyCantOpenData, nil
	}

	hook := func() {
		rec.armUpload(file)
		go s.runUpload(rec)
	}
	return protocol.ReplyOpeningData, hook
}

func (s *Session) handlePort(ctx context.Context, cmd protocol.Command) protocol.Reply {
	addr := net.JoinHostPort(cmd.Addr.String(), strconv.Itoa(int(cmd.Port)))

	dialer := net.Dialer{Timeout: s.engine.config.DataTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		logger.DebugCtx(ctx, "Active data dial failed", "address", addr, "error", err)
		return protocol.ReplyBadSequence
	}

	rec := NewActiveDataConn(s.handle, conn)
	s.engine.table.Insert(rec)
	s.engine.dataLaneChanged()
	s.replaceDataRef(rec.Handle())

	logger.DebugCtx(ctx, "Active data connection open",
		"address", addr, "data_handle", rec.Handle())
	return protocol.ReplyCommandOkay
}

func (s *Session) handlePasv(ctx context.Context) (protocol.Reply, func()) {
	listener, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		logger.WarnCtx(ctx, "Passive bind failed", "error", err)
		return protocol.ReplyCantOpenPort, nil
	}
	tcpListener := listener.(*net.TCPListener)
	port := uint16(tcpListener.Addr().(*net.TCPAddr).Port)

	rec := NewPassiveDataConn(s.handle, tcpListener)
	s.engine.table.Insert(rec)
	s.engine.dataLaneChanged()
	s.replaceDataRef(rec.Handle())

	logger.DebugCtx(ctx, "Passive listener bound",
		"port", port, "data_handle", rec.Handle())

	hook := func() {
		go s.runPassiveAccept(rec)
	}
	return protocol.PassiveReply(port), hook
}
