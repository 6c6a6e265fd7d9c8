package ftp

import (
	"fmt"
	"time"

	"github.com/marmos91/dittoftp/internal/logger"
	protocol "github.com/marmos91/dittoftp/internal/protocol/ftp"
)

// sendReply writes one reply line on the control connection.
func (s *Session) sendReply(reply protocol.Reply) error {
	return s.sendReplyHook(reply, nil)
}

// sendReplyHook writes the reply and then runs hook outside the write
// mutex, exactly once and only after the bytes are fully written. The
// hook is how "reply first, then act" is expressed: a 150's hook starts
// the data channel moving only after the 150 is on the wire, and QUIT's
// hook shuts the socket behind the 221.
func (s *Session) sendReplyHook(reply protocol.Reply, hook func()) error {
	s.writeMu.Lock()

	// A bounded write keeps a wedged client from pinning a completion
	// goroutine on the mutex forever.
	if s.engine.config.IdleTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.engine.config.IdleTimeout))
	}
	_, err := s.conn.Write(reply.Bytes())
	s.writeMu.Unlock()

	if err != nil {
		return fmt.Errorf("write reply: %w", err)
	}

	logger.Debug("Sent reply", "session_id", s.id, "reply", reply.String())

	if hook != nil {
		hook()
	}
	return nil
}
