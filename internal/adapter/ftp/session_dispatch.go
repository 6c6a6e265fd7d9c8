package ftp

import (
	"context"
	"time"

	"github.com/marmos91/dittoftp/internal/logger"
	protocol "github.com/marmos91/dittoftp/internal/protocol/ftp"
	"github.com/marmos91/dittoftp/internal/telemetry"
)

// dispatch parses and executes one command line. The returned bool is
// true when the session should stop serving.
func (s *Session) dispatch(ctx context.Context, line []byte) bool {
	cmd, err := protocol.Parse(line)
	if err != nil {
		logger.DebugCtx(ctx, "Rejected command line", "error", err)
		if sendErr := s.sendReply(protocol.SyntaxReply(err)); sendErr != nil {
			logger.DebugCtx(ctx, "Failed to send reply", "error", sendErr)
			return true
		}
		return false
	}

	verb := cmd.Verb

	ctx, span := telemetry.StartCommandSpan(ctx, verb.String(),
		telemetry.SessionID(s.id),
		telemetry.SessionHandle(s.handle))
	defer span.End()

	if lc := logger.FromContext(ctx); lc != nil {
		lc = lc.WithCommand(verb.String()).WithUser(s.currentUsername())
		if telemetry.IsEnabled() {
			lc = lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		}
		ctx = logger.WithContext(ctx, lc)
	}

	// The verb is logged, the argument only when it is not a password.
	if verb != protocol.VerbPass && cmd.Arg != "" {
		logger.DebugCtx(ctx, "Command received", "arg", cmd.Arg)
	} else {
		logger.DebugCtx(ctx, "Command received")
	}

	start := time.Now()

	if cmd.RequiresAuth() && !s.isAuthenticated() {
		span.SetAttributes(telemetry.FTPReply(uint16(protocol.CodeNotLoggedIn)))
		s.engine.recordCommand(verb.String(), uint16(protocol.CodeNotLoggedIn), time.Since(start))
		if err := s.sendReply(protocol.ReplyNotLoggedIn); err != nil {
			logger.DebugCtx(ctx, "Failed to send reply", "error", err)
			return true
		}
		return false
	}

	reply, hook, done := s.execute(ctx, cmd)

	span.SetAttributes(telemetry.FTPReply(uint16(reply.Code)))
	s.engine.recordCommand(verb.String(), uint16(reply.Code), time.Since(start))

	if err := s.sendReplyHook(reply, hook); err != nil {
		logger.DebugCtx(ctx, "Failed to send reply", "error", err)
		return true
	}
	return done
}

// execute routes one parsed command. Every branch produces exactly one
// reply; hook, when set, runs after the reply bytes are written.
func (s *Session) execute(ctx context.Context, cmd protocol.Command) (reply protocol.Reply, hook func(), done bool) {
	switch cmd.Verb {
	case protocol.VerbUser:
		return s.handleUser(ctx, cmd), nil, false
	case protocol.VerbPass:
		return s.handlePass(ctx, cmd), nil, false
	case protocol.VerbQuit:
		return protocol.ReplyClosingControl, s.forceClose, true
	case protocol.VerbPwd:
		return s.handlePwd(), nil, false
	case protocol.VerbCwd:
		return s.handleCwd(ctx, cmd), nil, false
	case protocol.VerbMkd:
		return s.handleMkd(ctx, cmd), nil, false
	case protocol.VerbDele:
		return s.handleDele(ctx, cmd), nil, false
	case protocol.VerbRmd:
		return s.handleRmd(ctx, cmd), nil, false
	case protocol.VerbRnfr:
		return s.handleRnfr(ctx, cmd), nil, false
	case protocol.VerbRnto:
		return s.handleRnto(ctx, cmd), nil, false
	case protocol.VerbList:
		reply, hook = s.handleList(ctx, cmd)
		return reply, hook, false
	case protocol.VerbRetr:
		reply, hook = s.handleRetr(ctx, cmd)
		return reply, hook, false
	case protocol.VerbStor:
		reply, hook = s.handleStor(ctx, cmd)
		return reply, hook, false
	case protocol.VerbPort:
		return s.handlePort(ctx, cmd), nil, false
	case protocol.VerbPasv:
		reply, hook = s.handlePasv(ctx)
		return reply, hook, false
	default:
		// Parse never yields a verb outside the set above.
		return protocol.SyntaxReply(protocol.ErrUnknownVerb), nil, false
	}
}
