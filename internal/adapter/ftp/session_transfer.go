package ftp

import (
	"context"
	"io"
	"time"

	"github.com/marmos91/dittoftp/internal/logger"
	protocol "github.com/marmos91/dittoftp/internal/protocol/ftp"
	"github.com/marmos91/dittoftp/internal/telemetry"
)

// runPassiveAccept waits for the client to connect to a PASV listener
// and upgrades the record to a live stream. Runs once per passive
// record, started right after the 227 goes out.
func (s *Session) runPassiveAccept(rec *DataConn) {
	listener := rec.acceptListener()
	if listener == nil {
		return
	}

	if timeout := s.engine.config.DataTimeout; timeout > 0 {
		_ = listener.SetDeadline(time.Now().Add(timeout))
	}

	conn, err := listener.Accept()
	if err != nil {
		logger.Debug("Passive accept failed",
			"session_id", s.id, "data_handle", rec.Handle(), "error", err)
		s.dropDataConn(rec.Handle())
		return
	}

	// Confirm on the control channel, unless a later PORT or PASV
	// already superseded this record. The confirmation goes out before
	// the stream is adopted: adoption wakes any armed transfer, whose
	// completion line must not overtake this one.
	if s.dataRefIs(rec.Handle()) {
		_ = s.sendReply(protocol.ReplyCommandOkay)
	}

	if !rec.adoptStream(conn) {
		// Record died while we were waiting.
		_ = conn.Close()
		return
	}

	logger.Debug("Passive data connection accepted",
		"session_id", s.id, "data_handle", rec.Handle(),
		"remote", conn.RemoteAddr().String())
}

// runBufferTransfer writes an armed blob to the data connection in one
// shot. Directory listings ride this path.
func (s *Session) runBufferTransfer(rec *DataConn) {
	ctx, span := telemetry.StartTransferSpan(context.Background(), "list",
		telemetry.SessionID(s.id),
		telemetry.SessionHandle(s.handle))
	defer span.End()

	start := time.Now()

	conn := rec.awaitStream()
	if conn == nil {
		s.finishTransfer(rec, protocol.ReplyTransferSocketError)
		return
	}

	payload := rec.takeBuffer()
	if timeout := s.engine.config.DataTimeout; timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if _, err := conn.Write(payload); err != nil {
		logger.Debug("Listing write failed",
			"session_id", s.id, "data_handle", rec.Handle(), "error", err)
		telemetry.RecordError(ctx, err)
		s.finishTransfer(rec, protocol.ReplyTransferSocketError)
		return
	}

	span.SetAttributes(
		telemetry.TransferBytes(uint64(len(payload))),
		telemetry.TransferMode(rec.Mode().String()))
	s.engine.recordTransfer("list", uint64(len(payload)), time.Since(start))
	s.finishTransfer(rec, protocol.ReplyTransferDone)
}

// runDownload streams the armed file to the client chunk by chunk.
func (s *Session) runDownload(rec *DataConn) {
	ctx, span := telemetry.StartTransferSpan(context.Background(), "download",
		telemetry.SessionID(s.id),
		telemetry.SessionHandle(s.handle))
	defer span.End()

	start := time.Now()

	conn := rec.awaitStream()
	if conn == nil {
		s.finishTransfer(rec, protocol.ReplyTransferSocketError)
		return
	}
	file := rec.armedFile()
	if file == nil {
		s.finishTransfer(rec, protocol.ReplyTransferSocketError)
		return
	}

	var sent uint64
	chunk := s.engine.chunks.Get()
	defer s.engine.chunks.Put(chunk)
	for {
		n, err := file.Read(chunk)
		if n > 0 {
			if timeout := s.engine.config.DataTimeout; timeout > 0 {
				_ = conn.SetWriteDeadline(time.Now().Add(timeout))
			}
			if _, werr := conn.Write(chunk[:n]); werr != nil {
				logger.Debug("Download write failed",
					"session_id", s.id, "data_handle", rec.Handle(), "error", werr)
				telemetry.RecordError(ctx, werr)
				s.finishTransfer(rec, protocol.ReplyTransferSocketError)
				return
			}
			sent += uint64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Debug("Download read failed",
				"session_id", s.id, "data_handle", rec.Handle(), "error", err)
			telemetry.RecordError(ctx, err)
			s.finishTransfer(rec, protocol.ReplyTransferFileError)
			return
		}
	}

	span.SetAttributes(
		telemetry.TransferBytes(sent),
		telemetry.TransferMode(rec.Mode().String()))
	s.engine.recordTransfer("download", sent, time.Since(start))
	s.finishTransfer(rec, protocol.ReplyDownloadDone)
}

// runUpload drains the data connection into the armed file until the
// client closes its side.
func (s *Session) runUpload(rec *DataConn) {
	ctx, span := telemetry.StartTransferSpan(context.Background(), "upload",
		telemetry.SessionID(s.id),
		telemetry.SessionHandle(s.handle))
	defer span.End()

	start := time.Now()

	conn := rec.awaitStream()
	if conn == nil {
		s.finishTransfer(rec, protocol.ReplyTransferSocketError)
		return
	}
	file := rec.armedFile()
	if file == nil {
		s.finishTransfer(rec, protocol.ReplyTransferSocketError)
		return
	}

	var received uint64
	chunk := s.engine.chunks.Get()
	defer s.engine.chunks.Put(chunk)
	for {
		// Each chunk gets a fresh deadline so a stalled client cannot
		// hold the drain open forever.
		if timeout := s.engine.config.DataTimeout; timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(timeout))
		}
		n, err := conn.Read(chunk)
		if n > 0 {
			if _, werr := file.Write(chunk[:n]); werr != nil {
				logger.Warn("Upload write failed",
					"session_id", s.id, "data_handle", rec.Handle(), "error", werr)
				telemetry.RecordError(ctx, werr)
				rec.setPendingReply(protocol.ReplyUploadFailed)
				s.finishTransfer(rec, protocol.ReplyUploadFailed)
				return
			}
			received += uint64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Debug("Upload read failed",
				"session_id", s.id, "data_handle", rec.Handle(), "error", err)
			telemetry.RecordError(ctx, err)
			rec.setPendingReply(protocol.ReplyTransferSocketError)
			s.finishTransfer(rec, protocol.ReplyTransferSocketError)
			return
		}
	}

	rec.setPendingReply(protocol.ReplyTransferDone)
	span.SetAttributes(
		telemetry.TransferBytes(received),
		telemetry.TransferMode(rec.Mode().String()))
	s.engine.recordTransfer("upload", received, time.Since(start))
	s.finishTransfer(rec, protocol.ReplyTransferDone)
}

// finishTransfer retires a data record and delivers the one completion
// line every transfer owes the control channel. Safe to call on records
// a session teardown already closed.
func (s *Session) finishTransfer(rec *DataConn, reply protocol.Reply) {
	rec.close()
	if s.engine.table.Remove(rec.Handle()) != nil {
		s.engine.dataLaneChanged()
	}
	s.clearDataRef(rec.Handle())

	if err := s.sendReply(reply); err != nil {
		logger.Debug("Completion reply not delivered",
			"session_id", s.id, "data_handle", rec.Handle(), "error", err)
	}
}
