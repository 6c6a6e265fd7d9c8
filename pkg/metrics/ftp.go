package metrics

import (
	"time"
)

// FTPMetrics provides observability for FTP adapter operations.
//
// Implementations collect metrics about control-channel commands, data
// transfers, session lifecycle, and authentication outcomes. This interface
// is optional - pass nil to disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	adapter := ftp.New(config, store, prometheus.NewFTPMetrics())
//
//	// Without metrics (pass nil for zero overhead)
//	adapter := ftp.New(config, store, nil)
type FTPMetrics interface {
	// RecordCommand records a completed control-channel command.
	//
	// Parameters:
	//   - verb: FTP command verb (e.g., "RETR", "LIST", "PASS")
	//   - code: Numeric reply code sent to the client (e.g., 226, 550)
	//   - duration: Time taken to process the command
	RecordCommand(verb string, code uint16, duration time.Duration)

	// RecordTransfer records a completed data-channel transfer.
	//
	// Parameters:
	//   - kind: "list", "download" or "upload"
	//   - bytes: Number of payload bytes moved
	//   - duration: Time from transfer start to completion
	RecordTransfer(kind string, bytes uint64, duration time.Duration)

	// RecordLogin records an authentication attempt outcome.
	//
	// Parameters:
	//   - success: Whether the PASS exchange ended in a 230 reply
	RecordLogin(success bool)

	// RecordCapacityRejection increments the counter of connections refused
	// at the capacity gate before a session was admitted.
	RecordCapacityRejection()

	// SetActiveSessions updates the live session gauge.
	//
	// Parameters:
	//   - count: Current number of admitted control connections
	SetActiveSessions(count int32)

	// SetActiveConnections updates the current connection count.
	//
	// Parameters:
	//   - count: Current number of active connections
	SetActiveConnections(count int32)

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed increments the force-closed connections counter.
	// Called when connections are forcibly closed after shutdown timeout.
	RecordConnectionForceClosed()
}
