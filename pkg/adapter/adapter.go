package adapter

import "context"

// Adapter represents a protocol server that can be managed by the
// dittoftp daemon.
//
// Each adapter owns one listening socket and provides a unified
// interface for lifecycle management, so the daemon can start, monitor
// and stop protocol servers without knowing their wire details.
//
// Lifecycle:
//  1. Creation: the adapter is built from protocol-specific configuration
//  2. Startup: Serve() starts the server and blocks until shutdown
//  3. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. Stop() may be called
// concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is
	// cancelled or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful
	// shutdown: stop accepting new connections, wait for active sessions
	// to complete (with timeout), clean up resources, and return.
	//
	// If Serve returns before context cancellation, the daemon treats it
	// as a fatal error.
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown of the protocol server.
	//
	// Implementations must be idempotent, safe to call concurrently with
	// Serve(), and must respect the context deadline, force-closing
	// whatever remains when it expires.
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging and
	// metrics, e.g. "FTP".
	Protocol() string

	// Port returns the TCP port the adapter is listening on.
	Port() int
}
