package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that sessions,
// commands, and transfers can be correlated in log aggregation queries.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// Protocol
	KeyCommand = "command" // FTP verb: USER, RETR, STOR, LIST, ...
	KeyCode    = "code"    // Three-digit reply code sent on the control channel
	KeyHandle  = "handle"  // Connection table handle

	// Filesystem
	KeyPath    = "path"     // Sandbox-resolved path
	KeyOldPath = "old_path" // Rename source
	KeyNewPath = "new_path" // Rename destination

	// Transfers
	KeyBytes     = "bytes"     // Bytes moved on the data channel
	KeyDirection = "direction" // "upload" or "download"

	// Client identification
	KeyClientIP  = "client_ip"  // Client IP address
	KeyUsername  = "username"   // Authenticated username
	KeySessionID = "session_id" // Session UUID

	// Operation metadata
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// Field constructors for type safety.

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Command returns a slog.Attr for the FTP verb being handled
func Command(verb string) slog.Attr {
	return slog.String(KeyCommand, verb)
}

// Code returns a slog.Attr for a control-channel reply code
func Code(code int) slog.Attr {
	return slog.Int(KeyCode, code)
}

// Handle returns a slog.Attr for a connection table handle
func Handle(h uint64) slog.Attr {
	return slog.Uint64(KeyHandle, h)
}

// Path returns a slog.Attr for a filesystem path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// OldPath returns a slog.Attr for a rename source path
func OldPath(p string) slog.Attr {
	return slog.String(KeyOldPath, p)
}

// NewPath returns a slog.Attr for a rename destination path
func NewPath(p string) slog.Attr {
	return slog.String(KeyNewPath, p)
}

// Bytes returns a slog.Attr for bytes moved on the data channel
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Direction returns a slog.Attr for the transfer direction
func Direction(d string) slog.Attr {
	return slog.String(KeyDirection, d)
}

// ClientIP returns a slog.Attr for the client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Username returns a slog.Attr for the authenticated username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// SessionID returns a slog.Attr for the session UUID
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
