package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for FTP spans. Client and user keys follow OpenTelemetry
// semantic conventions where one exists; protocol keys use the ftp. prefix.
const (
	// Client attributes
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// Session attributes
	AttrSessionID     = "session.id"
	AttrSessionHandle = "session.handle"

	// Protocol attributes
	AttrFTPCommand = "ftp.command"    // verb (USER, RETR, STOR, ...)
	AttrFTPReply   = "ftp.reply_code" // three-digit reply code
	AttrFTPPath    = "ftp.path"       // request path as sent by the client

	// Data-channel attributes
	AttrTransferDirection = "transfer.direction" // list, download, upload
	AttrTransferBytes     = "transfer.bytes"
	AttrTransferMode      = "transfer.mode" // active, passive

	// User attributes
	AttrUsername = "user.name"
	AttrUID      = "user.uid"
)

// Span names. Commands trace as ftp.<VERB>; data-channel activity traces
// under a single transfer span distinguished by direction.
const (
	SpanSession  = "ftp.session"
	SpanTransfer = "ftp.transfer"
)

// ClientIP returns an attribute for the client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for the full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// SessionID returns an attribute for the session UUID
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// SessionHandle returns an attribute for the connection-table handle
func SessionHandle(handle uint64) attribute.KeyValue {
	return attribute.Int64(AttrSessionHandle, int64(handle))
}

// FTPCommand returns an attribute for the command verb
func FTPCommand(verb string) attribute.KeyValue {
	return attribute.String(AttrFTPCommand, verb)
}

// FTPReply returns an attribute for the reply code sent to the client
func FTPReply(code uint16) attribute.KeyValue {
	return attribute.Int(AttrFTPReply, int(code))
}

// FTPPath returns an attribute for the request path
func FTPPath(path string) attribute.KeyValue {
	return attribute.String(AttrFTPPath, path)
}

// TransferDirection returns an attribute for the data-channel direction
func TransferDirection(direction string) attribute.KeyValue {
	return attribute.String(AttrTransferDirection, direction)
}

// TransferBytes returns an attribute for the payload size moved
func TransferBytes(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrTransferBytes, int64(n))
}

// TransferMode returns an attribute for the data-channel mode
func TransferMode(mode string) attribute.KeyValue {
	return attribute.String(AttrTransferMode, mode)
}

// Username returns an attribute for the authenticated username
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// UID returns an attribute for the account's numeric uid
func UID(uid uint16) attribute.KeyValue {
	return attribute.Int(AttrUID, int(uid))
}

// StartCommandSpan starts a span for one command dispatch. The span is
// named ftp.<VERB> and carries the verb attribute plus any extras.
func StartCommandSpan(ctx context.Context, verb string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		FTPCommand(verb),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "ftp."+verb, trace.WithAttributes(allAttrs...))
}

// StartTransferSpan starts a span for a data-connection transfer.
// Transfers run on their own goroutines after the command reply, so these
// spans are roots rather than children of the command span.
func StartTransferSpan(ctx context.Context, direction string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		TransferDirection(direction),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanTransfer, trace.WithAttributes(allAttrs...))
}
