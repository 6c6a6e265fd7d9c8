package ftp

import (
	"net"
	"os"
	"sync"

	protocol "github.com/marmos91/dittoftp/internal/protocol/ftp"
)

// DataMode describes how a data connection came to exist.
type DataMode uint8

const (
	// ModePassiveListener is a PASV socket still waiting for the client.
	ModePassiveListener DataMode = iota

	// ModeActiveStream is a connection the server dialed after PORT.
	ModeActiveStream

	// ModePassiveStream is an accepted PASV connection.
	ModePassiveStream
)

// String returns the mode name for logs.
func (m DataMode) String() string {
	switch m {
	case ModePassiveListener:
		return "passive-listener"
	case ModeActiveStream:
		return "active"
	case ModePassiveStream:
		return "passive"
	default:
		return "unknown"
	}
}

// payloadKind says what the data connection will move once a transfer
// command arms it.
type payloadKind uint8

const (
	payloadEmpty payloadKind = iota
	payloadBuffer
	payloadDownload
	payloadUpload
)

// DataConn is the table record for one data channel: a passive listener,
// or an open stream plus whatever payload a transfer command armed it
// with. The owning session refers to it by handle only; the record owns
// its sockets and file exclusively and closes them when it dies.
type DataConn struct {
	handle      uint64
	peerSession uint64

	// ready is closed once a stream exists (immediately for active
	// connections, at accept time for passive ones) or when the record
	// is closed before one arrived. Transfer goroutines block on it.
	ready     chan struct{}
	readyOnce sync.Once

	mu           sync.Mutex
	mode         DataMode
	listener     *net.TCPListener
	conn         net.Conn
	closed       bool
	kind         payloadKind
	buffer       []byte
	file         *os.File
	pendingReply *protocol.Reply
}

// NewActiveDataConn wraps a stream the server dialed for PORT.
func NewActiveDataConn(peerSession uint64, conn net.Conn) *DataConn {
	d := &DataConn{
		peerSession: peerSession,
		mode:        ModeActiveStream,
		conn:        conn,
		ready:       make(chan struct{}),
	}
	d.markReady()
	return d
}

// NewPassiveDataConn wraps the listener a PASV command bound.
func NewPassiveDataConn(peerSession uint64, listener *net.TCPListener) *DataConn {
	return &DataConn{
		peerSession: peerSession,
		mode:        ModePassiveListener,
		listener:    listener,
		ready:       make(chan struct{}),
	}
}

// Handle returns the table handle.
func (d *DataConn) Handle() uint64 { return d.handle }

func (d *DataConn) setHandle(h uint64) { d.handle = h }

// PeerSession returns the handle of the owning control session.
func (d *DataConn) PeerSession() uint64 { return d.peerSession }

// Mode returns the current data-channel mode.
func (d *DataConn) Mode() DataMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *DataConn) markReady() {
	d.readyOnce.Do(func() { close(d.ready) })
}

// adoptStream installs the accepted socket and retires the listener,
// upgrading a passive listener to a passive stream. Reports false when
// the record was closed before the client arrived.
func (d *DataConn) adoptStream(conn net.Conn) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	d.mode = ModePassiveStream
	d.conn = conn
	if d.listener != nil {
		_ = d.listener.Close()
		d.listener = nil
	}
	d.markReady()
	return true
}

// acceptListener returns the passive listener, or nil once the record
// was closed or upgraded.
func (d *DataConn) acceptListener() *net.TCPListener {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listener
}

// awaitStream returns the data socket once one exists. For passive
// records this waits out the accept, which carries its own deadline; nil
// means the record died before a stream arrived.
func (d *DataConn) awaitStream() net.Conn {
	<-d.ready

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	return d.conn
}

// armBuffer loads a blob the transfer goroutine will write out. Listings
// ride this payload.
func (d *DataConn) armBuffer(payload []byte) {
	d.mu.Lock()
	d.kind = payloadBuffer
	d.buffer = payload
	d.mu.Unlock()
}

// armDownload hands the record an open file to stream to the client. The
// record owns the file from here on.
func (d *DataConn) armDownload(file *os.File) {
	d.mu.Lock()
	d.kind = payloadDownload
	d.file = file
	d.mu.Unlock()
}

// armUpload hands the record the destination file for an inbound
// transfer. pendingReply stays nil until the drain sees the last chunk.
func (d *DataConn) armUpload(file *os.File) {
	d.mu.Lock()
	d.kind = payloadUpload
	d.file = file
	d.pendingReply = nil
	d.mu.Unlock()
}

// armedFile returns the file a transfer command attached, nil once the
// record is closed.
func (d *DataConn) armedFile() *os.File {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file
}

// takeBuffer returns the armed blob.
func (d *DataConn) takeBuffer() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	payload := d.buffer
	d.buffer = nil
	return payload
}

// setPendingReply records the completion line an upload has earned. Once
// set, the record is past the point where a cascade close must wait for
// the drain.
func (d *DataConn) setPendingReply(reply protocol.Reply) {
	d.mu.Lock()
	d.pendingReply = &reply
	d.mu.Unlock()
}

// transferring reports whether a transfer command has armed the record.
func (d *DataConn) transferring() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.kind != payloadEmpty
}

// uploadInFlight reports whether the record is still draining an upload
// whose completion has not been decided. A session teardown must not
// close such a record: the drain finishes first and delivers the pending
// line itself.
func (d *DataConn) uploadInFlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.kind == payloadUpload && d.pendingReply == nil && !d.closed
}

// close shuts the record's listener, stream and file. Idempotent, and
// wakes any transfer goroutine still waiting on the stream.
func (d *DataConn) close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	if d.listener != nil {
		_ = d.listener.Close()
		d.listener = nil
	}
	if d.conn != nil {
		_ = d.conn.Close()
	}
	if d.file != nil {
		_ = d.file.Close()
		d.file = nil
	}
	d.markReady()
}
