//go:build e2e

package framework

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

// replyTimeout bounds every control-channel read. It sits above the
// server's 2s data timeout so replies that wait on a failed dial still
// arrive in time.
const replyTimeout = 5 * time.Second

// ControlConn drives one FTP control connection with raw line reads and
// writes, so tests can pin the exact bytes the server promises.
type ControlConn struct {
	T      *testing.T
	Conn   net.Conn
	reader *bufio.Reader
}

// DialControl connects to the server's control port. The greeting is
// not consumed; tests assert it explicitly.
func (tc *TestContext) DialControl() *ControlConn {
	tc.T.Helper()

	conn, err := net.DialTimeout("tcp", tc.FTPAddr, 5*time.Second)
	if err != nil {
		tc.T.Fatalf("Failed to dial control port: %v", err)
	}
	cc := &ControlConn{T: tc.T, Conn: conn, reader: bufio.NewReader(conn)}
	tc.T.Cleanup(cc.Close)
	return cc
}

// Send writes one command line, CRLF-terminated.
func (c *ControlConn) Send(line string) {
	c.T.Helper()

	_ = c.Conn.SetWriteDeadline(time.Now().Add(replyTimeout))
	if _, err := c.Conn.Write([]byte(line + "\r\n")); err != nil {
		c.T.Fatalf("Failed to send %q: %v", line, err)
	}
}

// ReadReply reads one reply line and strips the CRLF. Every line must
// be of the form "ddd message" with the code in 100..599; anything else
// fails the test.
func (c *ControlConn) ReadReply() string {
	c.T.Helper()

	_ = c.Conn.SetReadDeadline(time.Now().Add(replyTimeout))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.T.Fatalf("Failed to read reply: %v", err)
	}
	if !strings.HasSuffix(line, "\r\n") {
		c.T.Fatalf("Reply not CRLF-terminated: %q", line)
	}

	reply := strings.TrimSuffix(line, "\r\n")
	if len(reply) < 5 || reply[3] != ' ' {
		c.T.Fatalf("Malformed reply line: %q", reply)
	}
	code, err := strconv.Atoi(reply[:3])
	if err != nil || code < 100 || code > 599 {
		c.T.Fatalf("Reply code out of range: %q", reply)
	}
	return reply
}

// Expect reads one reply and requires the exact line.
func (c *ControlConn) Expect(want string) {
	c.T.Helper()

	if got := c.ReadReply(); got != want {
		c.T.Fatalf("Reply mismatch:\n  got  %q\n  want %q", got, want)
	}
}

// ExpectCode reads one reply, requires the given code and returns the
// full line.
func (c *ControlConn) ExpectCode(code int) string {
	c.T.Helper()

	got := c.ReadReply()
	if !strings.HasPrefix(got, fmt.Sprintf("%d ", code)) {
		c.T.Fatalf("Reply code mismatch: got %q, want %d", got, code)
	}
	return got
}

// Login walks the greeting and the USER/PASS exchange.
func (c *ControlConn) Login(username, password string) {
	c.T.Helper()

	c.Expect("220 Service ready for new user.")
	c.Send("USER " + username)
	c.Expect("331 User name okay, need password.")
	c.Send("PASS " + password)
	c.Expect("230 User logged in, proceed.")
}

// Quit ends the session and verifies the server hangs up.
func (c *ControlConn) Quit() {
	c.T.Helper()

	c.Send("QUIT")
	c.Expect("221 Service closing control connection.")
	c.ExpectClosed()
}

// ExpectClosed verifies the server has shut the control socket. A reset
// counts as closed: teardown after an oversized line leaves unread
// bytes behind, which turns the close into a RST.
func (c *ControlConn) ExpectClosed() {
	c.T.Helper()

	_ = c.Conn.SetReadDeadline(time.Now().Add(replyTimeout))
	_, err := c.reader.ReadByte()
	if err == nil {
		c.T.Fatal("Expected the server to close the connection")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.T.Fatalf("Connection still open after %v", replyTimeout)
	}
}

// Close shuts the client side. Safe to call after the server hung up.
func (c *ControlConn) Close() {
	_ = c.Conn.Close()
}

// ActiveListener opens a client-side listener for a PORT transfer and
// returns it together with the matching h1,h2,h3,h4,p1,p2 argument.
func ActiveListener(t *testing.T) (net.Listener, string) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to bind data listener: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	port := l.Addr().(*net.TCPAddr).Port
	return l, PortArg("127.0.0.1", port)
}

// PortArg renders host and port in the comma form PORT carries.
func PortArg(host string, port int) string {
	return fmt.Sprintf("%s,%d,%d", strings.ReplaceAll(host, ".", ","), port/256, port%256)
}

// AcceptData accepts the single data connection of an active-mode
// transfer. The server dials as soon as it handles PORT, so the
// connection is usually already waiting in the backlog.
func AcceptData(t *testing.T, l net.Listener) net.Conn {
	t.Helper()

	if tcp, ok := l.(*net.TCPListener); ok {
		_ = tcp.SetDeadline(time.Now().Add(replyTimeout))
	}
	conn, err := l.Accept()
	if err != nil {
		t.Fatalf("Failed to accept data connection: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// ReadAll drains a connection to EOF.
func ReadAll(t *testing.T, conn net.Conn) []byte {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("Failed to read data connection: %v", err)
	}
	return data
}

// ParsePasv extracts the data port from a 227 reply, checking that both
// port bytes sit in 0..255.
func ParsePasv(t *testing.T, reply string) int {
	t.Helper()

	open := strings.Index(reply, "(")
	end := strings.Index(reply, ")")
	if open < 0 || end < open {
		t.Fatalf("227 reply without an address tuple: %q", reply)
	}

	parts := strings.Split(reply[open+1:end], ",")
	if len(parts) != 6 {
		t.Fatalf("227 tuple should have six fields: %q", reply)
	}

	var nums [6]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			t.Fatalf("227 tuple field %d out of range: %q", i, reply)
		}
		nums[i] = n
	}
	return nums[4]*256 + nums[5]
}

// FindFreePort asks the kernel for an unused TCP port.
func FindFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer func() { _ = listener.Close() }()

	return listener.Addr().(*net.TCPAddr).Port
}

// WaitForServer polls until a TCP server on the port accepts
// connections.
func WaitForServer(t *testing.T, port int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 250*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("Server on port %d not ready after %v", port, timeout)
}
