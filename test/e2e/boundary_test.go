//go:build e2e

package e2e

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoftp/test/e2e/framework"
)

// TestUploadSurvivesSessionBoundary stores a file on one session and
// retrieves it on a brand new one.
func TestUploadSurvivesSessionBoundary(t *testing.T) {
	tc := framework.NewTestContext(t)
	tc.CreateUser("u", "p")
	payload := binaryPayload(4109)

	c1 := tc.DialControl()
	c1.Login("u", "p")

	l, portArg := framework.ActiveListener(t)
	c1.Send("PORT " + portArg)
	c1.Expect("200 Command okay.")
	c1.Send("STOR handoff.bin")
	c1.Expect("150 File status okay; about to open data connection.")

	data := framework.AcceptData(t, l)
	if _, err := data.Write(payload); err != nil {
		t.Fatalf("Failed to write upload payload: %v", err)
	}
	if err := data.Close(); err != nil {
		t.Fatalf("Failed to close data connection: %v", err)
	}
	c1.Expect("226 Closing data connection. Requested file action successful (for example, file transfer or file abort).")
	c1.Quit()

	c2 := tc.DialControl()
	c2.Login("u", "p")

	c2.Send("PASV")
	port := framework.ParsePasv(t, c2.ExpectCode(227))
	down, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to dial passive port: %v", err)
	}
	defer func() { _ = down.Close() }()

	c2.Expect("200 Command okay.")
	c2.Send("RETR handoff.bin")
	c2.Expect("150 File download starts!")

	got := framework.ReadAll(t, down)
	if !bytes.Equal(got, payload) {
		t.Fatalf("Cross-session round-trip mismatch: got %d bytes, want %d", len(got), len(payload))
	}
	c2.Expect("226 Closing data connection. Requested file action successful. (file transfer)")
}

// TestMkdTwice creates the same directory twice. The first attempt
// succeeds with 257, the second fails with 550, and the directory is
// there either way.
func TestMkdTwice(t *testing.T) {
	tc := framework.NewTestContext(t)
	user := tc.CreateUser("u", "p")

	c := tc.DialControl()
	c.Login("u", "p")

	c.Send("MKD p")
	c.Expect(`257 "/p" created.`)
	c.Send("MKD p")
	c.Expect("550 Requested action not taken. File unavailable, no access.")

	info, err := os.Stat(filepath.Join(user.Chroot, "p"))
	if err != nil || !info.IsDir() {
		t.Fatalf("Directory p missing after MKD: %v", err)
	}
}

// TestPasvPortEncoding checks the 227 byte arithmetic by dialing the
// port the reply advertises.
func TestPasvPortEncoding(t *testing.T) {
	tc := framework.NewTestContext(t)
	tc.CreateUser("u", "p")

	c := tc.DialControl()
	c.Login("u", "p")

	c.Send("PASV")
	port := framework.ParsePasv(t, c.ExpectCode(227))

	// Connecting proves p1*256+p2 names the real listener.
	data, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 5*time.Second)
	if err != nil {
		t.Fatalf("Advertised port %d not reachable: %v", port, err)
	}
	c.Expect("200 Command okay.")
	_ = data.Close()

	c.Quit()
}

// TestCommandLineLengthLimit sends a request line exactly at the read
// buffer size, then one byte over. The first parses and fails on the
// path; the second ends the session mid-line with no reply.
func TestCommandLineLengthLimit(t *testing.T) {
	tc := framework.NewTestContext(t)
	tc.CreateUser("u", "p")

	c := tc.DialControl()
	c.Login("u", "p")

	const limit = 10 * 1024
	arg := strings.Repeat("x", limit-len("CWD ")-len("\r\n"))

	c.Send("CWD " + arg)
	c.Expect("550 Directory not found")

	// Still alive.
	c.Send("PWD")
	c.Expect(`257 "/" is the current directory.`)

	c.Send("CWD " + arg + "x")
	c.ExpectClosed()
}

// TestPortByteExtremes sends PORT tuples at both ends of the byte
// range. They parse; the dial that follows fails, which surfaces as a
// 503 rather than a syntax error, and the session stays usable.
func TestPortByteExtremes(t *testing.T) {
	tc := framework.NewTestContext(t)
	tc.CreateUser("u", "p")

	c := tc.DialControl()
	c.Login("u", "p")

	c.Send("PORT 0,0,0,0,0,0")
	c.Expect("503 Bad sequence of commands.")

	c.Send("PORT 255,255,255,255,255,255")
	c.Expect("503 Bad sequence of commands.")

	c.Send("PWD")
	c.Expect(`257 "/" is the current directory.`)
}

// TestCwdParentClampsAtRoot walks ".." at and above the chroot root;
// the working directory never leaves "/".
func TestCwdParentClampsAtRoot(t *testing.T) {
	tc := framework.NewTestContext(t)
	user := tc.CreateUser("u", "p")
	tc.SeedDir(user, "sub")

	c := tc.DialControl()
	c.Login("u", "p")

	c.Send("CWD ..")
	c.Expect("250 Requested file action okay, completed.")
	c.Send("PWD")
	c.Expect(`257 "/" is the current directory.`)

	c.Send("CWD sub")
	c.Expect("250 Requested file action okay, completed.")
	c.Send("PWD")
	c.Expect(`257 "/sub" is the current directory.`)

	c.Send("CWD ../../..")
	c.Expect("250 Requested file action okay, completed.")
	c.Send("PWD")
	c.Expect(`257 "/" is the current directory.`)
}

// TestSymlinkEscapeRejected plants a symlink pointing outside the
// chroot. Navigation and transfers both refuse to follow it.
func TestSymlinkEscapeRejected(t *testing.T) {
	tc := framework.NewTestContext(t)
	user := tc.CreateUser("u", "p")

	outside := filepath.Join(tc.Root, "other")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatalf("Failed to create outside directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatalf("Failed to write outside file: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(user.Chroot, "escape")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	c := tc.DialControl()
	c.Login("u", "p")

	c.Send("CWD escape")
	c.Expect("550 Invalid directory")

	c.Send("PASV")
	port := framework.ParsePasv(t, c.ExpectCode(227))
	data, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to dial passive port: %v", err)
	}
	defer func() { _ = data.Close() }()
	c.Expect("200 Command okay.")

	c.Send("RETR ./escape/secret.txt")
	c.Expect("550 Requested action not taken. File unavailable, no access.")

	// The armed data connection is torn down with the refusal.
	if leaked := framework.ReadAll(t, data); len(leaked) != 0 {
		t.Fatalf("Data leaked through rejected transfer: %q", leaked)
	}
}

// TestZeroByteTransfers moves empty payloads in both directions.
func TestZeroByteTransfers(t *testing.T) {
	tc := framework.NewTestContext(t)
	user := tc.CreateUser("u", "p")

	c := tc.DialControl()
	c.Login("u", "p")

	l, portArg := framework.ActiveListener(t)
	c.Send("PORT " + portArg)
	c.Expect("200 Command okay.")
	c.Send("STOR empty.bin")
	c.Expect("150 File status okay; about to open data connection.")

	data := framework.AcceptData(t, l)
	if err := data.Close(); err != nil {
		t.Fatalf("Failed to close data connection: %v", err)
	}
	c.Expect("226 Closing data connection. Requested file action successful (for example, file transfer or file abort).")

	info, err := os.Stat(filepath.Join(user.Chroot, "empty.bin"))
	if err != nil {
		t.Fatalf("Zero-byte STOR left no file: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("Zero-byte STOR wrote %d bytes", info.Size())
	}

	c.Send("PASV")
	port := framework.ParsePasv(t, c.ExpectCode(227))
	down, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to dial passive port: %v", err)
	}
	defer func() { _ = down.Close() }()
	c.Expect("200 Command okay.")

	c.Send("RETR empty.bin")
	c.Expect("150 File download starts!")
	if got := framework.ReadAll(t, down); len(got) != 0 {
		t.Fatalf("Zero-byte RETR delivered %d bytes", len(got))
	}
	c.Expect("226 Closing data connection. Requested file action successful. (file transfer)")
}

// TestSessionCapacityGoodbye fills the session table and watches the
// next client get turned away, then greeted again once a slot frees.
func TestSessionCapacityGoodbye(t *testing.T) {
	tc := framework.NewTestContextWithOptions(t, framework.TestContextOptions{Capacity: 1})

	c1 := tc.DialControl()
	c1.Expect("220 Service ready for new user.")

	c2 := tc.DialControl()
	if got := framework.ReadAll(t, c2.Conn); string(got) != "Bye..." {
		t.Fatalf("Over-capacity client read %q, want %q", got, "Bye...")
	}

	c1.Quit()
	require.Eventually(t, func() bool { return tc.FTP.SessionCount() == 0 },
		5*time.Second, 10*time.Millisecond, "session table did not drain")

	c3 := tc.DialControl()
	c3.Expect("220 Service ready for new user.")
}

// TestIdleTimeout lets a control connection sit silent until the server
// sends a 421 and hangs up.
func TestIdleTimeout(t *testing.T) {
	tc := framework.NewTestContextWithOptions(t, framework.TestContextOptions{
		IdleTimeout: 300 * time.Millisecond,
	})

	c := tc.DialControl()
	c.Expect("220 Service ready for new user.")
	c.Expect("421 Service not available, closing control connection.")
	c.ExpectClosed()
}
