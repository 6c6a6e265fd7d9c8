//go:build e2e

package e2e

import (
	"net/textproto"
	"testing"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoftp/test/e2e/framework"
)

// TestStockClientDialAndQuit points an off-the-shelf FTP client at the
// server. The greeting and the QUIT exchange must parse cleanly through
// an independent implementation.
func TestStockClientDialAndQuit(t *testing.T) {
	tc := framework.NewTestContext(t)

	conn, err := ftp.Dial(tc.FTPAddr, ftp.DialWithTimeout(5*time.Second))
	require.NoError(t, err)
	require.NoError(t, conn.Quit())
}

// TestStockClientLoginStopsAtType walks the stock client's login
// sequence. USER and PASS go through; the TYPE negotiation the client
// then insists on sits outside the supported command set, so the call
// surfaces the server's 500.
func TestStockClientLoginStopsAtType(t *testing.T) {
	tc := framework.NewTestContext(t)
	tc.CreateUser("u", "p")

	conn, err := ftp.Dial(tc.FTPAddr, ftp.DialWithTimeout(5*time.Second))
	require.NoError(t, err)
	defer func() { _ = conn.Quit() }()

	err = conn.Login("u", "p")
	require.Error(t, err)

	var protoErr *textproto.Error
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, 500, protoErr.Code)
}

// TestStockClientBadPassword checks that a login failure comes back to
// the stock client as the 530 on PASS, before any TYPE negotiation.
func TestStockClientBadPassword(t *testing.T) {
	tc := framework.NewTestContextWithOptions(t, framework.TestContextOptions{
		DisableEnrollment: true,
	})
	tc.CreateUser("u", "p")

	conn, err := ftp.Dial(tc.FTPAddr, ftp.DialWithTimeout(5*time.Second))
	require.NoError(t, err)
	defer func() { _ = conn.Quit() }()

	err = conn.Login("u", "wrong")
	require.Error(t, err)

	var protoErr *textproto.Error
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, 530, protoErr.Code)
}
