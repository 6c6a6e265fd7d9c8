package apiclient

import (
	"github.com/marmos91/dittoftp/internal/cli/health"
)

// Health returns the liveness state of the server.
// The endpoint is open; no token is required.
func (c *Client) Health() (*health.Response, error) {
	return getResource[health.Response](c, "/health")
}

// Ready returns the readiness state of the server, including the FTP
// listener port and current session and user counts.
func (c *Client) Ready() (*health.ReadyResponse, error) {
	return getResource[health.ReadyResponse](c, "/health/ready")
}
