package apiclient

// Session represents a live FTP session as the admin API reports it.
type Session struct {
	Handle     uint64 `json:"handle"`
	ID         string `json:"id"`
	Username   string `json:"username,omitempty"`
	RemoteAddr string `json:"remote_addr"`
	State      string `json:"state"`
	Cwd        string `json:"cwd,omitempty"`
	Age        string `json:"age"`
}

// ListSessions returns the live FTP sessions.
func (c *Client) ListSessions() ([]Session, error) {
	return listResources[Session](c, "/api/v1/sessions")
}

// CloseSession force-closes the session with the given handle.
// The client on the other end sees its control connection drop.
func (c *Client) CloseSession(handle uint64) error {
	return deleteResource(c, resourcePath("/api/v1/sessions/%d", handle))
}
