package apiclient

// User represents an FTP account as the admin API reports it.
// Password hashes never appear in API responses.
type User struct {
	Username string `json:"username"`
	UID      uint16 `json:"uid"`
	Chroot   string `json:"chroot"`
}

// CreateUserRequest is the request to create a user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ListUsers returns all users.
func (c *Client) ListUsers() ([]User, error) {
	return listResources[User](c, "/api/v1/users")
}

// GetUser returns a user by username.
func (c *Client) GetUser(username string) (*User, error) {
	return getResource[User](c, resourcePath("/api/v1/users/%s", username))
}

// CreateUser creates a new user.
func (c *Client) CreateUser(username, password string) (*User, error) {
	req := CreateUserRequest{
		Username: username,
		Password: password,
	}
	return createResource[User](c, "/api/v1/users", req)
}

// DeleteUser deletes a user. The user's home directory stays on disk.
func (c *Client) DeleteUser(username string) error {
	return deleteResource(c, resourcePath("/api/v1/users/%s", username))
}
