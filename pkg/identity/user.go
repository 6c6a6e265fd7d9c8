package identity

import (
	"errors"
	"strings"
)

// User represents one FTP account.
//
// Users are persisted in the users file as a JSON object keyed by username,
// so Username is not serialized with the record itself. Each user owns a
// chroot directory under the server root; every path a session touches is
// confined to it.
type User struct {
	// Username is the unique identifier for the account. It doubles as the
	// name of the chroot directory under the server root.
	Username string `json:"-"`

	// Password is the stored credential: a bcrypt hash for accounts created
	// by this implementation, or the plaintext password for legacy entries
	// (no "$2" prefix). See VerifyStored.
	Password string `json:"password"`

	// Chroot is the directory the account is confined to, spelled relative
	// to the process working directory (for example "./root/alice").
	Chroot string `json:"chroot"`

	// UID is the numeric account ID, allocated as max+1 at creation time.
	UID uint16 `json:"uid"`
}

// ErrInvalidUsername is returned when a username cannot name an account.
var ErrInvalidUsername = errors.New("invalid username")

// ValidateUsername checks that a username is usable as an account name.
//
// The username becomes a directory name under the server root, so anything
// that could traverse out of it is rejected: empty names, path separators,
// "." and "..", and NUL bytes.
func ValidateUsername(username string) error {
	if username == "" || username == "." || username == ".." {
		return ErrInvalidUsername
	}
	if strings.ContainsAny(username, "/\\\x00") {
		return ErrInvalidUsername
	}
	return nil
}

// Clone returns a copy of the user record.
func (u *User) Clone() *User {
	clone := *u
	return &clone
}
