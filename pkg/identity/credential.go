package identity

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the default cost parameter for bcrypt hashing.
// Cost 10 provides a good balance between security and performance.
const DefaultBcryptCost = 10

// ErrInvalidCredentials is returned when credentials are invalid.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrPasswordTooShort is returned when a password is too short.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// ErrPasswordTooLong is returned when a password is too long.
// bcrypt has a maximum input length of 72 bytes.
var ErrPasswordTooLong = errors.New("password must be at most 72 characters")

// MinPasswordLength is the minimum password length enforced on operator-
// created accounts. Open enrollment over FTP accepts what the client sent.
const MinPasswordLength = 8

// MaxPasswordLength is the maximum allowed password length.
// bcrypt silently truncates at 72 bytes, so we enforce this limit.
const MaxPasswordLength = 72

// HashPassword creates a bcrypt hash of the given password using the
// default cost.
//
// Returns:
//   - string: The bcrypt hash
//   - error: If hashing fails
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultBcryptCost)
}

// HashPasswordWithCost creates a bcrypt hash with a custom cost.
//
// Higher cost values increase security but also increase hashing time.
// Valid cost values are between 4 and 31.
//
// Parameters:
//   - password: The plaintext password to hash
//   - cost: The bcrypt cost parameter (4-31)
//
// Returns:
//   - string: The bcrypt hash
//   - error: If hashing fails
func HashPasswordWithCost(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword checks if a password matches a bcrypt hash.
//
// Parameters:
//   - password: The plaintext password to verify
//   - hash: The bcrypt hash to compare against
//
// Returns:
//   - bool: true if the password matches, false otherwise
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsHashed reports whether a stored credential is a bcrypt hash.
//
// Entries written before hashing was introduced hold the plaintext password
// and carry no "$2" prefix. Such accounts still authenticate (see
// VerifyStored) and can be detected here for migration.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}

// VerifyStored checks a supplied password against a stored credential,
// accepting both bcrypt hashes and legacy plaintext entries.
func VerifyStored(stored, password string) bool {
	if IsHashed(stored) {
		return VerifyPassword(password, stored)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// ValidatePassword checks if a password meets the operator-facing
// requirements.
//
// Requirements:
//   - At least 8 characters
//   - At most 72 characters (bcrypt limit)
//
// Returns:
//   - error: nil if valid, otherwise an error describing the issue
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// NeedsRehash checks if a stored credential should be regenerated.
//
// This is true for legacy plaintext entries and for hashes generated with
// a cost lower than the current default.
//
// Parameters:
//   - stored: The existing stored credential
//
// Returns:
//   - bool: true if the credential should be regenerated
func NeedsRehash(stored string) bool {
	cost, err := bcrypt.Cost([]byte(stored))
	if err != nil {
		return true
	}
	return cost < DefaultBcryptCost
}
