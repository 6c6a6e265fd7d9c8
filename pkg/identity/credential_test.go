package identity

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "test-password-123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	// Check hash format (bcrypt hashes start with $2a$ or $2b$)
	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("HashPassword() hash = %q, want bcrypt format", hash)
	}

	// Verify the password matches the hash
	if !VerifyPassword(password, hash) {
		t.Error("VerifyPassword() returned false for correct password")
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	password := "same-password"

	hash1, _ := HashPassword(password)
	hash2, _ := HashPassword(password)

	// Bcrypt should generate different hashes each time due to salt
	if hash1 == hash2 {
		t.Error("HashPassword() generated same hash twice, expected different due to salt")
	}

	// Both hashes should verify correctly
	if !VerifyPassword(password, hash1) {
		t.Error("VerifyPassword() failed for hash1")
	}
	if !VerifyPassword(password, hash2) {
		t.Error("VerifyPassword() failed for hash2")
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "my-secure-password"
	hash, _ := HashPassword(password)

	if !VerifyPassword(password, hash) {
		t.Error("VerifyPassword() should return true for matching password")
	}

	if VerifyPassword("wrong-password", hash) {
		t.Error("VerifyPassword() should return false for wrong password")
	}

	if VerifyPassword("", hash) {
		t.Error("VerifyPassword() should return false for empty password")
	}
}

func TestVerifyPassword_InvalidHashes(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"plain text", "not-a-hash"},
		{"partial bcrypt", "$2a$"},
		{"wrong version", "$1a$10$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if VerifyPassword("password", tc.hash) {
				t.Errorf("VerifyPassword() should return false for invalid hash: %q", tc.hash)
			}
		})
	}
}

func TestIsHashed(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   bool
	}{
		{"bcrypt 2a", "$2a$10$AAAAAAAAAAAAAAAAAAAAAA", true},
		{"bcrypt 2b", "$2b$10$AAAAAAAAAAAAAAAAAAAAAA", true},
		{"legacy plaintext", "123456", false},
		{"empty", "", false},
		{"dollar but not bcrypt", "$1$legacy", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsHashed(tc.stored); got != tc.want {
				t.Errorf("IsHashed(%q) = %v, want %v", tc.stored, got, tc.want)
			}
		})
	}
}

func TestVerifyStored(t *testing.T) {
	hash, err := HashPassword("hashed-secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		stored   string
		password string
		want     bool
	}{
		{"bcrypt match", hash, "hashed-secret", true},
		{"bcrypt mismatch", hash, "other", false},
		{"legacy match", "123456", "123456", true},
		{"legacy mismatch", "123456", "654321", false},
		{"legacy empty both", "", "", true},
		{"legacy empty stored", "", "x", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := VerifyStored(tc.stored, tc.password); got != tc.want {
				t.Errorf("VerifyStored(%q, %q) = %v, want %v", tc.stored, tc.password, got, tc.want)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "securepassword123", false},
		{"minimum length password", "12345678", false},
		{"short password", "1234567", true},
		{"empty password", "", true},
		{"maximum length password (72 chars)", strings.Repeat("a", 72), false},
		{"password too long (73 chars)", strings.Repeat("a", 73), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tc.password, err, tc.wantErr)
			}
		})
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("some-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if NeedsRehash(hash) {
		t.Error("NeedsRehash() should return false for a current-cost hash")
	}
	if !NeedsRehash("plaintext-legacy") {
		t.Error("NeedsRehash() should return true for a legacy plaintext entry")
	}

	weak, err := HashPasswordWithCost("some-password", 4)
	if err != nil {
		t.Fatalf("HashPasswordWithCost() error = %v", err)
	}
	if !NeedsRehash(weak) {
		t.Error("NeedsRehash() should return true for a low-cost hash")
	}
}
