package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/marmos91/dittoftp/internal/logger"
)

// Store errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)

// Store is the persistent FTP account database.
//
// Accounts live in a single JSON file mapping username to record, pretty-
// printed so operators can read and edit it. Every mutation rewrites the
// file atomically (temp file + rename in the same directory). The in-memory
// map is guarded by a single RWMutex held only per lookup or mutation.
//
// A Watcher can reload the file when it changes on disk; writes made
// through the store itself bump a counter the watcher uses to tell its own
// echo from an external edit.
type Store struct {
	path string
	root string
	cost int

	mu    sync.RWMutex
	users map[string]*User

	// selfWrites counts persists issued through this store. The watcher
	// snapshots it to suppress reload echoes of our own writes.
	selfWrites atomic.Int64
}

// NewStore opens (or initializes) the users file at path.
//
// Accounts found in the file get their chroot directories created under
// root when missing. A missing users file is not an error: the store
// starts empty and the file appears on the first mutation.
//
// Parameters:
//   - path: Users file location (for example "./etc/users.json")
//   - root: Server root directory holding per-user chroots
//   - cost: bcrypt cost for new credentials; 0 selects DefaultBcryptCost
func NewStore(path, root string, cost int) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("users file path must not be empty")
	}
	if root == "" {
		return nil, fmt.Errorf("server root must not be empty")
	}
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	s := &Store{
		path:  path,
		root:  strings.TrimSuffix(root, "/"),
		cost:  cost,
		users: make(map[string]*User),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create users file directory: %w", err)
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create server root: %w", err)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the location of the users file.
func (s *Store) Path() string {
	return s.path
}

// Reload replaces the in-memory accounts with the current file contents.
//
// Chroot directories for loaded accounts are created when missing, so a
// hand-edited users file is usable without extra provisioning steps.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("Users file not found, starting empty", "path", s.path)
			s.mu.Lock()
			s.users = make(map[string]*User)
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read users file: %w", err)
	}

	loaded := make(map[string]*User)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse users file %s: %w", s.path, err)
	}

	for username, user := range loaded {
		user.Username = username
		if user.Chroot == "" {
			user.Chroot = s.chrootFor(username)
		}
		if err := os.MkdirAll(user.Chroot, 0o755); err != nil {
			logger.Warn("Failed to create user chroot", "user", username, "chroot", user.Chroot, "error", err)
		}
	}

	s.mu.Lock()
	s.users = loaded
	s.mu.Unlock()

	logger.Info("Users file loaded", "path", s.path, "users", len(loaded))
	return nil
}

// Authenticate verifies username/password credentials.
//
// Returns ErrUserNotFound when no such account exists (callers decide
// whether open enrollment applies) and ErrInvalidCredentials on a password
// mismatch. Both bcrypt hashes and legacy plaintext entries verify.
func (s *Store) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrUserNotFound
	}
	if !VerifyStored(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user.Clone(), nil
}

// Get returns a copy of the named account.
func (s *Store) Get(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user.Clone(), nil
}

// Create provisions a new account: bcrypt credential, max+1 uid, chroot
// directory under the server root. The users file is rewritten before the
// account becomes visible to lookups.
func (s *Store) Create(username, password string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	hash, err := HashPasswordWithCost(password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, ErrDuplicateUser
	}

	user := &User{
		Username: username,
		Password: hash,
		Chroot:   s.chrootFor(username),
		UID:      s.nextUIDLocked(),
	}

	if err := os.MkdirAll(user.Chroot, 0o755); err != nil {
		return nil, fmt.Errorf("create chroot for %s: %w", username, err)
	}

	s.users[username] = user
	if err := s.persistLocked(); err != nil {
		delete(s.users, username)
		return nil, err
	}

	logger.Info("User created", "user", username, "uid", user.UID, "chroot", user.Chroot)
	return user.Clone(), nil
}

// Delete removes an account from the store and rewrites the users file.
// The chroot directory and its contents are left on disk.
func (s *Store) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return ErrUserNotFound
	}

	delete(s.users, username)
	if err := s.persistLocked(); err != nil {
		s.users[username] = user
		return err
	}

	logger.Info("User deleted", "user", username)
	return nil
}

// List returns copies of all accounts, sorted by username.
func (s *Store) List() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

// Count returns the number of accounts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// chrootFor builds the chroot path for a username.
//
// Plain concatenation rather than filepath.Join: the configured root's
// spelling (typically "./root") must survive into the stored chroot, since
// directory listings embed these paths verbatim.
func (s *Store) chrootFor(username string) string {
	return s.root + "/" + username
}

// nextUIDLocked allocates the next account ID as max+1. Caller holds mu.
func (s *Store) nextUIDLocked() uint16 {
	var max uint16
	for _, u := range s.users {
		if u.UID > max {
			max = u.UID
		}
	}
	return max + 1
}

// persistLocked rewrites the users file atomically. Caller holds mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("create temp users file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write users file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close users file: %w", err)
	}

	// Count the write before the rename lands so the watcher never sees
	// the event ahead of the counter.
	s.selfWrites.Add(1)

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace users file: %w", err)
	}

	return nil
}
