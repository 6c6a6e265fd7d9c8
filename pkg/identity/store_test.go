package identity

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	root := filepath.Join(dir, "root")

	store, err := NewStore(path, root, 4) // low cost keeps the tests fast
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store, path
}

func TestStore_CreateAndAuthenticate(t *testing.T) {
	store, _ := newTestStore(t)

	user, err := store.Create("alice", "wonderland")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
	if user.UID != 1 {
		t.Errorf("UID = %d, want 1 for the first account", user.UID)
	}
	if !IsHashed(user.Password) {
		t.Errorf("Password = %q, want a bcrypt hash", user.Password)
	}

	// The chroot directory must exist after creation
	if fi, err := os.Stat(user.Chroot); err != nil || !fi.IsDir() {
		t.Errorf("chroot %q not created: %v", user.Chroot, err)
	}

	got, err := store.Authenticate("alice", "wonderland")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Authenticate() user = %q, want alice", got.Username)
	}

	if _, err := store.Authenticate("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(wrong password) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := store.Authenticate("nobody", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Authenticate(unknown user) error = %v, want ErrUserNotFound", err)
	}
}

func TestStore_CreateDuplicate(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Create("bob", "builder1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create("bob", "other"); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicateUser", err)
	}
}

func TestStore_CreateInvalidUsername(t *testing.T) {
	store, _ := newTestStore(t)

	for _, name := range []string{"", ".", "..", "a/b", "a\\b", "nul\x00byte"} {
		if _, err := store.Create(name, "password"); !errors.Is(err, ErrInvalidUsername) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidUsername", name, err)
		}
	}
}

func TestStore_UIDAllocation(t *testing.T) {
	store, _ := newTestStore(t)

	a, _ := store.Create("a", "password1")
	b, _ := store.Create("b", "password2")
	c, _ := store.Create("c", "password3")

	if a.UID != 1 || b.UID != 2 || c.UID != 3 {
		t.Errorf("UIDs = %d,%d,%d, want 1,2,3", a.UID, b.UID, c.UID)
	}

	// Deleting the middle account must not cause uid reuse of the max
	if err := store.Delete("b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	d, _ := store.Create("d", "password4")
	if d.UID != 4 {
		t.Errorf("UID after delete = %d, want 4 (max+1)", d.UID)
	}
}

func TestStore_PersistedShape(t *testing.T) {
	store, path := newTestStore(t)

	if _, err := store.Create("alice", "wonderland"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	// Pretty-printed JSON object keyed by username
	var decoded map[string]map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("users file is not valid JSON: %v", err)
	}
	rec, ok := decoded["alice"]
	if !ok {
		t.Fatalf("users file missing %q key: %s", "alice", data)
	}
	for _, field := range []string{"password", "chroot", "uid"} {
		if _, ok := rec[field]; !ok {
			t.Errorf("record missing %q field: %v", field, rec)
		}
	}
	if len(data) > 0 && data[0] != '{' {
		t.Errorf("users file should start with '{', got %q", data[0])
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Errorf("users file mode = %o, want 600", perm)
	}
}

func TestStore_ReloadAcrossInstances(t *testing.T) {
	store, path := newTestStore(t)

	if _, err := store.Create("carol", "s3cretpw"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A second store over the same file sees the account
	reopened, err := NewStore(path, filepath.Join(filepath.Dir(path), "root"), 4)
	if err != nil {
		t.Fatalf("NewStore(reopen) error = %v", err)
	}
	if _, err := reopened.Authenticate("carol", "s3cretpw"); err != nil {
		t.Errorf("Authenticate() after reload error = %v", err)
	}
}

func TestStore_LegacyPlaintextEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	root := filepath.Join(dir, "root")

	// Hand-written file in the pre-hashing format
	legacy := map[string]*User{
		"old": {Password: "123456", Chroot: root + "/old", UID: 7},
	}
	data, _ := json.MarshalIndent(legacy, "", "  ")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store, err := NewStore(path, root, 4)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	user, err := store.Authenticate("old", "123456")
	if err != nil {
		t.Fatalf("Authenticate(legacy) error = %v", err)
	}
	if IsHashed(user.Password) {
		t.Error("legacy entry should remain plaintext until migrated")
	}
	if user.UID != 7 {
		t.Errorf("UID = %d, want 7 from the file", user.UID)
	}

	// The loader provisions chroots for hand-edited entries
	if fi, err := os.Stat(root + "/old"); err != nil || !fi.IsDir() {
		t.Errorf("legacy chroot not created: %v", err)
	}

	// uid allocation continues from the file's max
	next, err := store.Create("new", "freshpass")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if next.UID != 8 {
		t.Errorf("UID = %d, want 8 (max+1 over legacy entries)", next.UID)
	}
}

func TestStore_DeleteKeepsFiles(t *testing.T) {
	store, _ := newTestStore(t)

	user, err := store.Create("dave", "password9")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	marker := filepath.Join(user.Chroot, "keep.txt")
	if err := os.WriteFile(marker, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := store.Delete("dave"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get("dave"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrUserNotFound", err)
	}

	// Account data stays on disk; only the record goes
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("chroot contents should survive account deletion: %v", err)
	}
}

func TestStore_List(t *testing.T) {
	store, _ := newTestStore(t)

	for _, name := range []string{"zoe", "adam", "mia"} {
		if _, err := store.Create(name, "password1"); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	users := store.List()
	if len(users) != 3 {
		t.Fatalf("List() returned %d users, want 3", len(users))
	}
	for i, want := range []string{"adam", "mia", "zoe"} {
		if users[i].Username != want {
			t.Errorf("List()[%d] = %q, want %q (sorted)", i, users[i].Username, want)
		}
	}
}
