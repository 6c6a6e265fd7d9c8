package ftp

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Sandbox errors double as reply text, so the wording and casing are
// part of the wire contract.
var (
	// ErrInvalidDirectory means the path canonicalized outside the chroot.
	ErrInvalidDirectory = errors.New("Invalid directory")

	// ErrDirectoryNotFound means the path could not be canonicalized at all.
	ErrDirectoryNotFound = errors.New("Directory not found")
)

// Sandbox confines one user's filesystem view to their chroot. Every
// handler that touches the filesystem resolves its argument here first;
// nothing below the handlers ever sees a raw client path.
type Sandbox struct {
	// display is the chroot exactly as configured (e.g. "./root/alice").
	// Directory listings print paths under this spelling.
	display string

	// root is the canonical absolute chroot all containment checks run
	// against.
	root string
}

// NewSandbox canonicalizes the configured chroot. The directory must
// exist; the identity store creates it at account creation and load.
func NewSandbox(chroot string) (*Sandbox, error) {
	abs, err := filepath.Abs(chroot)
	if err != nil {
		return nil, fmt.Errorf("resolve chroot %s: %w", chroot, err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve chroot %s: %w", chroot, err)
	}
	return &Sandbox{
		display: strings.TrimSuffix(chroot, "/"),
		root:    root,
	}, nil
}

// Root returns the canonical chroot path.
func (s *Sandbox) Root() string { return s.root }

// Resolve maps a client path to a canonical path inside the chroot. An
// absolute request is taken from the chroot root; a relative one from
// cwd. Dot segments are cleaned in the jail's "/"-rooted namespace,
// where "/.." clamps at "/", so a ".." run at the root stays at the
// root. Symlinks are then resolved and the result checked for
// containment, so a link pointing out of the chroot still fails.
func (s *Sandbox) Resolve(cwd, request string) (string, error) {
	joined := filepath.Join(s.root, filepath.FromSlash(s.virtual(cwd, request)))

	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", ErrDirectoryNotFound
	}
	if !s.contains(canonical) {
		return "", ErrInvalidDirectory
	}
	return canonical, nil
}

// virtual joins a client path onto the cwd inside the jail's namespace.
func (s *Sandbox) virtual(cwd, request string) string {
	if strings.HasPrefix(request, "/") {
		return path.Clean(request)
	}
	return path.Join("/", strings.TrimPrefix(cwd, "."), request)
}

// ResolveParent resolves a path that need not exist yet: STOR targets,
// MKD arguments and rename destinations. The parent directory must
// canonicalize inside the chroot and the basename must be a real name,
// so "." and ".." can never be created or become a rename target.
func (s *Sandbox) ResolveParent(cwd, request string) (string, error) {
	cleaned := path.Clean(request)
	base := path.Base(cleaned)
	if base == "." || base == ".." || base == "/" {
		return "", ErrInvalidDirectory
	}

	parent, err := s.Resolve(cwd, path.Dir(cleaned))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, base), nil
}

// Display renders a canonical path the way PWD and MKD report it: the
// part below the chroot, "/" at the chroot itself.
func (s *Sandbox) Display(canonical string) string {
	rest := strings.TrimPrefix(canonical, s.root)
	if rest == "" {
		return "/"
	}
	return rest
}

// Relative renders a canonical path as the "./"-rooted form the session
// stores as its working directory.
func (s *Sandbox) Relative(canonical string) string {
	rest := strings.TrimPrefix(canonical, s.root)
	if rest == "" {
		return "./"
	}
	return "." + rest
}

// ListPath renders a canonical path the way directory listings print it:
// the configured chroot spelling plus the part below it, matching what
// an ls run from the server's working directory would show.
func (s *Sandbox) ListPath(canonical string) string {
	return s.display + strings.TrimPrefix(canonical, s.root)
}

func (s *Sandbox) contains(canonical string) bool {
	return canonical == s.root ||
		strings.HasPrefix(canonical, s.root+string(filepath.Separator))
}
