package identity

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/dittoftp/internal/logger"
)

// Watcher reloads the users file when it changes on disk.
//
// The parent directory is watched rather than the file itself: the store
// replaces the file by rename, which would otherwise orphan a per-file
// watch. Events caused by the store's own writes are recognized through
// the store's self-write counter and skipped, so an in-process mutation
// never triggers a redundant reload.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	seen    int64
}

// NewWatcher creates a watcher for the store's users file.
func NewWatcher(store *Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	dir := filepath.Dir(store.Path())
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch users directory %s: %w", dir, err)
	}

	return &Watcher{
		store:   store,
		watcher: fw,
		seen:    store.selfWrites.Load(),
	}, nil
}

// Run processes file events until the context is cancelled.
//
// Intended to be started as a goroutine next to the server; it returns nil
// on cancellation and an error only if the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	target := filepath.Clean(w.store.Path())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// A self-write bumped the counter before its rename landed,
			// so any unseen increment marks this event as our own echo.
			if cur := w.store.selfWrites.Load(); cur != w.seen {
				w.seen = cur
				logger.Debug("Users file event from own write, skipping reload", "path", target)
				continue
			}

			logger.Info("Users file changed on disk, reloading", "path", target)
			if err := w.store.Reload(); err != nil {
				logger.Warn("Users file reload failed", "path", target, "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
