// Package workdir manages per-user scratch directories for playlist jobs.
//
// A directory is named after the user, not the job, so at most one job per
// user may hold it. An advisory lock file next to the directory enforces
// that across goroutines and processes.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/cwygoda/playlistbot/internal/domain"
)

const prefix = "downloads_"

// ErrLocked is returned when another job holds the user's directory.
var ErrLocked = errors.New("work dir in use")

// Manager creates scratch directories under a shared root.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at root. An empty root means the
// system temp dir.
func NewManager(root string) *Manager {
	if root == "" {
		root = os.TempDir()
	}
	return &Manager{root: root}
}

// Root returns the shared temp root.
func (m *Manager) Root() string {
	return m.root
}

// PathFor returns the scratch directory path for a user.
func (m *Manager) PathFor(userID int64) string {
	return filepath.Join(m.root, fmt.Sprintf("%s%d", prefix, userID))
}

// Acquire locks and creates the user's directory. A directory left behind by
// an earlier run is reused.
func (m *Manager) Acquire(userID int64) (domain.WorkDir, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, fmt.Errorf("create work root: %w", err)
	}

	path := m.PathFor(userID)
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Dir{path: path, lock: lock}, nil
}

// Sweep removes unlocked scratch directories left behind by a crashed run.
// It returns the number of directories removed.
func (m *Manager) Sweep() (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(m.root, entry.Name())
		lock := flock.New(path + ".lock")
		ok, err := lock.TryLock()
		if err != nil || !ok {
			continue
		}
		if err := os.RemoveAll(path); err == nil {
			removed++
		}
		lock.Unlock()
	}
	return removed, nil
}

// Dir is an acquired scratch directory.
type Dir struct {
	path string
	lock *flock.Flock
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Files lists regular files with extension ext (case-insensitive). os.ReadDir
// returns entries sorted by filename, which orders playlist-index prefixes.
func (d *Dir) Files(ext string) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(d.path, entry.Name()))
	}
	return files, nil
}

// Release removes the directory with all contents and drops the lock. The
// lock file itself stays so that the lock always refers to one inode.
func (d *Dir) Release() error {
	err := os.RemoveAll(d.path)
	if uerr := d.lock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}
