// Package workspace allocates the scoped temporary directory every request
// works in. Directories are uuid-named so concurrent requests never share
// files, and removal is idempotent.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Workspace is an exclusively-owned directory for one request.
type Workspace struct {
	ID  string
	Dir string
}

// Join returns a path inside the workspace.
func (w Workspace) Join(name string) string {
	return filepath.Join(w.Dir, name)
}

// Manager creates and removes workspaces under a fixed root.
type Manager struct {
	root string
}

func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Create makes a fresh workspace directory. The root is created lazily on
// first use.
func (m *Manager) Create() (Workspace, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.root, id)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Workspace{}, errors.Wrap(err, "workspace create")
	}

	return Workspace{ID: id, Dir: dir}, nil
}

// Remove deletes the workspace and everything in it. Removing a workspace
// that is already gone is not an error.
func (m *Manager) Remove(w Workspace) error {
	if w.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		return errors.Wrap(err, "workspace remove")
	}
	return nil
}
