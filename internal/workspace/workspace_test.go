package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManagerCreateDisjoint(t *testing.T) {
	m := NewManager(t.TempDir())

	a, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	b, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if a.ID == b.ID {
		t.Fatalf("two workspaces share id %q", a.ID)
	}
	if a.Dir == b.Dir {
		t.Fatalf("two workspaces share dir %q", a.Dir)
	}

	for _, ws := range []Workspace{a, b} {
		info, err := os.Stat(ws.Dir)
		if err != nil {
			t.Fatalf("stat %s: %v", ws.Dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", ws.Dir)
		}
	}
}

func TestManagerCreateLazyRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "root")
	m := NewManager(root)

	ws, err := m.Create()
	if err != nil {
		t.Fatalf("Create() with missing root: %v", err)
	}
	if _, err := os.Stat(ws.Dir); err != nil {
		t.Fatalf("stat %s: %v", ws.Dir, err)
	}
}

func TestManagerRemoveIdempotent(t *testing.T) {
	m := NewManager(t.TempDir())

	ws, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := os.WriteFile(ws.Join("video.mp4"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := m.Remove(ws); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatalf("workspace still present after Remove: %v", err)
	}

	if err := m.Remove(ws); err != nil {
		t.Fatalf("second Remove() error: %v", err)
	}
	if err := m.Remove(Workspace{}); err != nil {
		t.Fatalf("Remove(zero) error: %v", err)
	}
}

func TestWorkspaceJoin(t *testing.T) {
	ws := Workspace{ID: "id", Dir: "/tmp/x/id"}
	if got, want := ws.Join("clip.mp4"), filepath.Join("/tmp/x/id", "clip.mp4"); got != want {
		t.Fatalf("Join() = %q, want %q", got, want)
	}
}
