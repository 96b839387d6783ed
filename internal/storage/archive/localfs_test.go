// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/newthinker/augur/internal/config"
	"github.com/newthinker/augur/internal/core"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"decision":"BUY"}`)

	if err := fs.Write(ctx, "reports/2025/03/04/a.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "reports/2025/03/04/a.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}

	if _, err := fs.Read(ctx, "reports/missing.json"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.json")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "exists.json", []byte("{}"))
	exists, _ = fs.Exists(ctx, "exists.json")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Write(ctx, "reports/2025/01/02/b.json", []byte("b"))
	fs.Write(ctx, "reports/2025/01/02/a.json", []byte("a"))
	fs.Write(ctx, "reports/2025/01/03/c.json", []byte("c"))

	paths, err := fs.List(ctx, "reports/2025/01/02")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 || paths[0] != "reports/2025/01/02/a.json" {
		t.Errorf("unexpected paths %v", paths)
	}

	empty, err := fs.List(ctx, "reports/1999")
	if err != nil || len(empty) != 0 {
		t.Errorf("missing prefix should list nothing, got %v, %v", empty, err)
	}
}

func TestLocalFS_StaysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	if err := fs.Write(ctx, "../../escape.json", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	exists, _ := fs.Exists(ctx, "escape.json")
	if !exists {
		t.Error("parent segments should resolve inside the archive root")
	}
}

func TestNew(t *testing.T) {
	s, err := New(config.ArchiveConfig{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*LocalFS); !ok {
		t.Errorf("expected *LocalFS, got %T", s)
	}

	if _, err := New(config.ArchiveConfig{Type: "ftp"}); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := New(config.ArchiveConfig{Type: "s3"}); !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing for s3 without bucket, got %v", err)
	}
}
