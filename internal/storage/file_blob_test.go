package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
)

func newTestFileStore(t *testing.T) *FileBlobStore {
	t.Helper()
	fb, err := NewFileBlobStore(common.NewSilentLogger(), &common.FileConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileBlobStore: %v", err)
	}
	return fb
}

func TestFileBlobStore_PutGet(t *testing.T) {
	fb := newTestFileStore(t)
	ctx := context.Background()

	if err := fb.Put(ctx, "k1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := fb.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Get = %q", data)
	}

	// Overwrite
	if err := fb.Put(ctx, "k1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	data, _ = fb.Get(ctx, "k1")
	if string(data) != `{"a":2}` {
		t.Errorf("Get after overwrite = %q", data)
	}
}

func TestFileBlobStore_GetMissing(t *testing.T) {
	fb := newTestFileStore(t)

	_, err := fb.Get(context.Background(), "missing")
	if !errors.Is(err, interfaces.ErrBlobNotFound) {
		t.Errorf("Get missing = %v, want ErrBlobNotFound", err)
	}
}

func TestFileBlobStore_DeleteAndExists(t *testing.T) {
	fb := newTestFileStore(t)
	ctx := context.Background()

	if err := fb.Put(ctx, "k1", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	exists, err := fb.Exists(ctx, "k1")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v; want true", exists, err)
	}

	if err := fb.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exists, _ = fb.Exists(ctx, "k1")
	if exists {
		t.Error("Exists after delete should be false")
	}

	// Deleting again is not an error.
	if err := fb.Delete(ctx, "k1"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestFileBlobStore_SanitizesTraversal(t *testing.T) {
	fb := newTestFileStore(t)
	ctx := context.Background()

	if err := fb.Put(ctx, "../escape", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fb.basePath, "..", "escape.json")); err == nil {
		t.Error("blob escaped the base directory")
	}
}
