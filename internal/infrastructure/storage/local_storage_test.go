package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"resize-server/internal/config"
	"resize-server/internal/infrastructure/storage"
)

func newLocalStorage(t *testing.T) (*storage.LocalStorage, string) {
	t.Helper()
	root := t.TempDir()
	s, err := storage.NewLocalStorage(&config.Config{BlobRoot: root}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	return s, root
}

func TestLocalStorage_CreateImageIsExclusive(t *testing.T) {
	s, _ := newLocalStorage(t)
	ctx := context.Background()

	if err := s.CreateImage(ctx, "alice", "img1", "origin_a.img", []byte("first")); err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}

	// A second create for the same image must fail without touching the
	// existing file, regardless of the filename it carries.
	err := s.CreateImage(ctx, "alice", "img1", "origin_b.img", []byte("second"))
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("second CreateImage() error = %v, want fs.ErrExist", err)
	}
	got, err := s.Read(ctx, "alice", "img1", "origin_a.img")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, []byte("first")) {
		t.Errorf("original file overwritten by losing create")
	}

	// Same image ID under another user is independent.
	if err := s.CreateImage(ctx, "bob", "img1", "origin_c.img", []byte("bob")); err != nil {
		t.Errorf("CreateImage() for other user error = %v", err)
	}
}

func TestLocalStorage_WriteFileAddsSibling(t *testing.T) {
	s, root := newLocalStorage(t)
	ctx := context.Background()

	if err := s.CreateImage(ctx, "alice", "img1", "origin_a.img", []byte("origin")); err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}
	if err := s.WriteFile(ctx, "alice", "img1", "subimage_a.img", []byte("resized")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "alice", "img1"))
	if err != nil {
		t.Fatalf("read image dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("image dir holds %d files, want origin and subimage side by side", len(entries))
	}
}

func TestLocalStorage_ReadMissing(t *testing.T) {
	s, _ := newLocalStorage(t)
	ctx := context.Background()

	_, err := s.Read(ctx, "alice", "img1", "origin_a.img")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() of missing file error = %v, want fs.ErrNotExist", err)
	}
}

func TestLocalStorage_DeleteFileKeepsSiblings(t *testing.T) {
	s, _ := newLocalStorage(t)
	ctx := context.Background()

	if err := s.CreateImage(ctx, "alice", "img1", "origin_a.img", []byte("origin")); err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}
	if err := s.WriteFile(ctx, "alice", "img1", "subimage_a.img", []byte("resized")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := s.DeleteFile(ctx, "alice", "img1", "subimage_a.img"); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if _, err := s.Read(ctx, "alice", "img1", "subimage_a.img"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("deleted file still readable, err = %v", err)
	}
	if _, err := s.Read(ctx, "alice", "img1", "origin_a.img"); err != nil {
		t.Errorf("sibling removed alongside deleted file: %v", err)
	}
}

func TestLocalStorage_DeleteDirsAreIdempotent(t *testing.T) {
	s, root := newLocalStorage(t)
	ctx := context.Background()

	if err := s.CreateImage(ctx, "alice", "img1", "origin_a.img", []byte("origin")); err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}

	if err := s.DeleteImageDir(ctx, "alice", "img1"); err != nil {
		t.Fatalf("DeleteImageDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "alice", "img1")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("image directory still present after delete")
	}
	if err := s.DeleteImageDir(ctx, "alice", "img1"); err != nil {
		t.Errorf("repeated DeleteImageDir() error = %v", err)
	}

	if err := s.DeleteUserDir(ctx, "alice"); err != nil {
		t.Errorf("DeleteUserDir() error = %v", err)
	}
	if err := s.DeleteUserDir(ctx, "nobody"); err != nil {
		t.Errorf("DeleteUserDir() for absent user error = %v", err)
	}
}

func TestLocalStorage_Health(t *testing.T) {
	s, _ := newLocalStorage(t)
	if err := s.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}
