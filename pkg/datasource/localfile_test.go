package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestBackend(t *testing.T) *LocalFileBackend {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "vaultdata")
	b, err := NewLocalFileBackend(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestPutGetFileContents(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	if err := b.PutFileContents(ctx, "vaults/v1.bin", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	got, err := b.GetFileContents(ctx, "vaults/v1.bin")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("unexpected contents: %q", got)
	}
}

func TestGetFileContentsNotFound(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.GetFileContents(context.Background(), "missing.bin")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttachmentLifecycle(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	err := b.PutAttachment(ctx, "vault1", "att1", []byte("blob-bytes"), `{"id":"att1","name":"photo.png"}`)
	if err != nil {
		t.Fatal(err)
	}

	got, err := b.GetAttachment(ctx, "vault1", "att1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "blob-bytes" {
		t.Fatalf("unexpected attachment bytes: %q", got)
	}

	if err := b.RemoveAttachment(ctx, "vault1", "att1"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.GetAttachment(ctx, "vault1", "att1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestGetAvailableStorageReportsSomething(t *testing.T) {
	b := newTestBackend(t)
	avail, err := b.GetAvailableStorage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if avail == nil {
		t.Fatal("expected a non-nil available-storage value for a local filesystem")
	}
}

func TestBackendCapabilities(t *testing.T) {
	b := newTestBackend(t)
	if !b.SupportsAttachments() {
		t.Fatal("expected local-file backend to support attachments")
	}
	if b.SupportsRemoteBypass() {
		t.Fatal("expected local-file backend not to support remote bypass")
	}
}

func TestNewLocalFileBackendCreatesDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	b, err := NewLocalFileBackend(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, err := os.Stat(filepath.Join(dir, "attachments")); err != nil {
		t.Fatalf("expected attachments directory to exist: %v", err)
	}
}
