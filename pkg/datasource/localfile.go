package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riftlock/vaultengine/pkg/kvstore"
)

// LocalFileBackend is a reference Backend implementation over a directory
// tree (SPEC_FULL.md §15 "SUPPLEMENT"). It is not mandated by the engine's
// contract — the engine talks only to the Backend interface — but gives
// the engine's own tests and cmd/vaultenginectl a concrete backend to run
// against, the way the teacher's CLI talks directly to a local vault file
// rather than an abstract store.
type LocalFileBackend struct {
	root   string
	detail *kvstore.Store
}

// NewLocalFileBackend roots a backend at dir, creating dir and its
// attachments subdirectory if they do not already exist, and opening the
// sqlite-backed attachment-details index at dir/attachments.db.
func NewLocalFileBackend(dir string) (*LocalFileBackend, error) {
	if err := os.MkdirAll(filepath.Join(dir, "attachments"), 0o700); err != nil {
		return nil, fmt.Errorf("datasource: failed to create %s: %w", dir, err)
	}
	detail, err := kvstore.Open(filepath.Join(dir, "attachments.db"))
	if err != nil {
		return nil, err
	}
	return &LocalFileBackend{root: dir, detail: detail}, nil
}

// Close releases the backend's detail-index database handle.
func (b *LocalFileBackend) Close() error {
	return b.detail.Close()
}

func (b *LocalFileBackend) resolve(path string) string {
	return filepath.Join(b.root, filepath.Clean("/"+path))
}

func (b *LocalFileBackend) GetFileContents(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.resolve(path))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("datasource: failed to read %s: %w", path, err)
	}
	return data, nil
}

func (b *LocalFileBackend) PutFileContents(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := b.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return fmt.Errorf("datasource: failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("datasource: failed to write %s: %w", path, err)
	}
	return nil
}

// GetAvailableStorage reports free space on the filesystem backing root
// (see diskspace_unix.go / diskspace_windows.go). Never returns nil: a
// local filesystem always has a knowable limit.
func (b *LocalFileBackend) GetAvailableStorage(ctx context.Context) (*uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	available, err := availableBytes(b.root)
	if err != nil {
		return nil, fmt.Errorf("datasource: %w", err)
	}
	return &available, nil
}

func (b *LocalFileBackend) attachmentPath(vaultID, attachmentID string) string {
	return filepath.Join(b.root, "attachments", vaultID, attachmentID+".bin")
}

func (b *LocalFileBackend) GetAttachment(ctx context.Context, vaultID, attachmentID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.attachmentPath(vaultID, attachmentID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: attachment %s/%s", ErrNotFound, vaultID, attachmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("datasource: failed to read attachment: %w", err)
	}
	return data, nil
}

func (b *LocalFileBackend) PutAttachment(ctx context.Context, vaultID, attachmentID string, data []byte, detailsJSON string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := b.attachmentPath(vaultID, attachmentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("datasource: failed to create attachment directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("datasource: failed to write attachment: %w", err)
	}
	if err := b.detail.Set(detailKey(vaultID, attachmentID), detailsJSON); err != nil {
		return err
	}
	return nil
}

func (b *LocalFileBackend) RemoveAttachment(ctx context.Context, vaultID, attachmentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(b.attachmentPath(vaultID, attachmentID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("datasource: failed to remove attachment: %w", err)
	}
	if err := b.detail.Delete(detailKey(vaultID, attachmentID)); err != nil {
		return err
	}
	return nil
}

func (b *LocalFileBackend) SupportsAttachments() bool   { return true }
func (b *LocalFileBackend) SupportsRemoteBypass() bool  { return false }

func detailKey(vaultID, attachmentID string) string {
	return "attachment_detail:" + vaultID + ":" + attachmentID
}
