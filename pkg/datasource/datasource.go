// Package datasource defines the DatasourceBackend capability the engine
// consumes for file and attachment storage (spec §6.2), plus a reference
// local-file implementation (pkg/datasource.LocalFileBackend) the engine's
// own test suite and cmd/vaultenginectl run against.
package datasource

import (
	"context"
	"errors"
)

// ErrNotFound is the one distinguished failure mode the engine cares about
// from a backend; everything else surfaces opaquely (spec §6.2 "the engine
// only distinguishes 'not found' from 'other'").
var ErrNotFound = errors.New("datasource: not found")

// Backend is the byte-oriented storage capability the engine requires
// (spec §6.2). Every method accepts a context so network-bound
// implementations can honor cooperative cancellation (spec §5
// "Cancellation & timeouts").
type Backend interface {
	GetFileContents(ctx context.Context, path string) ([]byte, error)
	PutFileContents(ctx context.Context, path string, data []byte) error

	// GetAvailableStorage returns the remaining storage budget in bytes,
	// or nil if unknown/unlimited (spec §6.2).
	GetAvailableStorage(ctx context.Context) (*uint64, error)

	GetAttachment(ctx context.Context, vaultID, attachmentID string) ([]byte, error)
	PutAttachment(ctx context.Context, vaultID, attachmentID string, data []byte, detailsJSON string) error
	RemoveAttachment(ctx context.Context, vaultID, attachmentID string) error

	SupportsAttachments() bool
	SupportsRemoteBypass() bool
}
