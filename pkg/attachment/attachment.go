// Package attachment implements the engine's attachment subsystem (spec
// §4.9): encrypted binary blobs referenced by vault entries, independently
// keyed from the vault's history encryption and size-bounded by quota.
package attachment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/riftlock/vaultengine/pkg/datasource"
	"github.com/riftlock/vaultengine/pkg/engine"
	"github.com/riftlock/vaultengine/pkg/vaultmodel"
	"github.com/riftlock/vaultengine/pkg/vcrypto"
)

// MaxBlobSize is the maximum size of a single encrypted attachment blob
// (spec §4.9).
const MaxBlobSize = 200 * humanize.MiByte

// KeyLength is the length of the per-vault attachment key (spec §4.9).
const KeyLength = 48

// Sentinel AttachmentError kinds (spec §7 "AttachmentError").
var (
	ErrNotFound    = errors.New("attachment: not found")
	ErrOutOfSpace  = errors.New("attachment: insufficient datasource storage")
	ErrTooLarge    = errors.New("attachment: blob exceeds maximum size")
	ErrUnsupported = errors.New("attachment: datasource does not support attachments")
)

// Details is the bookkeeping record stored as an entry attribute's JSON
// value under the BC_ATTACHMENT:<id> key (spec §4.9 "Bookkeeping").
type Details struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	SizeOriginal  int64  `json:"sizeOriginal"`
	SizeEncrypted int64  `json:"sizeEncrypted"`
	Created       int64  `json:"created"`
	Updated       int64  `json:"updated"`
}

func attrKey(id string) string { return vaultmodel.AttachmentAttrPrefix + id }

// EnsureKey returns the vault's attachment key, generating one on first
// use and recording it as a vault attribute in the engine's history.
// The key round-trips through Engine.Save/Open like any other history
// state. EnsureKey does not save the vault itself: a newly generated key
// reaches disk only when the caller next saves the vault.
func EnsureKey(e *engine.Engine) (string, error) {
	if key := e.Tree().Attributes[vaultmodel.AttrAttachmentsKey]; key != "" {
		return key, nil
	}
	key, err := vcrypto.RandomString(KeyLength)
	if err != nil {
		return "", fmt.Errorf("attachment: failed to generate key: %w", err)
	}
	if err := e.SetVaultAttribute(vaultmodel.AttrAttachmentsKey, key); err != nil {
		return "", err
	}
	return key, nil
}

// blobKey derives a 32-byte AES key from the 48-character attachment key
// attribute via HKDF, domain-separated by its info string. It is
// independent of the vault's history encryption key, which is derived
// from the master password.
func blobKey(attachmentKey string) ([]byte, error) {
	return vcrypto.DeriveSubKey([]byte(attachmentKey), "vaultengine-attachment-blob-v1")
}

func getDetailsFromEntry(e *vaultmodel.Entry, id string) (Details, bool) {
	raw, ok := e.Attributes[attrKey(id)]
	if !ok {
		return Details{}, false
	}
	var d Details
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Details{}, false
	}
	return d, true
}

// GetDetails returns the bookkeeping record for attachment id on entryID,
// or ErrNotFound if no such record exists (spec §4.9 "get fails with
// AttachmentError::NotFound if no detail record exists").
func GetDetails(e *engine.Engine, entryID, id string) (Details, error) {
	entry := e.Tree().FindEntry(entryID)
	if entry == nil {
		return Details{}, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}
	d, ok := getDetailsFromEntry(entry, id)
	if !ok {
		return Details{}, fmt.Errorf("%w: attachment %s", ErrNotFound, id)
	}
	return d, nil
}

// List returns the bookkeeping records for every attachment on entryID.
func List(e *engine.Engine, entryID string) ([]Details, error) {
	entry := e.Tree().FindEntry(entryID)
	if entry == nil {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}
	var out []Details
	for key, raw := range entry.Attributes {
		if len(key) <= len(vaultmodel.AttachmentAttrPrefix) || key[:len(vaultmodel.AttachmentAttrPrefix)] != vaultmodel.AttachmentAttrPrefix {
			continue
		}
		var d Details
		if err := json.Unmarshal([]byte(raw), &d); err == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

// Put encrypts data and stores it through backend, recording details as an
// entry attribute (spec §4.9). now is the caller-supplied Unix timestamp
// for Details.Created/Updated, matching the rest of the engine's explicit-
// clock convention (pkg/engine.Engine.SetClock).
func Put(ctx context.Context, e *engine.Engine, backend datasource.Backend, entryID, id, name, mimeType string, data []byte, now int64) error {
	if !backend.SupportsAttachments() {
		return ErrUnsupported
	}
	if len(data) > MaxBlobSize {
		return fmt.Errorf("%w: %s exceeds %s limit", ErrTooLarge, humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(MaxBlobSize)))
	}

	entry := e.Tree().FindEntry(entryID)
	if entry == nil {
		return fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}

	key, err := EnsureKey(e)
	if err != nil {
		return err
	}

	aesKey, err := blobKey(key)
	if err != nil {
		return err
	}
	ciphertext, nonce, err := vcrypto.EncryptBuffer(aesKey, data)
	if err != nil {
		return fmt.Errorf("attachment: %w", err)
	}
	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	previousSize := int64(0)
	if prev, ok := getDetailsFromEntry(entry, id); ok {
		previousSize = prev.SizeEncrypted
	}

	avail, err := backend.GetAvailableStorage(ctx)
	if err != nil {
		return fmt.Errorf("attachment: %w", err)
	}
	if avail != nil {
		netIncrease := int64(len(blob)) - previousSize
		if netIncrease > 0 && uint64(netIncrease) > *avail {
			return fmt.Errorf("%w: need %s, have %s available",
				ErrOutOfSpace, humanize.IBytes(uint64(netIncrease)), humanize.IBytes(*avail))
		}
	}

	details := Details{
		ID:            id,
		Name:          name,
		Type:          mimeType,
		SizeOriginal:  int64(len(data)),
		SizeEncrypted: int64(len(blob)),
		Created:       now,
		Updated:       now,
	}
	if prev, ok := getDetailsFromEntry(entry, id); ok {
		details.Created = prev.Created
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("attachment: %w", err)
	}

	if err := backend.PutAttachment(ctx, e.Tree().VaultID, id, blob, string(detailsJSON)); err != nil {
		return fmt.Errorf("attachment: %w", err)
	}

	return e.SetEntryAttribute(entryID, attrKey(id), string(detailsJSON))
}

// Get retrieves and decrypts an attachment's blob.
func Get(ctx context.Context, e *engine.Engine, backend datasource.Backend, entryID, id string) ([]byte, error) {
	if _, err := GetDetails(e, entryID, id); err != nil {
		return nil, err
	}
	key := e.Tree().Attributes[vaultmodel.AttrAttachmentsKey]
	if key == "" {
		return nil, fmt.Errorf("%w: vault has no attachment key", ErrNotFound)
	}

	blob, err := backend.GetAttachment(ctx, e.Tree().VaultID, id)
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			return nil, fmt.Errorf("%w: attachment %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("attachment: %w", err)
	}
	if len(blob) < vcrypto.NonceLength {
		return nil, fmt.Errorf("attachment: stored blob too short")
	}
	nonce, ciphertext := blob[:vcrypto.NonceLength], blob[vcrypto.NonceLength:]

	aesKey, err := blobKey(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := vcrypto.DecryptBuffer(aesKey, ciphertext, nonce)
	if err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}
	return plaintext, nil
}

// Remove deletes an attachment's blob and its bookkeeping attribute.
func Remove(ctx context.Context, e *engine.Engine, backend datasource.Backend, entryID, id string) error {
	if _, err := GetDetails(e, entryID, id); err != nil {
		return err
	}
	if err := backend.RemoveAttachment(ctx, e.Tree().VaultID, id); err != nil {
		return fmt.Errorf("attachment: %w", err)
	}
	return e.DeleteEntryAttribute(entryID, attrKey(id))
}
