// Package capabilities implements the engine's configurable-capability
// lookup (spec §6.4): a registry mapping fixed capability keys to
// callables, with the default implementations wired to pkg/vcrypto and
// pkg/compress.
package capabilities

import (
	"errors"
	"sync"

	"github.com/riftlock/vaultengine/pkg/compress"
	"github.com/riftlock/vaultengine/pkg/vcrypto"
)

// The recognized capability keys (spec §6.4).
const (
	KeyEncryptText         = "crypto/v1/encryptText"
	KeyDecryptText         = "crypto/v1/decryptText"
	KeyEncryptBuffer       = "crypto/v2/encryptBuffer"
	KeyDecryptBuffer       = "crypto/v2/decryptBuffer"
	KeyRandomString        = "crypto/v1/randomString"
	KeySetDerivationRounds = "crypto/v1/setDerivationRounds"
	KeyCompressText        = "compression/v1/compressText"
	KeyDecompressText      = "compression/v1/decompressText"
)

// ErrUnknownKey is returned by GetProperty for a key outside the recognized set.
var ErrUnknownKey = errors.New("capabilities: unrecognized key")

// recognizedKeys is the closed set Register validates against
// (spec §6.4 lists exactly these keys).
var recognizedKeys = map[string]bool{
	KeyEncryptText:         true,
	KeyDecryptText:         true,
	KeyEncryptBuffer:       true,
	KeyDecryptBuffer:       true,
	KeyRandomString:        true,
	KeySetDerivationRounds: true,
	KeyCompressText:        true,
	KeyDecompressText:      true,
}

// Registry is a lookup from capability key to its registered
// implementation. Each key has exactly one implementation at a time;
// re-registration replaces it (spec §6.4).
type Registry struct {
	mu    sync.RWMutex
	impls map[string]any
}

// NewRegistry builds a registry pre-populated with the engine's default
// implementations of every recognized key.
func NewRegistry() *Registry {
	r := &Registry{impls: make(map[string]any, len(recognizedKeys))}
	r.Register(KeyEncryptText, vcrypto.EncryptText)
	r.Register(KeyDecryptText, vcrypto.DecryptText)
	r.Register(KeyEncryptBuffer, vcrypto.EncryptBuffer)
	r.Register(KeyDecryptBuffer, vcrypto.DecryptBuffer)
	r.Register(KeyRandomString, vcrypto.RandomString)
	r.Register(KeySetDerivationRounds, vcrypto.SetDerivationRounds)
	r.Register(KeyCompressText, compress.CompressText)
	r.Register(KeyDecompressText, compress.DecompressText)
	return r
}

// Register installs impl as the implementation for key, replacing any
// prior registration. Registering a key outside the recognized set panics:
// it is a programming error, not a runtime condition callers should
// handle (the closed key set is part of the contract, spec §6.4).
func (r *Registry) Register(key string, impl any) {
	if !recognizedKeys[key] {
		panic("capabilities: " + key + " is not a recognized capability key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impls[key] = impl
}

// GetProperty returns the callable registered for key (spec §6.4
// "getProperty(key) → callable"). Callers type-assert the result to the
// signature they expect for that key.
func (r *Registry) GetProperty(key string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.impls[key]
	if !ok {
		return nil, ErrUnknownKey
	}
	return impl, nil
}
