// Package credstore implements the process-wide CredentialStore the
// engine's design notes call for: a registry of unlocked vault engines
// keyed by vault ID, generalising the teacher's single in-memory
// Vault.dek field (held only while one vault is unlocked, pkg/vault) to a
// multi-vault map guarded by one lock.
package credstore

import (
	"errors"
	"sync"

	"github.com/riftlock/vaultengine/pkg/engine"
)

// ErrNotFound is returned by Get when no engine is registered for a vault ID.
var ErrNotFound = errors.New("credstore: no engine registered for this vault id")

// Store is a process-wide registry of unlocked engines, entries created on
// unlock and dropped on lock (spec DESIGN NOTES §9).
type Store struct {
	mu      sync.RWMutex
	byVault map[string]*engine.Engine
}

// New constructs an empty store. Callers typically hold one process-wide
// instance, mirroring the teacher's single module-scope credentials map.
func New() *Store {
	return &Store{byVault: make(map[string]*engine.Engine)}
}

// Put registers e as the unlocked engine for vaultID, replacing any
// previous registration for the same ID.
func (s *Store) Put(vaultID string, e *engine.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byVault[vaultID] = e
}

// Get returns the engine registered for vaultID, or ErrNotFound.
func (s *Store) Get(vaultID string) (*engine.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byVault[vaultID]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Drop removes vaultID's registration, if any. Dropping an unregistered
// vault ID is not an error (spec: "dropped when it is locked" — locking an
// already-locked vault is a no-op).
func (s *Store) Drop(vaultID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byVault, vaultID)
}

// Len reports how many vaults are currently registered as unlocked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byVault)
}
