// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// In-memory store for tests and for platforms without a usable
// credential vault (e.g. headless Linux with no Secret Service).
package secret

import "sync"

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[storeKey]string
}

type storeKey struct {
	service string
	account string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[storeKey]string),
	}
}

// Save stores a secret, replacing any existing value.
func (m *MemoryStore) Save(service, account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[storeKey{service, account}] = secret
	return nil
}

// Get retrieves a secret. A missing entry returns ("", false, nil).
func (m *MemoryStore) Get(service, account string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[storeKey{service, account}]
	return value, ok, nil
}

// Delete removes an entry. Deleting a missing entry is a no-op.
func (m *MemoryStore) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, storeKey{service, account})
	return nil
}
