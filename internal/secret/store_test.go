// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for the secret store contract, exercised against the in-memory
// implementation. The system store is a thin keyring shim and needs a
// real OS credential service, so it is not covered here.
package secret

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMemoryStore_SaveGetDelete tests the basic contract.
func TestMemoryStore_SaveGetDelete(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Save("safenode", "alice", "s3cret"))

	value, found, err := store.Get("safenode", "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "s3cret", value)

	require.NoError(t, store.Delete("safenode", "alice"))
	_, found, err = store.Get("safenode", "alice")
	require.NoError(t, err)
	require.False(t, found)
}

// TestMemoryStore_MissingIsNotAnError tests that absent entries are a
// boolean outcome and deleting them is a no-op.
func TestMemoryStore_MissingIsNotAnError(t *testing.T) {
	store := NewMemoryStore()

	value, found, err := store.Get("safenode", "nobody")
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, value)

	require.NoError(t, store.Delete("safenode", "nobody"))
}

// TestMemoryStore_KeyedByServiceAndAccount tests that entries are
// isolated per (service, account) pair.
func TestMemoryStore_KeyedByServiceAndAccount(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Save("safenode", "alice", "a"))
	require.NoError(t, store.Save("safenode", "bob", "b"))
	require.NoError(t, store.Save("other", "alice", "c"))

	value, found, _ := store.Get("safenode", "alice")
	require.True(t, found)
	require.Equal(t, "a", value)

	value, found, _ = store.Get("other", "alice")
	require.True(t, found)
	require.Equal(t, "c", value)

	require.NoError(t, store.Delete("safenode", "alice"))
	_, found, _ = store.Get("safenode", "bob")
	require.True(t, found)
}

// TestMemoryStore_Overwrite tests that saving twice replaces the value.
func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Save("safenode", "alice", "old"))
	require.NoError(t, store.Save("safenode", "alice", "new"))

	value, found, _ := store.Get("safenode", "alice")
	require.True(t, found)
	require.Equal(t, "new", value)
}

// TestMemoryStore_Concurrent tests concurrent readers and writers.
func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Save("safenode", "shared", "v")
			_, _, _ = store.Get("safenode", "shared")
			_ = store.Delete("safenode", "shared")
		}()
	}
	wg.Wait()
}
