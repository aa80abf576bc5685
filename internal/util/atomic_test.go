// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAtomicWriteFile tests write, permissions and overwrite behavior.
func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "file.bin")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), data)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Overwrite replaces the content in one step.
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0600))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), data)
}

// TestAtomicWriteFile_NoTempLeftovers tests that no temp files remain
// after a successful write.
func TestAtomicWriteFile_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AtomicWriteFile(filepath.Join(dir, "f"), []byte("x"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "f", entries[0].Name())
}
