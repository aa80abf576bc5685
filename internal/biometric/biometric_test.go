// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for the platform-independent biometric surface.
package biometric

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestUnsupported_IsAvailable tests that missing platform support is a
// value, not an error.
func TestUnsupported_IsAvailable(t *testing.T) {
	avail, err := Unsupported{}.IsAvailable()
	require.NoError(t, err)
	require.False(t, avail.Available)
	require.False(t, avail.Enrolled)
	require.Equal(t, KindUnknown, avail.Kind)
}

// TestUnsupported_Authenticate tests the fallback failure result.
func TestUnsupported_Authenticate(t *testing.T) {
	result, err := Unsupported{}.Authenticate("Unlock SafeNode")
	require.NoError(t, err)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
	require.Empty(t, result.Method)
}

// TestDefault_Stable tests that the platform authenticator is selected
// once and reused.
func TestDefault_Stable(t *testing.T) {
	first := Default()
	require.NotNil(t, first)
	require.Equal(t, first, Default())
}
