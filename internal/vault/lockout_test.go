// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for the failed-unlock lockout window and attempt pacing.
package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLockout_OpensAfterMaxFailures tests that the window opens at the
// failure limit and refuses further attempts.
func TestLockout_OpensAfterMaxFailures(t *testing.T) {
	lockout := NewLockout(3, time.Minute)

	for i := 0; i < 3; i++ {
		require.NoError(t, lockout.Allow())
		lockout.RecordAttempt(false)
	}

	require.True(t, lockout.IsLocked())
	require.Equal(t, 3, lockout.Failures())
	require.ErrorIs(t, lockout.Allow(), ErrLockedOut)
	require.Greater(t, lockout.Remaining(), time.Duration(0))
}

// TestLockout_SuccessResetsFailures tests that a successful unlock
// clears the failure run.
func TestLockout_SuccessResetsFailures(t *testing.T) {
	lockout := NewLockout(3, time.Minute)

	lockout.RecordAttempt(false)
	lockout.RecordAttempt(false)
	require.Equal(t, 2, lockout.Failures())

	lockout.RecordAttempt(true)
	require.Zero(t, lockout.Failures())
	require.False(t, lockout.IsLocked())
}

// TestLockout_WindowExpires tests that attempts are admitted again after
// the cooldown elapses.
func TestLockout_WindowExpires(t *testing.T) {
	lockout := NewLockout(2, 30*time.Millisecond)

	lockout.RecordAttempt(false)
	lockout.RecordAttempt(false)
	require.True(t, lockout.IsLocked())

	time.Sleep(40 * time.Millisecond)
	require.False(t, lockout.IsLocked())
	require.NoError(t, lockout.Allow())
	require.Zero(t, lockout.Failures(), "expiry resets the failure run")
}

// TestLockout_RatePacing tests that the token bucket refuses a burst
// beyond the allowed attempts even before any failure is recorded.
func TestLockout_RatePacing(t *testing.T) {
	lockout := NewLockout(3, time.Minute)

	for i := 0; i < 3; i++ {
		require.NoError(t, lockout.Allow())
	}
	require.ErrorIs(t, lockout.Allow(), ErrLockedOut)
}

// TestLockout_Defaults tests the fallback construction arguments.
func TestLockout_Defaults(t *testing.T) {
	lockout := NewLockout(0, 0)
	require.Equal(t, DefaultMaxAttempts, lockout.maxAttempts)
	require.Equal(t, DefaultLockoutDuration, lockout.duration)
}

// TestGate_LockoutRefusesUnlock tests the gate-level integration: after
// the failure limit the gate returns ErrLockedOut without touching the
// keeper.
func TestGate_LockoutRefusesUnlock(t *testing.T) {
	gate := newTestGate(WithLockout(NewLockout(2, time.Minute)))

	for i := 0; i < 2; i++ {
		ok, err := gate.Unlock([]byte("wrong"))
		require.NoError(t, err)
		require.False(t, ok)
	}

	ok, err := gate.Unlock([]byte("correct horse"))
	require.ErrorIs(t, err, ErrLockedOut)
	require.False(t, ok)
	require.False(t, gate.Status())
}
