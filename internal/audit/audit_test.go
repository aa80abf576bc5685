// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for the append-only audit trail:
// - Log line format
// - Nil-logger and disabled-logger behavior
// - Size-based rotation
package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestEvent_ToLogLine tests the pipe-delimited line format.
func TestEvent_ToLogLine(t *testing.T) {
	event := Event{
		Timestamp: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		EventType: EventAutoLock,
		SessionID: "sn_test",
		Success:   true,
		Metadata:  map[string]string{"idle": "5m0s"},
	}

	line := event.ToLogLine()
	require.Equal(t, `2025-03-14 09:26:53 | AUTO_LOCK | sn_test | SUCCESS | {"idle":"5m0s"}`, line)

	event.Success = false
	event.Metadata = nil
	require.Contains(t, event.ToLogLine(), "| FAILURE |")
}

// TestLogger_WritesEvents tests that events land in the file with the
// session identifier.
func TestLogger_WritesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "audit.log")
	logger, err := NewLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	require.True(t, logger.IsEnabled())
	require.True(t, strings.HasPrefix(logger.SessionID(), "sn_"))

	require.NoError(t, logger.Log(EventUnlock, true, nil))
	require.NoError(t, logger.Log(EventUnlockFailed, false, map[string]string{"reason": "invalid_secret"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "UNLOCK")
	require.Contains(t, lines[0], logger.SessionID())
	require.Contains(t, lines[1], `{"reason":"invalid_secret"}`)
}

// TestLogger_NilSafe tests that a nil logger drops events silently.
func TestLogger_NilSafe(t *testing.T) {
	var logger *Logger
	require.NoError(t, logger.Log(EventLock, true, nil))
	require.NoError(t, logger.Close())
	require.False(t, logger.IsEnabled())
	require.Empty(t, logger.SessionID())
	require.Empty(t, logger.Path())
	logger.SetEnabled(true)
	logger.SetMaxSize(1)
}

// TestLogger_Disabled tests that a disabled logger writes nothing.
func TestLogger_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	logger.SetEnabled(false)
	require.NoError(t, logger.Log(EventUnlock, true, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

// TestLogger_Rotation tests that the log rotates to .old once it exceeds
// the threshold.
func TestLogger_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	logger.SetMaxSize(128)
	for i := 0; i < 10; i++ {
		require.NoError(t, logger.Log(EventUnlock, true, map[string]string{"n": "padding payload"}))
	}

	_, err = os.Stat(path + ".old")
	require.NoError(t, err, "rotated log should exist")

	// Logging continues into the fresh file after rotation.
	require.NoError(t, logger.Log(EventLock, true, nil))
}
