// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit provides an append-only audit trail for session-lock
// events (unlock, lock, auto-lock, timeout changes, biometric checks).
//
// Events are written as single pipe-delimited lines with a JSON metadata
// tail. The log rotates once it exceeds a size threshold. Logging never
// blocks the session state lock; callers log after releasing it.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxFileSize is the default max file size before rotation (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Event types recorded by the session-lock core.
const (
	EventUnlock         = "UNLOCK"
	EventUnlockFailed   = "UNLOCK_FAILED"
	EventLock           = "LOCK"
	EventAutoLock       = "AUTO_LOCK"
	EventTimeoutChanged = "TIMEOUT_CHANGED"
	EventBiometricCheck = "BIOMETRIC_CHECK"
	EventBiometricAuth  = "BIOMETRIC_AUTH"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	SessionID string            `json:"session_id"`
	Success   bool              `json:"success"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ToLogLine formats the event as a single log line.
func (e *Event) ToLogLine() string {
	status := "SUCCESS"
	if !e.Success {
		status = "FAILURE"
	}

	meta := ""
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = string(b)
		}
	}

	return fmt.Sprintf("%s | %s | %s | %s | %s",
		e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		e.EventType,
		e.SessionID,
		status,
		meta,
	)
}

// Logger appends audit events to a log file.
// A nil *Logger is valid and drops all events.
type Logger struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	maxSize   int64
	enabled   bool
	sessionID string
}

// NewLogger opens (or creates) the audit log at path. Every process run
// gets a fresh session identifier so events can be correlated.
func NewLogger(path string) (*Logger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return &Logger{
		path:      path,
		file:      file,
		maxSize:   DefaultMaxFileSize,
		enabled:   true,
		sessionID: "sn_" + uuid.NewString(),
	}, nil
}

// Log records an event. Safe to call on a nil logger.
func (l *Logger) Log(eventType string, success bool, metadata map[string]string) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || l.file == nil {
		return nil
	}

	event := Event{
		Timestamp: time.Now(),
		EventType: eventType,
		SessionID: l.sessionID,
		Success:   success,
		Metadata:  metadata,
	}

	if _, err := fmt.Fprintln(l.file, event.ToLogLine()); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}

	return l.checkRotationLocked()
}

// checkRotationLocked rotates the log when it exceeds the size threshold.
// The previous log is kept with a .old suffix.
func (l *Logger) checkRotationLocked() error {
	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat audit log: %w", err)
	}
	if info.Size() < l.maxSize {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close audit log for rotation: %w", err)
	}
	l.file = nil

	if err := os.Rename(l.path, l.path+".old"); err != nil {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to reopen audit log: %w", err)
	}
	l.file = file
	return nil
}

// SetMaxSize overrides the rotation threshold.
func (l *Logger) SetMaxSize(size int64) {
	if l == nil || size <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = size
}

// SetEnabled enables or disables event recording.
func (l *Logger) SetEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// IsEnabled returns whether event recording is active.
func (l *Logger) IsEnabled() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// SessionID returns the per-process correlation identifier.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Path returns the audit log path.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
