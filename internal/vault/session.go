// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Credential gate and activity tracker.
//
// All mutable session state (unlocked flag, vault payload, last-activity
// timestamp, auto-lock timeout) lives in one record guarded by a single
// mutex. Critical sections are short and never span keeper, keystore or
// biometric I/O: the keeper opens the vault before the session lock is
// taken, and audit/event delivery happens after it is released.
package vault

import (
	"sync"
	"time"

	"github.com/jeranaias/safenode/internal/audit"
)

// DefaultAutoLockTimeout is the auto-lock timeout applied at process
// start when no configuration overrides it.
const DefaultAutoLockTimeout = 5 * time.Minute

// defaultEventBuffer is the capacity of the event channel. Events are
// dropped rather than blocking a state transition when no observer is
// draining the channel.
const defaultEventBuffer = 16

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies a session state transition.
type EventKind int

const (
	// EventUnlocked is emitted on a Locked -> Unlocked transition.
	EventUnlocked EventKind = iota
	// EventLocked is emitted on an explicit Unlocked -> Locked transition.
	EventLocked
	// EventAutoLocked is emitted when the monitor re-locks an idle session.
	// Observers should hide any exposed secret view.
	EventAutoLocked
)

// String returns a string representation of the EventKind.
func (k EventKind) String() string {
	switch k {
	case EventUnlocked:
		return "UNLOCKED"
	case EventLocked:
		return "LOCKED"
	case EventAutoLocked:
		return "AUTO_LOCKED"
	default:
		return "UNKNOWN"
	}
}

// Event is a session state transition notification. Every transition
// into or out of the unlocked state produces one, so external observers
// (tray menu, windows) can react without the core calling into UI code.
type Event struct {
	// Kind is the transition that occurred.
	Kind EventKind
	// At is when the transition occurred.
	At time.Time
	// Idle is the idle duration at lock time. Only set for EventAutoLocked.
	Idle time.Duration
}

// =============================================================================
// GATE
// =============================================================================

// Gate owns the session state and is the only component allowed to
// mutate it. The background monitor re-locks through the same code path
// the UI-facing Lock uses.
type Gate struct {
	mu sync.Mutex

	// unlocked is true iff a valid unlock occurred and no lock has since.
	unlocked bool

	// payload is the opened vault payload. Present only while unlocked.
	payload []byte

	// lastActivity is the timestamp of the last recorded interaction.
	// Zero while locked.
	lastActivity time.Time

	// autoLock is the idle timeout. Meaningful only when autoLockEnabled.
	// It is a setting, not session data, and survives lock/unlock.
	autoLock        time.Duration
	autoLockEnabled bool

	keeper  Keeper
	lockout *Lockout
	auditor *audit.Logger
	events  chan Event
}

// Option is a functional option for configuring a Gate.
type Option func(*Gate)

// WithAutoLockTimeout sets the initial auto-lock timeout.
func WithAutoLockTimeout(d time.Duration) Option {
	return func(g *Gate) {
		g.autoLock = d
		g.autoLockEnabled = true
	}
}

// WithAutoLockDisabled starts the gate with auto-lock off.
func WithAutoLockDisabled() Option {
	return func(g *Gate) {
		g.autoLock = 0
		g.autoLockEnabled = false
	}
}

// WithLockout enables failed-attempt lockout on Unlock.
func WithLockout(l *Lockout) Option {
	return func(g *Gate) {
		g.lockout = l
	}
}

// WithAuditLogger sets the audit logger for session events.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(g *Gate) {
		g.auditor = logger
	}
}

// NewGate creates a locked gate over the given keeper.
// The auto-lock timeout defaults to DefaultAutoLockTimeout.
func NewGate(keeper Keeper, opts ...Option) *Gate {
	g := &Gate{
		keeper:          keeper,
		autoLock:        DefaultAutoLockTimeout,
		autoLockEnabled: true,
		events:          make(chan Event, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Events returns the channel on which state transitions are published.
func (g *Gate) Events() <-chan Event {
	return g.events
}

// emit publishes an event without ever blocking a state transition.
func (g *Gate) emit(e Event) {
	select {
	case g.events <- e:
	default:
		// No observer draining; the transition itself is authoritative.
	}
}

// =============================================================================
// UNLOCK / LOCK
// =============================================================================

// Unlock verifies the candidate secret against the sealed vault. On a
// match the session transitions to unlocked, the payload is retained in
// memory and the activity clock starts. A wrong secret returns
// (false, nil): it is an expected outcome, not a fault. Errors are
// infrastructure faults only (unreadable vault, lockout in effect).
func (g *Gate) Unlock(secret []byte) (bool, error) {
	if g.lockout != nil {
		if err := g.lockout.Allow(); err != nil {
			g.auditor.Log(audit.EventUnlockFailed, false, map[string]string{
				"reason": "locked_out",
			})
			return false, err
		}
	}

	// Keeper I/O happens before the session lock is taken; it may block
	// on disk or a KDF and must not starve the monitor.
	payload, ok, err := g.keeper.Open(secret)

	if g.lockout != nil {
		g.lockout.RecordAttempt(ok && err == nil)
	}

	if err != nil {
		g.auditor.Log(audit.EventUnlockFailed, false, map[string]string{
			"reason": err.Error(),
		})
		return false, err
	}
	if !ok {
		g.auditor.Log(audit.EventUnlockFailed, false, map[string]string{
			"reason": "invalid_secret",
		})
		return false, nil
	}

	now := time.Now()

	g.mu.Lock()
	if g.unlocked {
		// Re-authentication while already unlocked refreshes activity
		// but is not a state transition.
		g.lastActivity = now
		g.mu.Unlock()
		ZeroBytes(payload)
		return true, nil
	}
	g.unlocked = true
	g.payload = payload
	g.lastActivity = now
	g.mu.Unlock()

	g.emit(Event{Kind: EventUnlocked, At: now})
	g.auditor.Log(audit.EventUnlock, true, nil)
	return true, nil
}

// Lock transitions the session to locked, clearing the payload and the
// activity timestamp. Idempotent: locking a locked session does nothing.
// The auto-lock timeout is a setting and survives.
func (g *Gate) Lock() {
	now := time.Now()

	g.mu.Lock()
	if !g.unlocked {
		g.mu.Unlock()
		return
	}
	g.clearSessionLocked()
	g.mu.Unlock()

	g.emit(Event{Kind: EventLocked, At: now})
	g.auditor.Log(audit.EventLock, true, nil)
}

// clearSessionLocked drops the unlocked state. Caller holds g.mu.
func (g *Gate) clearSessionLocked() {
	g.unlocked = false
	ZeroBytes(g.payload)
	g.payload = nil
	g.lastActivity = time.Time{}
}

// Status returns whether the session is unlocked. No side effects.
func (g *Gate) Status() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unlocked
}

// Payload returns a copy of the vault payload while unlocked.
// The second return is false while locked.
func (g *Gate) Payload() ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.unlocked {
		return nil, false
	}
	out := make([]byte, len(g.payload))
	copy(out, g.payload)
	return out, true
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordActivity stamps the activity clock. A no-op while locked:
// activity cannot refresh a lock that does not exist. Cheap enough to
// call on every UI interaction.
func (g *Gate) RecordActivity() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.unlocked {
		return
	}
	g.lastActivity = time.Now()
}

// IdleDuration returns the time since the last recorded activity.
// The second return is false while locked or when no activity is stamped.
func (g *Gate) IdleDuration() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.unlocked || g.lastActivity.IsZero() {
		return 0, false
	}
	return time.Since(g.lastActivity), true
}

// =============================================================================
// AUTO-LOCK SETTINGS
// =============================================================================

// SetAutoLockTimeout sets the idle timeout after which the monitor
// re-locks the session. A timeout of exactly 0 locks on the next tick.
func (g *Gate) SetAutoLockTimeout(d time.Duration) {
	g.mu.Lock()
	g.autoLock = d
	g.autoLockEnabled = true
	g.mu.Unlock()

	g.auditor.Log(audit.EventTimeoutChanged, true, map[string]string{
		"timeout": d.String(),
	})
}

// DisableAutoLock turns auto-lock off. The session then stays unlocked
// regardless of idle time until Lock is called.
func (g *Gate) DisableAutoLock() {
	g.mu.Lock()
	g.autoLock = 0
	g.autoLockEnabled = false
	g.mu.Unlock()

	g.auditor.Log(audit.EventTimeoutChanged, true, map[string]string{
		"timeout": "disabled",
	})
}

// AutoLockTimeout returns the current timeout. The second return is
// false when auto-lock is disabled.
func (g *Gate) AutoLockTimeout() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.autoLock, g.autoLockEnabled
}

// maybeAutoLock checks the idle condition and locks in one critical
// section, so the unlocked flag, timeout and activity stamp the decision
// is based on cannot be interleaved with a concurrent unlock or lock.
// Returns true if the session was re-locked.
func (g *Gate) maybeAutoLock() bool {
	now := time.Now()

	g.mu.Lock()
	if !g.unlocked || !g.autoLockEnabled || g.lastActivity.IsZero() {
		g.mu.Unlock()
		return false
	}
	idle := now.Sub(g.lastActivity)
	if idle < g.autoLock {
		g.mu.Unlock()
		return false
	}
	g.clearSessionLocked()
	g.mu.Unlock()

	g.emit(Event{Kind: EventAutoLocked, At: now, Idle: idle})
	g.auditor.Log(audit.EventAutoLock, true, map[string]string{
		"idle": idle.String(),
	})
	return true
}
