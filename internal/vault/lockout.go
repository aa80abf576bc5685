// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Failed-unlock lockout. After a run of consecutive failures the gate
// refuses further attempts for a cooldown window, and a token bucket
// paces attempts so a scripted caller cannot hammer the KDF.
package vault

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxAttempts is the number of consecutive failed unlocks
	// before the lockout window starts.
	DefaultMaxAttempts = 3

	// DefaultLockoutDuration is how long unlock attempts are refused
	// after the failure limit is reached.
	DefaultLockoutDuration = 15 * time.Minute

	// attemptInterval is the sustained rate at which unlock attempts are
	// admitted by the token bucket.
	attemptInterval = time.Second
)

// ErrLockedOut indicates unlock attempts are refused until the lockout
// window expires. This is an infrastructure-style fault, distinct from
// the wrong-secret boolean outcome.
var ErrLockedOut = errors.New("unlock is temporarily locked out after repeated failures")

// Lockout tracks consecutive failed unlock attempts for one vault.
type Lockout struct {
	mu sync.Mutex

	maxAttempts int
	duration    time.Duration

	failures    int
	lockedUntil time.Time

	limiter *rate.Limiter
}

// NewLockout creates a lockout tracker. Non-positive arguments fall back
// to the defaults.
func NewLockout(maxAttempts int, duration time.Duration) *Lockout {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	return &Lockout{
		maxAttempts: maxAttempts,
		duration:    duration,
		limiter:     rate.NewLimiter(rate.Every(attemptInterval), maxAttempts),
	}
}

// Allow reports whether an unlock attempt may proceed.
// Returns ErrLockedOut while the lockout window is open or when the
// attempt rate is exceeded.
func (l *Lockout) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.lockedUntil.IsZero() {
		if time.Now().Before(l.lockedUntil) {
			return ErrLockedOut
		}
		// Window expired: reset and let the attempt through.
		l.lockedUntil = time.Time{}
		l.failures = 0
	}

	if !l.limiter.Allow() {
		return ErrLockedOut
	}
	return nil
}

// RecordAttempt records the outcome of an unlock attempt. A success
// clears the failure run; reaching the failure limit opens the lockout
// window.
func (l *Lockout) RecordAttempt(success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if success {
		l.failures = 0
		l.lockedUntil = time.Time{}
		return
	}

	l.failures++
	if l.failures >= l.maxAttempts {
		l.lockedUntil = time.Now().Add(l.duration)
	}
}

// IsLocked reports whether the lockout window is currently open.
func (l *Lockout) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.lockedUntil.IsZero() && time.Now().Before(l.lockedUntil)
}

// Remaining returns the time until the lockout window closes.
// Returns 0 when not locked.
func (l *Lockout) Remaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lockedUntil.IsZero() {
		return 0
	}
	remaining := time.Until(l.lockedUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Failures returns the current consecutive failure count.
func (l *Lockout) Failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures
}
