// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Auto-lock monitor. One long-lived goroutine polls the session on a
// fixed cadence and re-locks it once idle time reaches the timeout.
//
// Polling is intentional: the timeout can be changed at any moment, and
// a short fixed poll trades bounded latency (at most one interval) for
// trivial cancellation. No timer rescheduling logic is needed; each tick
// simply re-reads the current settings.
package vault

import (
	"context"
	"log"
	"time"
)

// DefaultPollInterval is the auto-lock polling cadence.
const DefaultPollInterval = 5 * time.Second

// Monitor re-locks an idle session through the same lock path the UI
// uses. It never calls into presentation code; observers react to the
// AutoLocked event on the gate's event channel.
type Monitor struct {
	gate     *Gate
	interval time.Duration
}

// MonitorOption is a functional option for configuring a Monitor.
type MonitorOption func(*Monitor)

// WithPollInterval overrides the polling cadence (tests use a short one).
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// NewMonitor creates a monitor for the given gate.
func NewMonitor(gate *Gate, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		gate:     gate,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Interval returns the polling cadence.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Start launches the polling loop in its own goroutine. The loop runs
// until ctx is cancelled; in the application that is process exit.
func (m *Monitor) Start(ctx context.Context) {
	go m.Run(ctx)
}

// Run executes the polling loop, blocking until ctx is cancelled.
// Each tick evaluates the unlocked flag, the timeout setting and the
// activity stamp in one critical section inside the gate, so a
// concurrent unlock or lock can never be half-observed.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.gate.maybeAutoLock() {
				log.Printf("AUTO_LOCK: session re-locked after idle timeout")
			}
		}
	}
}
