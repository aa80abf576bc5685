// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package biometric provides a uniform probe/authenticate surface over
// platform biometric capabilities (Touch ID / Face ID, Windows Hello,
// fprintd) with an Unsupported fallback.
//
// The platform variant is selected once at process start by build tag;
// platform identity is never re-probed per call. A successful
// authentication is a capability signal for the presentation layer —
// it does not unlock the vault by itself.
package biometric

import "sync"

// Kind identifies the type of biometric hardware.
type Kind string

const (
	// KindFingerprint indicates fingerprint hardware.
	KindFingerprint Kind = "fingerprint"
	// KindFace indicates face-recognition hardware.
	KindFace Kind = "face"
	// KindUnknown indicates the hardware type could not be determined.
	KindUnknown Kind = "unknown"
)

// Availability reports whether biometric authentication can be offered.
// "Not available" is a value, never an error: only a failure of the
// platform query itself is an error.
type Availability struct {
	Available bool `json:"available"`
	Kind      Kind `json:"kind"`
	Enrolled  bool `json:"enrolled"`
}

// Result is the outcome of one authentication attempt. Exactly one of
// Success or Error is the meaningful branch; Method is only set on
// success.
type Result struct {
	Success bool   `json:"success"`
	Method  string `json:"method,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Authenticator is the per-platform capability surface.
type Authenticator interface {
	// IsAvailable probes the platform for biometric capability.
	IsAvailable() (Availability, error)

	// Authenticate attempts to verify identity with the given
	// human-readable prompt. Mismatch and missing platform support are
	// reported in the Result, not as errors.
	Authenticate(prompt string) (Result, error)
}

var (
	defaultAuth     Authenticator
	defaultAuthOnce sync.Once
)

// Default returns the process-wide authenticator for the host platform,
// selected on first use and fixed thereafter.
func Default() Authenticator {
	defaultAuthOnce.Do(func() {
		defaultAuth = newPlatformAuthenticator()
	})
	return defaultAuth
}

// Unsupported is the fallback for platforms without any biometric
// integration.
type Unsupported struct{}

// IsAvailable always reports no capability. Unsupported hardware is not
// an infrastructure error.
func (Unsupported) IsAvailable() (Availability, error) {
	return Availability{Available: false, Kind: KindUnknown, Enrolled: false}, nil
}

// Authenticate always fails with an explanatory message.
func (Unsupported) Authenticate(prompt string) (Result, error) {
	return Result{
		Success: false,
		Error:   "biometric authentication is not available on this platform",
	}, nil
}
