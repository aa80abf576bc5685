// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !darwin && !windows && !linux

package biometric

func newPlatformAuthenticator() Authenticator {
	return Unsupported{}
}
