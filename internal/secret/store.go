// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package secret provides the OS-native credential store collaborator.
//
// Secrets are opaque strings keyed by a (service, account) pair. The
// session-lock core only references entries through that identity; it
// imposes no structure on the stored value and adds no retry logic.
// Serializing concurrent access to one (service, account) key is the
// store's own concern.
package secret

// Store is the key/value interface over an OS credential vault.
type Store interface {
	// Save stores a secret for (service, account), replacing any
	// existing value.
	Save(service, account, secret string) error

	// Get retrieves the secret for (service, account).
	// A missing entry returns ("", false, nil): absence is an expected
	// outcome, not a fault.
	Get(service, account string) (string, bool, error)

	// Delete removes the entry for (service, account). Deleting a
	// missing entry is a no-op.
	Delete(service, account string) error
}
