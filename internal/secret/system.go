// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// OS-native store: Keychain on macOS, Credential Manager on Windows,
// Secret Service (libsecret) on Linux, all through go-keyring.
package secret

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// SystemStore stores secrets in the operating system credential vault.
type SystemStore struct{}

// NewSystemStore returns a store backed by the OS credential vault.
func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

// Save stores a secret in the OS vault.
func (s *SystemStore) Save(service, account, secret string) error {
	if err := keyring.Set(service, account, secret); err != nil {
		return fmt.Errorf("failed to save to system keyring: %w", err)
	}
	return nil
}

// Get retrieves a secret from the OS vault. A missing entry is reported
// as absent, not as an error.
func (s *SystemStore) Get(service, account string) (string, bool, error) {
	value, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read from system keyring: %w", err)
	}
	return value, true, nil
}

// Delete removes a secret from the OS vault. Deleting a missing entry
// succeeds.
func (s *SystemStore) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete from system keyring: %w", err)
	}
	return nil
}
