// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vault implements the SafeNode session-lock core: a credential
// gate over a sealed vault payload, an activity tracker, and a
// background auto-lock monitor.
//
// The vault payload is sealed with AES-256-GCM under a key derived from
// the unlock secret via PBKDF2-SHA-256. A failed GCM authentication tag
// is the "wrong secret" signal; it is reported as a boolean outcome,
// never as an error.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/safenode/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// vaultMagic marks the start of a sealed vault file.
const vaultMagic = "SNV1"

// NonceSize is the size of the nonce/IV for AES-GCM (12 bytes / 96 bits).
const NonceSize = 12

// KeySize is the size of the AES-256 key (32 bytes / 256 bits).
const KeySize = 32

// SaltSize is the size of the salt for key derivation (32 bytes).
const SaltSize = 32

// PBKDF2Iterations is the number of iterations for PBKDF2 key derivation.
// OWASP 2023 recommends 600,000+ for PBKDF2-SHA-256 to provide adequate
// resistance against brute-force attacks with modern hardware.
const PBKDF2Iterations = 600000

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrVaultNotFound indicates no sealed vault exists at the configured path.
	ErrVaultNotFound = errors.New("vault not initialized: run 'safenode init'")
	// ErrVaultCorrupt indicates the vault file is malformed.
	ErrVaultCorrupt = errors.New("vault file is corrupt or truncated")
)

// =============================================================================
// SECURITY HELPER FUNCTIONS
// =============================================================================

// ZeroBytes securely zeros sensitive byte slices to prevent memory disclosure.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// KEY DERIVATION
// =============================================================================

// GenerateSalt generates a cryptographically secure random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a vault key from an unlock secret and salt using
// PBKDF2-SHA-256. This implements NIST SP 800-132 Password-Based Key
// Derivation.
func DeriveKey(secret, salt []byte) []byte {
	return pbkdf2.Key(secret, salt, PBKDF2Iterations, KeySize, sha256.New)
}

// =============================================================================
// KEEPER
// =============================================================================

// Keeper opens the sealed vault payload with a candidate unlock secret.
// Implementations must distinguish a wrong secret (ok == false, err == nil)
// from an infrastructure fault (err != nil).
type Keeper interface {
	Open(secret []byte) (payload []byte, ok bool, err error)
}

// FileKeeper reads a sealed vault file from disk and opens it with a
// derived key. File layout: magic | salt | nonce | ciphertext+tag.
type FileKeeper struct {
	path string
}

// NewFileKeeper creates a keeper backed by the vault file at path.
func NewFileKeeper(path string) *FileKeeper {
	return &FileKeeper{path: path}
}

// Path returns the vault file path.
func (k *FileKeeper) Path() string {
	return k.path
}

// Exists reports whether a sealed vault file is present.
func (k *FileKeeper) Exists() bool {
	_, err := os.Stat(k.path)
	return err == nil
}

// Open reads the sealed vault and attempts to open it with the candidate
// secret. A GCM authentication failure means the secret is wrong and is
// returned as ok == false, not as an error.
func (k *FileKeeper) Open(secret []byte) ([]byte, bool, error) {
	data, err := os.ReadFile(k.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, ErrVaultNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read vault file: %w", err)
	}

	header := len(vaultMagic) + SaltSize + NonceSize
	if len(data) < header || string(data[:len(vaultMagic)]) != vaultMagic {
		return nil, false, ErrVaultCorrupt
	}

	salt := data[len(vaultMagic) : len(vaultMagic)+SaltSize]
	nonce := data[len(vaultMagic)+SaltSize : header]
	ciphertext := data[header:]

	key := DeriveKey(secret, salt)
	// SECURITY: Zero key material to prevent memory disclosure
	defer ZeroBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return nil, false, err
	}

	payload, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		// Authentication tag mismatch: wrong secret, expected outcome.
		return nil, false, nil
	}

	return payload, true, nil
}

// Seal seals payload under secret and writes the vault file atomically
// with restricted permissions. A fresh salt and nonce are generated on
// every call.
func (k *FileKeeper) Seal(secret, payload []byte) error {
	salt, err := GenerateSalt()
	if err != nil {
		return err
	}

	key := DeriveKey(secret, salt)
	// SECURITY: Zero key material to prevent memory disclosure
	defer ZeroBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(vaultMagic)+SaltSize+NonceSize+len(payload)+aead.Overhead())
	out = append(out, vaultMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, payload, nil)

	if err := util.AtomicWriteFile(k.path, out, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	return nil
}

// newAEAD builds the AES-256-GCM cipher for a derived key.
func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
