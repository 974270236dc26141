// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package auth

import (
	"crypto/md5" //nolint:gosec // legacy account store format, not a security choice
	"crypto/subtle"
	"encoding/hex"
)

// PasswordHasher derives and checks stored password digests.
type PasswordHasher interface {
	// Hash returns the digest stored for password.
	Hash(password string) string

	// Verify reports whether password matches the stored digest.
	Verify(password string, stored []byte) bool
}

// LegacyMD5Hasher implements the account store's inherited format: the
// lower-case hex MD5 of the password, unsalted. Changing it requires a
// migration of every stored account.
type LegacyMD5Hasher struct{}

// NewLegacyMD5Hasher creates a new LegacyMD5Hasher.
func NewLegacyMD5Hasher() *LegacyMD5Hasher {
	return &LegacyMD5Hasher{}
}

// Hash returns the hex encoded MD5 digest of password.
func (h *LegacyMD5Hasher) Hash(password string) string {
	sum := md5.Sum([]byte(password)) //nolint:gosec // see LegacyMD5Hasher
	return hex.EncodeToString(sum[:])
}

// Verify compares the digest of password against stored in constant time.
func (h *LegacyMD5Hasher) Verify(password string, stored []byte) bool {
	if len(stored) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.Hash(password)), stored) == 1
}
