// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// CodeCharacterNotFound marks an ErrNotFound about a character rather than an account.
const CodeCharacterNotFound = "CHARACTER_NOT_FOUND"

// Error kinds. Every error returned by this package or by the store clients
// wraps exactly one of these, so callers can branch with errors.Is.
var (
	// ErrNotFound is returned when an account or character does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuthenticationFailed is returned when the password does not match.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrConflict is returned when an account name is already taken.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for rejected input such as a non-positive amount.
	ErrValidation = errors.New("validation failed")

	// ErrStore wraps connection and query failures of the backing stores.
	ErrStore = errors.New("store failure")

	// ErrEncoding is returned when a launch token cannot be built. It implies
	// corrupted key material and should never happen in normal operation.
	ErrEncoding = errors.New("token encoding failed")
)

// Kind returns the error kind err wraps, or nil if it wraps none of them.
// Context deadline and cancellation count as store failures since they only
// surface here while waiting on a store.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrAuthenticationFailed, ErrConflict, ErrValidation, ErrEncoding, ErrStore} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrStore
	}
	return nil
}

// StoreError marks err as a store failure while keeping it in the chain.
func StoreError(err error) error {
	if err == nil || errors.Is(err, ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}

// UserMessage returns the corrective message shown to the player for err.
func UserMessage(err error) string {
	switch Kind(err) {
	case nil:
		if err == nil {
			return ""
		}
		return "Unexpected error"
	case ErrNotFound:
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == CodeCharacterNotFound {
			return "Character not found"
		}
		return "User not found"
	case ErrAuthenticationFailed:
		return "Invalid password"
	case ErrConflict:
		return "Account name already exists!"
	case ErrValidation:
		return "Wrong value!"
	case ErrEncoding:
		return "Could not create a launch token"
	default:
		return "Database unavailable, try again later"
	}
}
