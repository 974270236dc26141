// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package auth

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
)

// MaxAccountNameLength is the width of the accountname column, in characters.
const MaxAccountNameLength = 30

// Account is a row of the main account store.
type Account struct {
	UID          int32
	Name         string
	PasswordHash []byte
}

// Credentials are held only for the duration of one operation.
type Credentials struct {
	Username string
	Password string
}

// Validate checks that both fields are present and the name fits the store.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return oops.Code("ACCOUNT_NAME_REQUIRED").Wrapf(ErrValidation, "account name cannot be empty")
	}
	if utf8.RuneCountInString(c.Username) > MaxAccountNameLength {
		return oops.Code("ACCOUNT_NAME_TOO_LONG").
			With("max", MaxAccountNameLength).
			Wrapf(ErrValidation, "account name must be at most %d characters", MaxAccountNameLength)
	}
	if c.Password == "" {
		return oops.Code("PASSWORD_REQUIRED").Wrapf(ErrValidation, "password cannot be empty")
	}
	return nil
}
