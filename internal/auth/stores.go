// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package auth

import "context"

// NewAccount is the row written by AccountStore.CreateAccount.
type NewAccount struct {
	Name         string
	PasswordHash string
	// RecoveryPassword is written to the legacy plaintext recovery column.
	// Empty when plaintext recovery is disabled.
	RecoveryPassword string
}

// AccountStore is the main account store.
type AccountStore interface {
	// FindAccount looks up an account by its unique name.
	// Returns an error wrapping ErrNotFound if no account has that name.
	FindAccount(ctx context.Context, username string) (*Account, error)

	// CreateAccount inserts the account and its dependent rows in a single
	// transaction and returns the assigned uid. Returns an error wrapping
	// ErrConflict if the name is taken; on any error nothing is persisted.
	CreateAccount(ctx context.Context, account NewAccount) (int32, error)
}

// CeraStore is the premium currency ledger of the billing store.
type CeraStore interface {
	// Balance returns the cera balance of uid, 0 if no ledger row exists.
	Balance(ctx context.Context, uid int32) (int64, error)

	// CreditCera adds amount to the balance of uid in one atomic upsert.
	CreditCera(ctx context.Context, uid, amount int32) error
}

// MoneyStore is the per-character gold balance of the inventory store.
type MoneyStore interface {
	// CreditMoney adds amount to the character's gold.
	// Returns an error wrapping ErrNotFound if the character has no inventory row.
	CreditMoney(ctx context.Context, charID, amount int32) error
}

// CharacterStore is the read-only character roster store.
type CharacterStore interface {
	// ListCharacters returns the non-deleted characters of uid ordered by id.
	ListCharacters(ctx context.Context, uid int32) ([]Character, error)
}

// LoginStore is the login tracking store.
type LoginStore interface {
	// RecordAccount appends the tracking row for a newly created account.
	RecordAccount(ctx context.Context, uid int32) error
}

// TokenSigner issues launch tokens.
type TokenSigner interface {
	Sign(uid int32) (string, error)
}

// Stores is the closed set of store clients the Service works with.
type Stores struct {
	Accounts   AccountStore
	Cera       CeraStore
	Money      MoneyStore
	Characters CharacterStore
	Logins     LoginStore
}

func (s Stores) validate() error {
	switch {
	case s.Accounts == nil:
		return errRequired("account store")
	case s.Cera == nil:
		return errRequired("cera store")
	case s.Money == nil:
		return errRequired("money store")
	case s.Characters == nil:
		return errRequired("character store")
	case s.Logins == nil:
		return errRequired("login store")
	}
	return nil
}
