// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/auth"
)

// AccountRepository implements auth.AccountStore on the main account store.
type AccountRepository struct {
	pool Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// FindAccount retrieves an account by its name.
func (r *AccountRepository) FindAccount(ctx context.Context, username string) (*auth.Account, error) {
	var (
		account = &auth.Account{Name: username}
		hash    string
	)
	err := r.pool.QueryRow(ctx, `SELECT uid, password FROM accounts WHERE accountname = $1`, username).
		Scan(&account.UID, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_QUERY_FAILED").
			With("operation", "find account").
			With("username", username).
			Wrap(auth.StoreError(err))
	}
	account.PasswordHash = []byte(hash)
	return account, nil
}

// CreateAccount inserts the account row and the rows every account needs in
// the same store, all in one transaction.
func (r *AccountRepository) CreateAccount(ctx context.Context, account auth.NewAccount) (int32, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, oops.Code("TX_BEGIN_FAILED").Wrap(auth.StoreError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var existing int32
	err = tx.QueryRow(ctx, `SELECT uid FROM accounts WHERE accountname = $1`, account.Name).Scan(&existing)
	switch {
	case err == nil:
		return 0, oops.Code("ACCOUNT_EXISTS").With("username", account.Name).Wrap(auth.ErrConflict)
	case !errors.Is(err, pgx.ErrNoRows):
		return 0, createFailed(err, "check name", account.Name)
	}

	var uid int32
	err = tx.QueryRow(ctx,
		`INSERT INTO accounts (accountname, password, qq) VALUES ($1, $2, $3) RETURNING uid`,
		account.Name, account.PasswordHash, account.RecoveryPassword,
	).Scan(&uid)
	if err != nil {
		return 0, createFailed(err, "insert account", account.Name)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO limit_create_character (m_id) VALUES ($1)`, uid); err != nil {
		return 0, createFailed(err, "insert limit_create_character", account.Name)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO member_info (m_id, user_id) VALUES ($1, $2)`, uid, strconv.Itoa(int(uid))); err != nil {
		return 0, createFailed(err, "insert member_info", account.Name)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO member_white_account (m_id) VALUES ($1)`, uid); err != nil {
		return 0, createFailed(err, "insert member_white_account", account.Name)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, oops.Code("TX_COMMIT_FAILED").With("username", account.Name).Wrap(auth.StoreError(err))
	}
	return uid, nil
}

func createFailed(err error, operation, username string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return oops.Code("ACCOUNT_EXISTS").
			With("operation", operation).
			With("username", username).
			Wrap(errors.Join(auth.ErrConflict, err))
	}
	return oops.Code("ACCOUNT_CREATE_FAILED").
		With("operation", operation).
		With("username", username).
		Wrap(auth.StoreError(err))
}

var _ auth.AccountStore = (*AccountRepository)(nil)
