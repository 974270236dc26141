// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/auth"
)

// CeraRepository implements auth.CeraStore on the billing store.
type CeraRepository struct {
	pool Pool
}

// NewCeraRepository creates a new CeraRepository.
func NewCeraRepository(pool Pool) *CeraRepository {
	return &CeraRepository{pool: pool}
}

// Balance returns the cera balance of uid. Accounts that never received cera
// have no ledger row and a balance of 0.
func (r *CeraRepository) Balance(ctx context.Context, uid int32) (int64, error) {
	var cera int64
	err := r.pool.QueryRow(ctx, `SELECT cera FROM cash_cera WHERE account = $1`, uid).Scan(&cera)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.Code("CERA_QUERY_FAILED").With("uid", uid).Wrap(auth.StoreError(err))
	}
	return cera, nil
}

// CreditCera adds amount to the ledger row of uid, creating it if needed.
func (r *CeraRepository) CreditCera(ctx context.Context, uid, amount int32) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cash_cera (account, cera, mod_tran, mod_date, reg_date)
		VALUES ($1, $2, 1, NOW(), NOW())
		ON CONFLICT (account) DO UPDATE SET cera = cash_cera.cera + EXCLUDED.cera, mod_date = NOW()
	`, uid, amount)
	if err != nil {
		return oops.Code("CERA_CREDIT_FAILED").
			With("uid", uid).
			With("amount", amount).
			Wrap(auth.StoreError(err))
	}
	return nil
}

var _ auth.CeraStore = (*CeraRepository)(nil)
