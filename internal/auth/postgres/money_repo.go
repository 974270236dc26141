// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/auth"
)

// MoneyRepository implements auth.MoneyStore on the inventory store.
type MoneyRepository struct {
	pool Pool
}

// NewMoneyRepository creates a new MoneyRepository.
func NewMoneyRepository(pool Pool) *MoneyRepository {
	return &MoneyRepository{pool: pool}
}

// CreditMoney adds amount gold to the character's inventory row.
func (r *MoneyRepository) CreditMoney(ctx context.Context, charID, amount int32) error {
	result, err := r.pool.Exec(ctx, `UPDATE inventory SET money = money + $1 WHERE charac_no = $2`, amount, charID)
	if err != nil {
		return oops.Code("GOLD_CREDIT_FAILED").
			With("char_id", charID).
			With("amount", amount).
			Wrap(auth.StoreError(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code(auth.CodeCharacterNotFound).With("char_id", charID).Wrap(auth.ErrNotFound)
	}
	return nil
}

var _ auth.MoneyStore = (*MoneyRepository)(nil)
