// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/auth"
)

// LoginRepository implements auth.LoginStore on the login store.
type LoginRepository struct {
	pool Pool
}

// NewLoginRepository creates a new LoginRepository.
func NewLoginRepository(pool Pool) *LoginRepository {
	return &LoginRepository{pool: pool}
}

// RecordAccount appends the tracking row for uid.
func (r *LoginRepository) RecordAccount(ctx context.Context, uid int32) error {
	if _, err := r.pool.Exec(ctx, `INSERT INTO member_login (m_id) VALUES ($1)`, uid); err != nil {
		return oops.Code("LOGIN_RECORD_FAILED").With("uid", uid).Wrap(auth.StoreError(err))
	}
	return nil
}

var _ auth.LoginStore = (*LoginRepository)(nil)
