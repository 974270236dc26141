// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/auth"
)

// DefaultInventoryTable is the inventory table joined into the roster query.
const DefaultInventoryTable = "taiwan_cain_2nd.inventory"

// CharacterRepository implements auth.CharacterStore on the character store.
type CharacterRepository struct {
	pool  Pool
	query string
}

// NewCharacterRepository creates a new CharacterRepository. inventoryTable is
// the schema-qualified inventory table; empty selects DefaultInventoryTable.
func NewCharacterRepository(pool Pool, inventoryTable string) *CharacterRepository {
	if inventoryTable == "" {
		inventoryTable = DefaultInventoryTable
	}
	ident := pgx.Identifier(strings.SplitN(inventoryTable, ".", 2)).Sanitize()
	return &CharacterRepository{
		pool: pool,
		query: fmt.Sprintf(`SELECT c.charac_no, c.charac_name, c.lev, c.job, COALESCE(i.money, 0)
		FROM charac_info c
		LEFT JOIN %s i ON c.charac_no = i.charac_no
		WHERE c.m_id = $1 AND c.delete_flag = 0
		ORDER BY c.charac_no`, ident),
	}
}

// ListCharacters returns the live characters of uid ordered by character id.
func (r *CharacterRepository) ListCharacters(ctx context.Context, uid int32) ([]auth.Character, error) {
	rows, err := r.pool.Query(ctx, r.query, uid)
	if err != nil {
		return nil, oops.Code("CHARACTER_QUERY_FAILED").With("uid", uid).Wrap(auth.StoreError(err))
	}
	defer rows.Close()

	chars := make([]auth.Character, 0)
	for rows.Next() {
		var (
			c   auth.Character
			job int32
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Level, &job, &c.Money); err != nil {
			return nil, oops.Code("CHARACTER_SCAN_FAILED").With("uid", uid).Wrap(auth.StoreError(err))
		}
		c.Job = auth.JobFromID(job)
		chars = append(chars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CHARACTER_QUERY_FAILED").With("uid", uid).Wrap(auth.StoreError(err))
	}
	return chars, nil
}

var _ auth.CharacterStore = (*CharacterRepository)(nil)
