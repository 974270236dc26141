// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfo-launcher/launcher/internal/auth"
	"github.com/dfo-launcher/launcher/internal/auth/postgres"
	"github.com/dfo-launcher/launcher/pkg/errutil"
)

func TestAccountRepository_FindAccount(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *auth.Account
		wantKind  error
		wantCode  string
	}{
		{
			name: "existing account",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT uid, password FROM accounts WHERE accountname = \$1`).
					WithArgs("player1").
					WillReturnRows(pgxmock.NewRows([]string{"uid", "password"}).
						AddRow(int32(42), "5ebe2294ecd0e0f08eab7690d2a6ee69"))
			},
			want: &auth.Account{UID: 42, Name: "player1", PasswordHash: []byte("5ebe2294ecd0e0f08eab7690d2a6ee69")},
		},
		{
			name: "unknown account",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT uid, password FROM accounts`).
					WithArgs("player1").
					WillReturnRows(pgxmock.NewRows([]string{"uid", "password"}))
			},
			wantKind: auth.ErrNotFound,
			wantCode: "ACCOUNT_NOT_FOUND",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT uid, password FROM accounts`).
					WithArgs("player1").
					WillReturnError(errors.New("connection refused"))
			},
			wantKind: auth.ErrStore,
			wantCode: "ACCOUNT_QUERY_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := postgres.NewAccountRepository(mock)
			got, err := repo.FindAccount(context.Background(), "player1")

			if tt.wantKind != nil {
				assert.Nil(t, got)
				errutil.AssertCodedKind(t, err, tt.wantCode, tt.wantKind)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_CreateAccount(t *testing.T) {
	newAccount := auth.NewAccount{
		Name:             "newbie",
		PasswordHash:     "5ebe2294ecd0e0f08eab7690d2a6ee69",
		RecoveryPassword: "secret",
	}

	expectNameFree := func(mock pgxmock.PgxPoolIface) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT uid FROM accounts WHERE accountname = \$1`).
			WithArgs("newbie").
			WillReturnRows(pgxmock.NewRows([]string{"uid"}))
	}
	expectInsertAccount := func(mock pgxmock.PgxPoolIface) {
		mock.ExpectQuery(`INSERT INTO accounts \(accountname, password, qq\) VALUES \(\$1, \$2, \$3\) RETURNING uid`).
			WithArgs("newbie", "5ebe2294ecd0e0f08eab7690d2a6ee69", "secret").
			WillReturnRows(pgxmock.NewRows([]string{"uid"}).AddRow(int32(77)))
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantUID   int32
		wantKind  error
		wantCode  string
	}{
		{
			name: "inserts account and dependent rows",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				expectNameFree(mock)
				expectInsertAccount(mock)
				mock.ExpectExec(`INSERT INTO limit_create_character \(m_id\)`).
					WithArgs(int32(77)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec(`INSERT INTO member_info \(m_id, user_id\)`).
					WithArgs(int32(77), "77").
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec(`INSERT INTO member_white_account \(m_id\)`).
					WithArgs(int32(77)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectCommit()
			},
			wantUID: 77,
		},
		{
			name: "name already taken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT uid FROM accounts WHERE accountname = \$1`).
					WithArgs("newbie").
					WillReturnRows(pgxmock.NewRows([]string{"uid"}).AddRow(int32(5)))
				mock.ExpectRollback()
			},
			wantKind: auth.ErrConflict,
			wantCode: "ACCOUNT_EXISTS",
		},
		{
			name: "unique violation from a concurrent insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				expectNameFree(mock)
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs("newbie", "5ebe2294ecd0e0f08eab7690d2a6ee69", "secret").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
				mock.ExpectRollback()
			},
			wantKind: auth.ErrConflict,
			wantCode: "ACCOUNT_EXISTS",
		},
		{
			name: "dependent row failure rolls back",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				expectNameFree(mock)
				expectInsertAccount(mock)
				mock.ExpectExec(`INSERT INTO limit_create_character`).
					WithArgs(int32(77)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec(`INSERT INTO member_info`).
					WithArgs(int32(77), "77").
					WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			wantKind: auth.ErrStore,
			wantCode: "ACCOUNT_CREATE_FAILED",
		},
		{
			name: "begin fails",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			wantKind: auth.ErrStore,
			wantCode: "TX_BEGIN_FAILED",
		},
		{
			name: "commit fails",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				expectNameFree(mock)
				expectInsertAccount(mock)
				mock.ExpectExec(`INSERT INTO limit_create_character`).WithArgs(int32(77)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec(`INSERT INTO member_info`).WithArgs(int32(77), "77").
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec(`INSERT INTO member_white_account`).WithArgs(int32(77)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
			},
			wantKind: auth.ErrStore,
			wantCode: "TX_COMMIT_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := postgres.NewAccountRepository(mock)
			uid, err := repo.CreateAccount(context.Background(), newAccount)

			if tt.wantKind != nil {
				assert.Zero(t, uid)
				errutil.AssertCodedKind(t, err, tt.wantCode, tt.wantKind)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, uid)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
