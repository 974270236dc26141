// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

// Package mocks provides testify mocks for the auth store interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/dfo-launcher/launcher/internal/auth"
)

// MockAccountStore is a mock of auth.AccountStore.
type MockAccountStore struct {
	mock.Mock
}

// NewMockAccountStore creates a MockAccountStore whose expectations are
// asserted when the test ends.
func NewMockAccountStore(t *testing.T) *MockAccountStore {
	m := &MockAccountStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// FindAccount implements auth.AccountStore.
func (m *MockAccountStore) FindAccount(ctx context.Context, username string) (*auth.Account, error) {
	args := m.Called(ctx, username)
	account, _ := args.Get(0).(*auth.Account)
	return account, args.Error(1)
}

// CreateAccount implements auth.AccountStore.
func (m *MockAccountStore) CreateAccount(ctx context.Context, account auth.NewAccount) (int32, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int32), args.Error(1) //nolint:errcheck,forcetypeassert // mock return
}

// MockCeraStore is a mock of auth.CeraStore.
type MockCeraStore struct {
	mock.Mock
}

// NewMockCeraStore creates a MockCeraStore.
func NewMockCeraStore(t *testing.T) *MockCeraStore {
	m := &MockCeraStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Balance implements auth.CeraStore.
func (m *MockCeraStore) Balance(ctx context.Context, uid int32) (int64, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(int64), args.Error(1) //nolint:errcheck,forcetypeassert // mock return
}

// CreditCera implements auth.CeraStore.
func (m *MockCeraStore) CreditCera(ctx context.Context, uid, amount int32) error {
	return m.Called(ctx, uid, amount).Error(0)
}

// MockMoneyStore is a mock of auth.MoneyStore.
type MockMoneyStore struct {
	mock.Mock
}

// NewMockMoneyStore creates a MockMoneyStore.
func NewMockMoneyStore(t *testing.T) *MockMoneyStore {
	m := &MockMoneyStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// CreditMoney implements auth.MoneyStore.
func (m *MockMoneyStore) CreditMoney(ctx context.Context, charID, amount int32) error {
	return m.Called(ctx, charID, amount).Error(0)
}

// MockCharacterStore is a mock of auth.CharacterStore.
type MockCharacterStore struct {
	mock.Mock
}

// NewMockCharacterStore creates a MockCharacterStore.
func NewMockCharacterStore(t *testing.T) *MockCharacterStore {
	m := &MockCharacterStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ListCharacters implements auth.CharacterStore.
func (m *MockCharacterStore) ListCharacters(ctx context.Context, uid int32) ([]auth.Character, error) {
	args := m.Called(ctx, uid)
	chars, _ := args.Get(0).([]auth.Character)
	return chars, args.Error(1)
}

// MockLoginStore is a mock of auth.LoginStore.
type MockLoginStore struct {
	mock.Mock
}

// NewMockLoginStore creates a MockLoginStore.
func NewMockLoginStore(t *testing.T) *MockLoginStore {
	m := &MockLoginStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// RecordAccount implements auth.LoginStore.
func (m *MockLoginStore) RecordAccount(ctx context.Context, uid int32) error {
	return m.Called(ctx, uid).Error(0)
}

// MockTokenSigner is a mock of auth.TokenSigner.
type MockTokenSigner struct {
	mock.Mock
}

// NewMockTokenSigner creates a MockTokenSigner.
func NewMockTokenSigner(t *testing.T) *MockTokenSigner {
	m := &MockTokenSigner{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Sign implements auth.TokenSigner.
func (m *MockTokenSigner) Sign(uid int32) (string, error) {
	args := m.Called(uid)
	return args.String(0), args.Error(1)
}

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash implements auth.PasswordHasher.
func (m *MockPasswordHasher) Hash(password string) string {
	return m.Called(password).String(0)
}

// Verify implements auth.PasswordHasher.
func (m *MockPasswordHasher) Verify(password string, stored []byte) bool {
	return m.Called(password, stored).Bool(0)
}

var (
	_ auth.AccountStore   = (*MockAccountStore)(nil)
	_ auth.CeraStore      = (*MockCeraStore)(nil)
	_ auth.MoneyStore     = (*MockMoneyStore)(nil)
	_ auth.CharacterStore = (*MockCharacterStore)(nil)
	_ auth.LoginStore     = (*MockLoginStore)(nil)
	_ auth.TokenSigner    = (*MockTokenSigner)(nil)
	_ auth.PasswordHasher = (*MockPasswordHasher)(nil)
)
