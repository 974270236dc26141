// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/dfo-launcher/launcher/pkg/errutil"
)

// DefaultOperationTimeout bounds a single operation including all its store calls.
const DefaultOperationTimeout = 30 * time.Second

// Currency labels passed to Recorder.RecordCredit.
const (
	CurrencyGold = "gold"
	CurrencyCera = "cera"
)

// Recorder receives operation metrics.
type Recorder interface {
	RecordOperation(operation, result string, duration time.Duration)
	RecordCredit(currency string, amount int32)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, time.Duration) {}
func (nopRecorder) RecordCredit(string, int32)                    {}

// Service orchestrates login, account creation and currency grants across
// the store clients. It holds no per-actor state; callers must not run two
// mutating operations for the same actor concurrently.
type Service struct {
	stores            Stores
	signer            TokenSigner
	hasher            PasswordHasher
	logger            *slog.Logger
	metrics           Recorder
	timeout           time.Duration
	plaintextRecovery bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithOperationTimeout bounds every operation. Non-positive values keep the default.
func WithOperationTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPlaintextRecovery controls whether new accounts also get the plaintext
// password in the legacy recovery column. Enabled by default because the
// existing schema expects it.
func WithPlaintextRecovery(enabled bool) ServiceOption {
	return func(s *Service) {
		s.plaintextRecovery = enabled
	}
}

// NewService creates a new Service.
func NewService(stores Stores, signer TokenSigner, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, errRequired("token signer")
	}
	if hasher == nil {
		return nil, errRequired("password hasher")
	}

	s := &Service{
		stores:            stores,
		signer:            signer,
		hasher:            hasher,
		logger:            slog.Default(),
		metrics:           nopRecorder{},
		timeout:           DefaultOperationTimeout,
		plaintextRecovery: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func errRequired(what string) error {
	return oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("%s is required", what)
}

// PerformLogin authenticates the player and assembles a fresh LoginSession.
func (s *Service) PerformLogin(ctx context.Context, username, password string) (session *LoginSession, err error) {
	ctx, op := s.begin(ctx, "login", "username", username)
	defer func() { op.end(ctx, err) }()

	account, err := s.stores.Accounts.FindAccount(ctx, username)
	if err != nil {
		return nil, storeFailure(err, "LOGIN_FAILED", "find account")
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, oops.Code("AUTH_INVALID_PASSWORD").
			With("username", username).
			Wrapf(ErrAuthenticationFailed, "invalid password")
	}

	// Only reads and token math remain; they are independent of each other.
	session = &LoginSession{UID: account.UID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cera, err := s.stores.Cera.Balance(gctx, account.UID)
		if err != nil {
			return storeFailure(err, "LOGIN_FAILED", "read cera balance")
		}
		session.Cera = cera
		return nil
	})
	g.Go(func() error {
		chars, err := s.stores.Characters.ListCharacters(gctx, account.UID)
		if err != nil {
			return storeFailure(err, "LOGIN_FAILED", "list characters")
		}
		session.Characters = chars
		return nil
	})
	g.Go(func() error {
		tok, err := s.signer.Sign(account.UID)
		if err != nil {
			if errors.Is(err, ErrEncoding) {
				return err
			}
			return oops.Code("TOKEN_ENCODING_FAILED").With("uid", account.UID).Wrapf(ErrEncoding, "%v", err)
		}
		session.Token = tok
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	op.logger.DebugContext(ctx, "session assembled",
		"uid", session.UID,
		"characters", len(session.Characters),
		"cera", session.Cera,
	)
	return session, nil
}

// LoginAsync runs PerformLogin as a Task.
func (s *Service) LoginAsync(ctx context.Context, username, password string) *Task[*LoginSession] {
	return Go(ctx, func(ctx context.Context) (*LoginSession, error) {
		return s.PerformLogin(ctx, username, password)
	})
}

// CreateAccount provisions a new account. The login store record is written
// after the account transaction commits and is best effort: its failure is
// logged and does not fail the operation.
func (s *Service) CreateAccount(ctx context.Context, username, password string) (err error) {
	ctx, op := s.begin(ctx, "create_account", "username", username)
	defer func() { op.end(ctx, err) }()

	creds := Credentials{Username: username, Password: password}
	if err := creds.Validate(); err != nil {
		return err
	}

	account := NewAccount{
		Name:         username,
		PasswordHash: s.hasher.Hash(password),
	}
	if s.plaintextRecovery {
		account.RecoveryPassword = password
	}

	uid, err := s.stores.Accounts.CreateAccount(ctx, account)
	if err != nil {
		return storeFailure(err, "ACCOUNT_CREATE_FAILED", "create account")
	}
	op.logger.InfoContext(ctx, "account created", "uid", uid)

	if err := s.stores.Logins.RecordAccount(ctx, uid); err != nil {
		errutil.LogError(ctx, op.logger, "login store record failed, repair out of band", err, "uid", uid)
	}
	return nil
}

// CreateAccountAsync runs CreateAccount as a Task.
func (s *Service) CreateAccountAsync(ctx context.Context, username, password string) *Task[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.CreateAccount(ctx, username, password)
	})
}

// SendGold credits amount gold to the character. The caller refreshes the
// session afterwards; the credit is durable once this returns nil.
func (s *Service) SendGold(ctx context.Context, charID, amount int32) (err error) {
	ctx, op := s.begin(ctx, "send_gold", "char_id", charID, "amount", amount)
	defer func() { op.end(ctx, err) }()

	if charID <= 0 {
		return oops.Code("CHARACTER_NOT_SELECTED").Wrapf(ErrValidation, "select a character")
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	if err := s.stores.Money.CreditMoney(ctx, charID, amount); err != nil {
		return storeFailure(err, "GOLD_CREDIT_FAILED", "credit money")
	}
	s.metrics.RecordCredit(CurrencyGold, amount)
	return nil
}

// SendGoldAsync runs SendGold as a Task.
func (s *Service) SendGoldAsync(ctx context.Context, charID, amount int32) *Task[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.SendGold(ctx, charID, amount)
	})
}

// SendCera credits amount cera to the account.
func (s *Service) SendCera(ctx context.Context, uid, amount int32) (err error) {
	ctx, op := s.begin(ctx, "send_cera", "uid", uid, "amount", amount)
	defer func() { op.end(ctx, err) }()

	if uid <= 0 {
		return oops.Code("ACCOUNT_NOT_SELECTED").Wrapf(ErrValidation, "no session")
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	if err := s.stores.Cera.CreditCera(ctx, uid, amount); err != nil {
		return storeFailure(err, "CERA_CREDIT_FAILED", "credit cera")
	}
	s.metrics.RecordCredit(CurrencyCera, amount)
	return nil
}

// SendCeraAsync runs SendCera as a Task.
func (s *Service) SendCeraAsync(ctx context.Context, uid, amount int32) *Task[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.SendCera(ctx, uid, amount)
	})
}

func validateAmount(amount int32) error {
	if amount <= 0 {
		return oops.Code("AMOUNT_INVALID").
			With("amount", amount).
			Wrapf(ErrValidation, "amount must be positive")
	}
	return nil
}

// storeFailure passes classified errors through and marks anything else as
// a store failure.
func storeFailure(err error, code, operation string) error {
	if Kind(err) != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	return oops.Code(code).With("operation", operation).Wrap(StoreError(err))
}

// ResultLabel is the metrics label for the outcome err.
func ResultLabel(err error) string {
	switch Kind(err) {
	case nil:
		if err == nil {
			return "ok"
		}
		return "error"
	case ErrNotFound:
		return "not_found"
	case ErrAuthenticationFailed:
		return "auth_failed"
	case ErrConflict:
		return "conflict"
	case ErrValidation:
		return "invalid"
	case ErrEncoding:
		return "encoding_error"
	default:
		return "store_error"
	}
}

// operation tracks one Service call for logging and metrics.
type operation struct {
	name    string
	logger  *slog.Logger
	start   time.Time
	cancel  context.CancelFunc
	metrics Recorder
}

func (s *Service) begin(ctx context.Context, name string, attrs ...any) (context.Context, *operation) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	logger := s.logger.With("operation", name, "op_id", ulid.Make().String()).With(attrs...)
	logger.DebugContext(ctx, "operation started")
	return ctx, &operation{
		name:    name,
		logger:  logger,
		start:   time.Now(),
		cancel:  cancel,
		metrics: s.metrics,
	}
}

func (o *operation) end(ctx context.Context, err error) {
	defer o.cancel()
	elapsed := time.Since(o.start)
	o.metrics.RecordOperation(o.name, ResultLabel(err), elapsed)

	switch Kind(err) {
	case nil:
		if err == nil {
			o.logger.InfoContext(ctx, "operation completed", "duration", elapsed)
			return
		}
		errutil.LogError(ctx, o.logger, "operation failed", err, "duration", elapsed)
	case ErrNotFound, ErrAuthenticationFailed, ErrConflict, ErrValidation:
		o.logger.InfoContext(ctx, "operation rejected", "reason", err.Error(), "duration", elapsed)
	default:
		errutil.LogError(ctx, o.logger, "operation failed", err, "duration", elapsed)
	}
}
