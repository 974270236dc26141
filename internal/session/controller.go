// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

// Package session drives the player-facing flows on top of auth.Service:
// it keeps the current session and character selection and allows only one
// operation in flight at a time.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/auth"
	"github.com/dfo-launcher/launcher/internal/xdg"
	"github.com/dfo-launcher/launcher/pkg/errutil"
)

// DefaultRefreshDelay is how long a credit settles before the session is rebuilt.
const DefaultRefreshDelay = time.Second

// Status messages shown after a successful operation.
const (
	MsgLoginSuccessful = "Login successful"
	MsgAccountCreated  = "Account created successfully!"
	MsgRefreshed       = "Data refreshed"
	MsgGoldSent        = "Gold sent! Data refreshed"
	MsgCeraSent        = "Cera sent! Data refreshed"
	MsgLaunching       = "Launching Game..."
)

// ErrBusy is returned when an operation is requested while another runs.
var ErrBusy = errors.New("operation in progress")

// Service is the subset of auth.Service the controller calls.
type Service interface {
	PerformLogin(ctx context.Context, username, password string) (*auth.LoginSession, error)
	CreateAccount(ctx context.Context, username, password string) error
	SendGold(ctx context.Context, charID, amount int32) error
	SendCera(ctx context.Context, uid, amount int32) error
}

// GameLauncher starts the game client with a launch token.
type GameLauncher interface {
	Start(ctx context.Context, token string) error
}

// Controller holds the state of one player's launcher session.
type Controller struct {
	service      Service
	launcher     GameLauncher
	logger       *slog.Logger
	prefsPath    string
	refreshDelay time.Duration

	inFlight atomic.Bool

	mu       sync.Mutex
	creds    auth.Credentials
	current  *auth.LoginSession
	selected int32
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLauncher sets the game launcher used by Launch.
func WithLauncher(l GameLauncher) Option {
	return func(c *Controller) {
		c.launcher = l
	}
}

// WithPrefsPath sets where remembered usernames are saved. Empty disables it.
func WithPrefsPath(path string) Option {
	return func(c *Controller) {
		c.prefsPath = path
	}
}

// WithRefreshDelay sets the wait between a credit and the session refresh.
func WithRefreshDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.refreshDelay = d
		}
	}
}

// NewController creates a Controller for service.
func NewController(service Service, opts ...Option) (*Controller, error) {
	if service == nil {
		return nil, oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("service is required")
	}
	c := &Controller{
		service:      service,
		logger:       slog.Default(),
		refreshDelay: DefaultRefreshDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns the current session, or nil before the first login.
func (c *Controller) Session() *auth.LoginSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Selected returns the selected character, if any.
func (c *Controller) Selected() (auth.Character, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.selected == 0 {
		return auth.Character{}, false
	}
	return c.current.Character(c.selected)
}

// Login authenticates and replaces the current session. With remember set
// the username is saved to the prefs file; the password never is.
func (c *Controller) Login(ctx context.Context, username, password string, remember bool) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.logger.InfoContext(ctx, "login requested")
	sess, err := c.service.PerformLogin(ctx, username, password)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.creds = auth.Credentials{Username: username, Password: password}
	c.current = sess
	c.selected = 0
	c.mu.Unlock()

	if remember && c.prefsPath != "" {
		if err := xdg.SavePrefs(c.prefsPath, xdg.Prefs{Username: username}); err != nil {
			errutil.LogError(ctx, c.logger, "failed to remember username", err)
		}
	}
	return nil
}

// CreateAccount provisions a new account. It does not log in.
func (c *Controller) CreateAccount(ctx context.Context, username, password string) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.logger.InfoContext(ctx, "create account requested")
	return c.service.CreateAccount(ctx, username, password)
}

// Refresh rebuilds the session with the credentials of the last login.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.logger.DebugContext(ctx, "refresh requested")
	if _, err := c.requireSession(); err != nil {
		return err
	}
	return c.refresh(ctx)
}

// Select makes the character at index of the roster the target of SendGold.
func (c *Controller) Select(index int) (auth.Character, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return auth.Character{}, errNoSession()
	}
	if index < 0 || index >= len(c.current.Characters) {
		return auth.Character{}, oops.Code("CHARACTER_INDEX_INVALID").
			With("index", index).
			With("characters", len(c.current.Characters)).
			Wrapf(auth.ErrValidation, "no character at index %d", index)
	}
	char := c.current.Characters[index]
	c.selected = char.ID
	return char, nil
}

// SendGold credits the selected character and refreshes the session.
func (c *Controller) SendGold(ctx context.Context, amountText string) error {
	amount, err := ParseAmount(amountText)
	if err != nil {
		return err
	}
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	if _, err := c.requireSession(); err != nil {
		return err
	}
	char, ok := c.Selected()
	if !ok {
		return oops.Code("CHARACTER_NOT_SELECTED").Wrapf(auth.ErrValidation, "select a character")
	}

	c.logger.InfoContext(ctx, "send gold requested", "char_id", char.ID)
	if err := c.service.SendGold(ctx, char.ID, amount); err != nil {
		return err
	}
	return c.settleAndRefresh(ctx)
}

// SendCera credits the logged-in account and refreshes the session.
func (c *Controller) SendCera(ctx context.Context, amountText string) error {
	amount, err := ParseAmount(amountText)
	if err != nil {
		return err
	}
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	sess, err := c.requireSession()
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "send cera requested", "uid", sess.UID)
	if err := c.service.SendCera(ctx, sess.UID, amount); err != nil {
		return err
	}
	return c.settleAndRefresh(ctx)
}

// Launch starts the game client with the current session's token.
func (c *Controller) Launch(ctx context.Context) error {
	if c.launcher == nil {
		return oops.Code("LAUNCHER_NOT_CONFIGURED").Wrapf(auth.ErrValidation, "no game launcher configured")
	}
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	return c.launcher.Start(ctx, sess.Token)
}

// ParseAmount parses a positive int32 amount, ignoring surrounding space.
func ParseAmount(text string) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
	if err != nil || v <= 0 {
		return 0, oops.Code("AMOUNT_INVALID").
			With("input", text).
			Wrapf(auth.ErrValidation, "wrong value")
	}
	return int32(v), nil
}

func (c *Controller) acquire() error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return oops.Code("OPERATION_IN_PROGRESS").Wrap(ErrBusy)
	}
	return nil
}

func (c *Controller) release() {
	c.inFlight.Store(false)
}

func (c *Controller) requireSession() (*auth.LoginSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, errNoSession()
	}
	return c.current, nil
}

// settleAndRefresh waits refreshDelay and rebuilds the session. The credit
// is already durable, so a failed refresh leaves the previous session.
func (c *Controller) settleAndRefresh(ctx context.Context) error {
	if c.refreshDelay > 0 {
		timer := time.NewTimer(c.refreshDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return oops.Code("REFRESH_FAILED").Wrap(auth.StoreError(ctx.Err()))
		}
	}
	return c.refresh(ctx)
}

func (c *Controller) refresh(ctx context.Context) error {
	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()

	sess, err := c.service.PerformLogin(ctx, creds.Username, creds.Password)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.current = sess
	if _, ok := sess.Character(c.selected); !ok {
		c.selected = 0
	}
	c.mu.Unlock()
	return nil
}

func errNoSession() error {
	return oops.Code("NO_SESSION").Wrapf(auth.ErrValidation, "no session")
}

// Message returns the status line shown to the player for err.
func Message(err error) string {
	if errors.Is(err, ErrBusy) {
		return "Operation in progress"
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Code() {
		case "NO_SESSION":
			return "No session"
		case "CHARACTER_NOT_SELECTED":
			return "Select a character"
		}
	}
	return auth.UserMessage(err)
}
