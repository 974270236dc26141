// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"context"

	"golang.org/x/term"

	"github.com/dfo-launcher/launcher/internal/auth"
	"github.com/dfo-launcher/launcher/internal/auth/postgres"
	"github.com/dfo-launcher/launcher/internal/config"
	"github.com/dfo-launcher/launcher/internal/observability"
	"github.com/dfo-launcher/launcher/internal/session"
	"github.com/dfo-launcher/launcher/internal/store"
	"github.com/dfo-launcher/launcher/internal/xdg"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// LoadConfig builds the configuration.
	// Default: config.Load
	LoadConfig func(opts config.Options) (*config.Config, error)

	// OpenBackend connects the five stores.
	// Default: openBackend (pgx pools)
	OpenBackend func(ctx context.Context, cfg *config.Config) (Backend, error)

	// NewMigrator creates a migrator for one store.
	// Default: store.NewMigrator
	NewMigrator func(url string, name store.Name) (Migrator, error)

	// EnsureSchema creates a store's schema before migrating it.
	// Default: store.EnsureSchema
	EnsureSchema func(ctx context.Context, url string, name store.Name) error

	// NewLauncher creates the game launcher.
	// Default: launch.New
	NewLauncher func(cfg *config.Config) session.GameLauncher

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ReadPassword reads a password without echo.
	// Default: term.ReadPassword
	ReadPassword func(fd int) ([]byte, error)

	// IsTerminal reports whether fd is a terminal.
	// Default: term.IsTerminal
	IsTerminal func(fd int) bool

	// PrefsPath returns the remembered-username file.
	// Default: xdg.PrefsPath
	PrefsPath func() string
}

// Backend is the set of opened store clients.
type Backend interface {
	Stores() auth.Stores
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
	PendingMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.LoadConfig == nil {
		out.LoadConfig = config.Load
	}
	if out.OpenBackend == nil {
		out.OpenBackend = openBackend
	}
	if out.NewMigrator == nil {
		out.NewMigrator = func(url string, name store.Name) (Migrator, error) {
			return store.NewMigrator(url, name)
		}
	}
	if out.EnsureSchema == nil {
		out.EnsureSchema = store.EnsureSchema
	}
	if out.NewLauncher == nil {
		out.NewLauncher = newLauncher
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.ReadPassword == nil {
		out.ReadPassword = term.ReadPassword
	}
	if out.IsTerminal == nil {
		out.IsTerminal = term.IsTerminal
	}
	if out.PrefsPath == nil {
		out.PrefsPath = xdg.PrefsPath
	}
	return &out
}

// pgBackend serves the store clients from one pgx pool per store.
type pgBackend struct {
	pools  *store.Pools
	stores auth.Stores
}

func openBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	urls, err := cfg.StoreURLs()
	if err != nil {
		return nil, err
	}
	pools, err := store.Open(ctx, urls, cfg.PoolConfig())
	if err != nil {
		return nil, err
	}
	return &pgBackend{
		pools: pools,
		stores: auth.Stores{
			Accounts:   postgres.NewAccountRepository(pools.Pool(store.Main)),
			Cera:       postgres.NewCeraRepository(pools.Pool(store.Billing)),
			Money:      postgres.NewMoneyRepository(pools.Pool(store.Inventory)),
			Characters: postgres.NewCharacterRepository(pools.Pool(store.Chara), cfg.Chara.InventoryTable),
			Logins:     postgres.NewLoginRepository(pools.Pool(store.Login)),
		},
	}, nil
}

func (b *pgBackend) Stores() auth.Stores            { return b.stores }
func (b *pgBackend) Ping(ctx context.Context) error { return b.pools.Ping(ctx) }
func (b *pgBackend) Close()                         { b.pools.Close() }
