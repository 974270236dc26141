// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

// PoolConfig sizes every store pool.
type PoolConfig struct {
	// MaxConns caps the pool size. One connection covers the launcher's
	// one-operation-at-a-time use.
	MaxConns int32
	// ConnectTimeout bounds establishing a single connection.
	ConnectTimeout time.Duration
}

// Pools holds one connection pool per store.
type Pools struct {
	pools map[Name]*pgxpool.Pool
}

// Open creates a pool for every store in urls. Pools connect lazily, so
// Open fails only on malformed configuration; use Ping to check reachability.
func Open(ctx context.Context, urls map[Name]string, cfg PoolConfig) (*Pools, error) {
	p := &Pools{pools: make(map[Name]*pgxpool.Pool, len(Names))}
	for _, name := range Names {
		raw, ok := urls[name]
		if !ok || raw == "" {
			p.Close()
			return nil, oops.Code("STORE_URL_MISSING").With("store", string(name)).Errorf("no URL for store %s", name)
		}

		poolCfg, err := pgxpool.ParseConfig(raw)
		if err != nil {
			p.Close()
			return nil, oops.Code("STORE_URL_INVALID").With("store", string(name)).Wrap(err)
		}
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = cfg.MaxConns
		}
		if cfg.ConnectTimeout > 0 {
			poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			p.Close()
			return nil, oops.Code("STORE_OPEN_FAILED").With("store", string(name)).Wrap(err)
		}
		p.pools[name] = pool
	}
	return p, nil
}

// Pool returns the pool of the named store.
func (p *Pools) Pool(name Name) *pgxpool.Pool {
	return p.pools[name]
}

// Ping checks that every store accepts connections.
func (p *Pools) Ping(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, pool := range p.pools {
		g.Go(func() error {
			if err := pool.Ping(gctx); err != nil {
				return oops.Code("STORE_UNREACHABLE").With("store", string(name)).Wrap(err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases every pool.
func (p *Pools) Close() {
	for name, pool := range p.pools {
		pool.Close()
		delete(p.pools, name)
	}
}
