// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/dfo-launcher/launcher/internal/config"
	"github.com/dfo-launcher/launcher/internal/store"
)

// migrateOptions are shared by the migrate subcommands.
type migrateOptions struct {
	root   *rootOptions
	stores []string
	wait   time.Duration
}

// newMigrateCmd creates the migrate command group.
func newMigrateCmd(root *rootOptions) *cobra.Command {
	opts := &migrateOptions{root: root}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the schemas of the five stores",
		Long: `Apply, roll back or inspect the schema migrations of the main, billing,
chara, inventory and login stores. Each store lives in its own schema.`,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.stores, "store", nil, "limit to these stores (default: all)")
	cmd.PersistentFlags().DurationVar(&opts.wait, "wait", 0, "wait up to this long for the stores to accept connections")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.each(cmd, true, func(m Migrator, name store.Name) error {
				if err := m.Up(); err != nil {
					return err
				}
				version, _, err := m.Version()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: at version %d\n", name, version)
				return nil
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 0 {
				return oops.Code("INVALID_STEPS").Errorf("steps must be non-negative, got %d", steps)
			}
			return opts.each(cmd, false, func(m Migrator, name store.Name) error {
				var err error
				if steps > 0 {
					err = m.Steps(-steps)
				} else {
					err = m.Down()
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: rolled back\n", name)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the migration version of every store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows []statusRow
			err := opts.each(cmd, false, func(m Migrator, name store.Name) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				rows = append(rows, statusRow{store: name, version: version, dirty: dirty, pending: len(pending)})
				return nil
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), formatMigrationStatus(rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Set the recorded migration version of the selected stores without
running any migration. Use only to recover from a dirty state after fixing
the schema by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return opts.each(cmd, false, func(m Migrator, name store.Name) error {
				if err := m.Force(version); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: forced to version %d\n", name, version)
				return nil
			})
		},
	})

	return cmd
}

// each runs fn with a migrator for every selected store, in store order.
// With ensureSchema the store's schema is created first.
func (o *migrateOptions) each(cmd *cobra.Command, ensureSchema bool, fn func(m Migrator, name store.Name) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := o.root.loadConfig(cmd)
	if err != nil {
		return err
	}
	names, err := selectStores(o.stores)
	if err != nil {
		return err
	}
	urls, err := cfg.StoreURLs()
	if err != nil {
		return err
	}

	if o.wait > 0 {
		if err := o.waitForStores(ctx, cfg); err != nil {
			return err
		}
	}

	for _, name := range names {
		if ensureSchema {
			if err := o.root.deps.EnsureSchema(ctx, urls[name], name); err != nil {
				return err
			}
		}
		m, err := o.root.deps.NewMigrator(urls[name], name)
		if err != nil {
			return err
		}
		runErr := fn(m, name)
		if closeErr := m.Close(); closeErr != nil {
			logger.WarnContext(ctx, "failed to close migrator", "store", string(name), "error", closeErr)
		}
		if runErr != nil {
			return runErr
		}
	}
	return nil
}

// waitForStores pings every store with exponential backoff until all
// answer or the wait budget is spent.
func (o *migrateOptions) waitForStores(ctx context.Context, cfg *config.Config) error {
	backend, err := o.root.deps.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	b := retry.NewExponential(250 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxDuration(o.wait, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := backend.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_WAIT_TIMEOUT").With("wait", o.wait.String()).Wrap(err)
	}
	return nil
}

func selectStores(requested []string) ([]store.Name, error) {
	if len(requested) == 0 {
		return store.Names, nil
	}
	names := make([]store.Name, 0, len(requested))
	for _, raw := range requested {
		name := store.Name(strings.ToLower(strings.TrimSpace(raw)))
		if !name.Valid() {
			return nil, oops.Code("UNKNOWN_STORE").
				With("store", raw).
				Errorf("unknown store %q (want one of main, billing, chara, inventory, login)", raw)
		}
		names = append(names, name)
	}
	return names, nil
}

// parseForceVersion parses the version argument of migrate force.
func parseForceVersion(arg string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(arg), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", arg).Errorf("invalid version %q: must be an integer", arg)
	}
	return version, nil
}

type statusRow struct {
	store   store.Name
	version uint
	dirty   bool
	pending int
}

func formatMigrationStatus(rows []statusRow) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STORE\tSCHEMA\tVERSION\tDIRTY\tPENDING")
	_, _ = fmt.Fprintln(w, "-----\t------\t-------\t-----\t-------")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%d\n", r.store, r.store.Schema(), r.version, r.dirty, r.pending)
	}
	_ = w.Flush()
	return b.String()
}
