// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// migrateIface abstracts golang-migrate for testing.
type migrateIface interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator manages the schema of one store.
type Migrator struct {
	m     migrateIface
	store Name
}

// EnsureSchema creates the store's schema if it does not exist yet.
// golang-migrate keeps its version table inside the schema, so this must run
// before NewMigrator on a fresh database.
func EnsureSchema(ctx context.Context, databaseURL string, name Name) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return oops.Code("SCHEMA_CONNECT_FAILED").With("store", string(name)).Wrap(err)
	}
	defer conn.Close(ctx) //nolint:errcheck // best-effort close

	ident := pgx.Identifier{name.Schema()}.Sanitize()
	if _, err := conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
		return oops.Code("SCHEMA_CREATE_FAILED").With("store", string(name)).Wrap(err)
	}
	return nil
}

// NewMigrator creates a Migrator for the named store. databaseURL should be a
// PostgreSQL connection string with either postgres:// or pgx5:// scheme;
// its search_path is pointed at the store's schema.
func NewMigrator(databaseURL string, name Name) (*Migrator, error) {
	if !name.Valid() {
		return nil, oops.Code("MIGRATION_UNKNOWN_STORE").With("store", string(name)).Errorf("unknown store %q", name)
	}

	source, err := iofs.New(migrationsFS, migrationsDir(name))
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "create migration source").Wrap(err)
	}

	migrateURL := databaseURL
	if rest, found := strings.CutPrefix(databaseURL, "postgres://"); found {
		migrateURL = "pgx5://" + rest
	} else if rest, found := strings.CutPrefix(databaseURL, "postgresql://"); found {
		migrateURL = "pgx5://" + rest
	}
	if strings.HasPrefix(migrateURL, "pgx5://") {
		if migrateURL, err = WithSearchPath(migrateURL, name.Schema()); err != nil {
			_ = source.Close() //nolint:errcheck // URL error takes precedence
			return nil, oops.Code("MIGRATION_INIT_FAILED").With("store", string(name)).Wrap(err)
		}
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL)
	if err != nil {
		_ = source.Close() //nolint:errcheck // cleanup for embedded FS; init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").
			With("operation", "initialize migrator").
			With("store", string(name)).
			Wrap(err)
	}

	return &Migrator{m: m, store: name}, nil
}

// Store returns the store this Migrator manages.
func (m *Migrator) Store() Name {
	return m.store
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").With("store", string(m.store)).Wrap(err)
	}
	return nil
}

// Down rolls back all migrations, dropping the store's tables and data.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_DOWN_FAILED").With("store", string(m.store)).Wrap(err)
	}
	return nil
}

// Steps applies n migrations. Positive n migrates up, negative n migrates down.
func (m *Migrator) Steps(n int) error {
	if err := m.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_STEPS_FAILED").With("store", string(m.store)).With("steps", n).Wrap(err)
	}
	return nil
}

// Version returns the current migration version and dirty state.
// Returns version 0 with dirty=false if no migrations have been applied.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").With("store", string(m.store)).Wrap(err)
	}
	return version, dirty, nil
}

// Force sets the migration version without running migrations.
// Use only for recovering from a dirty state after manually fixing the database.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("store", string(m.store)).With("version", version).Wrap(err)
	}
	return nil
}

// Close releases resources.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil && dbErr != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").
			With("component", "both").
			Errorf("source: %v; database: %v", srcErr, dbErr)
	}
	if srcErr != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "source").Wrap(srcErr)
	}
	if dbErr != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "database").Wrap(dbErr)
	}
	return nil
}

func migrationsDir(name Name) string {
	return "migrations/" + name.Schema()
}

// migrationVersions reads the store's embedded migrations and returns their
// versions in ascending order. Files not named NNNNNN_name.up.sql are skipped.
func migrationVersions(name Name) ([]uint, error) {
	entries, err := migrationsFS.ReadDir(migrationsDir(name))
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").With("store", string(name)).Wrap(err)
	}

	versions := make([]uint, 0, len(entries))
	for _, entry := range entries {
		fileName := entry.Name()
		if !strings.HasSuffix(fileName, ".up.sql") {
			continue
		}
		var version uint
		if _, err := fmt.Sscanf(fileName, "%06d", &version); err != nil {
			slog.Warn("migration file name doesn't match expected format, skipping",
				"filename", fileName,
				"expected_format", "NNNNNN_name.up.sql",
				"error", err)
			continue
		}
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// MigrationName returns the name of a store migration by version number, in
// the format NNNNNN_name. Returns "" without error for unknown versions.
func MigrationName(name Name, version uint) (string, error) {
	entries, err := migrationsFS.ReadDir(migrationsDir(name))
	if err != nil {
		return "", oops.Code("MIGRATION_READ_FAILED").With("store", string(name)).Wrap(err)
	}

	prefix := fmt.Sprintf("%06d_", version)
	for _, entry := range entries {
		fileName := entry.Name()
		if strings.HasPrefix(fileName, prefix) && strings.HasSuffix(fileName, ".up.sql") {
			return strings.TrimSuffix(fileName, ".up.sql"), nil
		}
	}
	return "", nil
}

// PendingMigrations returns the versions Up would apply, ascending.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	currentVersion, _, err := m.Version()
	if err != nil {
		return nil, oops.With("operation", "get pending migrations").Wrap(err)
	}

	allVersions, err := migrationVersions(m.store)
	if err != nil {
		return nil, oops.With("operation", "get pending migrations").Wrap(err)
	}

	var pending []uint
	for _, v := range allVersions {
		if v > currentVersion {
			pending = append(pending, v)
		}
	}
	return pending, nil
}

// AppliedMigrations returns the versions already applied, ascending.
func (m *Migrator) AppliedMigrations() ([]uint, error) {
	currentVersion, _, err := m.Version()
	if err != nil {
		return nil, oops.With("operation", "get applied migrations").Wrap(err)
	}
	if currentVersion == 0 {
		return nil, nil
	}

	allVersions, err := migrationVersions(m.store)
	if err != nil {
		return nil, oops.With("operation", "get applied migrations").Wrap(err)
	}

	var applied []uint
	for _, v := range allVersions {
		if v <= currentVersion {
			applied = append(applied, v)
		}
	}
	return applied, nil
}
