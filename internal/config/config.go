// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

// Package config loads launcher configuration.
//
// Sources are layered, later ones winning: built-in defaults, an optional
// YAML file, an optional .env file, the process environment and finally
// command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/store"
)

// Config is the complete launcher configuration.
type Config struct {
	DB               DBConfig      `koanf:"db"`
	Game             GameConfig    `koanf:"game"`
	Token            TokenConfig   `koanf:"token"`
	Account          AccountConfig `koanf:"account"`
	Chara            CharaConfig   `koanf:"chara"`
	Log              LogConfig     `koanf:"log"`
	Metrics          MetricsConfig `koanf:"metrics"`
	OperationTimeout time.Duration `koanf:"operation_timeout"`
	RefreshDelay     time.Duration `koanf:"refresh_delay"`
}

// DBConfig locates the five stores. Either BaseURL or every per-store URL
// must be set.
type DBConfig struct {
	BaseURL        string        `koanf:"base_url"`
	MainURL        string        `koanf:"main_url"`
	BillingURL     string        `koanf:"billing_url"`
	CharaURL       string        `koanf:"chara_url"`
	InventoryURL   string        `koanf:"inventory_url"`
	LoginURL       string        `koanf:"login_url"`
	MaxConns       int32         `koanf:"max_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// GameConfig describes the game client.
type GameConfig struct {
	ExePath string `koanf:"exe_path"`
}

// TokenConfig selects the signing key. Empty KeyFile uses the embedded key.
type TokenConfig struct {
	KeyFile string `koanf:"key_file"`
}

// AccountConfig controls account provisioning.
type AccountConfig struct {
	PlaintextRecovery bool `koanf:"plaintext_recovery"`
}

// CharaConfig controls the roster query.
type CharaConfig struct {
	InventoryTable string `koanf:"inventory_table"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig controls the metrics and health server. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Default values.
const (
	DefaultExePath          = "ADNF.exe"
	DefaultMaxConns         = 1
	DefaultConnectTimeout   = 5 * time.Second
	DefaultOperationTimeout = 30 * time.Second
	DefaultRefreshDelay     = time.Second
	DefaultInventoryTable   = "taiwan_cain_2nd.inventory"
	DefaultLogFormat        = "text"
	DefaultLogLevel         = "info"
)

func defaults() map[string]any {
	return map[string]any{
		"db.max_conns":               DefaultMaxConns,
		"db.connect_timeout":         DefaultConnectTimeout,
		"game.exe_path":              DefaultExePath,
		"account.plaintext_recovery": true,
		"chara.inventory_table":      DefaultInventoryTable,
		"log.format":                 DefaultLogFormat,
		"log.level":                  DefaultLogLevel,
		"operation_timeout":          DefaultOperationTimeout,
		"refresh_delay":              DefaultRefreshDelay,
	}
}

// storeURL pairs a store with its config field and legacy variable name.
type storeURL struct {
	name   store.Name
	envVar string
	value  func(DBConfig) string
}

var storeURLs = []storeURL{
	{store.Main, "DFO_DB_MAIN_URL", func(c DBConfig) string { return c.MainURL }},
	{store.Billing, "DFO_DB_BILLING_URL", func(c DBConfig) string { return c.BillingURL }},
	{store.Chara, "DFO_DB_CHAR_URL", func(c DBConfig) string { return c.CharaURL }},
	{store.Inventory, "DFO_DB_INVENTORY_URL", func(c DBConfig) string { return c.InventoryURL }},
	{store.Login, "DFO_DB_LOGIN_URL", func(c DBConfig) string { return c.LoginURL }},
}

// StoreURLs returns the connection URL of every store. With BaseURL set,
// each URL is the base URL scoped to the store's schema; per-store URLs
// still take precedence.
func (c *Config) StoreURLs() (map[store.Name]string, error) {
	urls := make(map[store.Name]string, len(storeURLs))
	for _, s := range storeURLs {
		if v := s.value(c.DB); v != "" {
			urls[s.name] = v
			continue
		}
		if c.DB.BaseURL == "" {
			return nil, oops.Code("CONFIG_INVALID").
				With("store", string(s.name)).
				With("env", s.envVar).
				Errorf("%s (or DFO_DB_BASE_URL) is required", s.envVar)
		}
		derived, err := store.WithSearchPath(c.DB.BaseURL, s.name.Schema())
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("env", "DFO_DB_BASE_URL").Wrap(err)
		}
		urls[s.name] = derived
	}
	return urls, nil
}

// PoolConfig returns the pool sizing for every store.
func (c *Config) PoolConfig() store.PoolConfig {
	return store.PoolConfig{MaxConns: c.DB.MaxConns, ConnectTimeout: c.DB.ConnectTimeout}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("key", "log.format").
			Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").With("key", "log.level").
			Errorf("log level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.DB.MaxConns < 1 {
		return oops.Code("CONFIG_INVALID").With("key", "db.max_conns").
			Errorf("db.max_conns must be at least 1, got %d", c.DB.MaxConns)
	}
	if c.OperationTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", "operation_timeout").
			Errorf("operation_timeout must be positive, got %s", c.OperationTimeout)
	}
	if c.RefreshDelay < 0 {
		return oops.Code("CONFIG_INVALID").With("key", "refresh_delay").
			Errorf("refresh_delay must not be negative, got %s", c.RefreshDelay)
	}
	return c.checkRosterJoin()
}

// checkRosterJoin requires the chara and inventory stores to share a
// database, since the roster query joins the inventory table from the
// chara connection. Stores without a URL are left to StoreURLs.
func (c *Config) checkRosterJoin() error {
	charaURL := firstNonEmpty(c.DB.CharaURL, c.DB.BaseURL)
	inventoryURL := firstNonEmpty(c.DB.InventoryURL, c.DB.BaseURL)
	if charaURL == "" || inventoryURL == "" {
		return nil
	}

	charaDB, err := databaseOf(charaURL)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "db.chara_url").With("env", "DFO_DB_CHAR_URL").Wrap(err)
	}
	inventoryDB, err := databaseOf(inventoryURL)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "db.inventory_url").With("env", "DFO_DB_INVENTORY_URL").Wrap(err)
	}
	if charaDB != inventoryDB {
		return oops.Code("CONFIG_INVALID").
			With("key", "db.inventory_url").
			With("chara_database", charaDB).
			With("inventory_database", inventoryDB).
			Errorf("chara and inventory stores must be in the same database for the roster join, got %s and %s", charaDB, inventoryDB)
	}
	return nil
}

// databaseOf identifies the database a connection string points at.
func databaseOf(connString string) (string, error) {
	cfg, err := pgconn.ParseConfig(connString)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
