// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// DefaultEnvFile is read when present in the working directory.
const DefaultEnvFile = ".env"

// envKeys maps environment variable names to config keys. The DFO_* and
// DNF_* names are the ones existing deployments already set.
var envKeys = map[string]string{
	"DFO_DB_BASE_URL":             "db.base_url",
	"DFO_DB_MAIN_URL":             "db.main_url",
	"DFO_DB_BILLING_URL":          "db.billing_url",
	"DFO_DB_CHAR_URL":             "db.chara_url",
	"DFO_DB_INVENTORY_URL":        "db.inventory_url",
	"DFO_DB_LOGIN_URL":            "db.login_url",
	"DNF_EXE_PATH":                "game.exe_path",
	"LAUNCHER_DB_MAX_CONNS":       "db.max_conns",
	"LAUNCHER_DB_CONNECT_TIMEOUT": "db.connect_timeout",
	"LAUNCHER_TOKEN_KEY_FILE":     "token.key_file",
	"LAUNCHER_PLAINTEXT_RECOVERY": "account.plaintext_recovery",
	"LAUNCHER_INVENTORY_TABLE":    "chara.inventory_table",
	"LAUNCHER_LOG_FORMAT":         "log.format",
	"LAUNCHER_LOG_LEVEL":          "log.level",
	"LAUNCHER_METRICS_ADDR":       "metrics.addr",
	"LAUNCHER_OPERATION_TIMEOUT":  "operation_timeout",
	"LAUNCHER_REFRESH_DELAY":      "refresh_delay",
}

// flagKeys maps the flags registered by RegisterFlags to config keys.
var flagKeys = map[string]string{
	"db-base-url":       "db.base_url",
	"exe-path":          "game.exe_path",
	"token-key-file":    "token.key_file",
	"log-format":        "log.format",
	"log-level":         "log.level",
	"metrics-addr":      "metrics.addr",
	"operation-timeout": "operation_timeout",
}

// RegisterFlags adds the flags that override configuration keys.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("db-base-url", "", "base database URL; each store uses its own schema (env DFO_DB_BASE_URL)")
	flags.String("exe-path", DefaultExePath, "game executable (env DNF_EXE_PATH)")
	flags.String("token-key-file", "", "PEM file with the token signing key (default: embedded key)")
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	flags.Duration("operation-timeout", DefaultOperationTimeout, "upper bound for a single operation")
}

// Options selects the configuration sources.
type Options struct {
	// ConfigFile is an optional YAML file. A missing file is an error.
	ConfigFile string
	// EnvFile is an optional dotenv file; empty means DefaultEnvFile.
	// A missing file is ignored.
	EnvFile string
	// Flags, when set, overrides keys for every flag the user changed.
	Flags *pflag.FlagSet
}

// Load builds the configuration from all sources and validates it.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("path", opts.ConfigFile).
				Wrap(err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "dotenv").With("path", envFile).Wrap(err)
	default:
		if err := k.Load(confmap.Provider(mapEnv(dotenv), "."), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "dotenv").Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, flagValue(opts.Flags)), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "unmarshal").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mapEnv(vars map[string]string) map[string]any {
	out := make(map[string]any, len(vars))
	for name, value := range vars {
		if key, ok := envKeys[name]; ok && value != "" {
			out[key] = value
		}
	}
	return out
}

// envValue drops variables that are unknown or empty.
func envValue(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok || strings.TrimSpace(value) == "" {
		return "", nil
	}
	return key, value
}

func flagValue(flags *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}
}
