// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dfo-launcher/launcher/internal/auth"
	"github.com/dfo-launcher/launcher/internal/config"
	"github.com/dfo-launcher/launcher/internal/launch"
	"github.com/dfo-launcher/launcher/internal/logging"
	"github.com/dfo-launcher/launcher/internal/session"
	"github.com/dfo-launcher/launcher/internal/token"
)

const serviceName = "dfo-launcher"

// app is the wired launcher for one command invocation.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	backend    Backend
	service    *auth.Service
	controller *session.Controller
	// server is set when metrics were requested and metrics.addr is configured.
	server ObservabilityServer
}

// loadConfig reads the configuration and sets up logging.
func (r *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := r.deps.LoadConfig(config.Options{
		ConfigFile: r.configFile,
		EnvFile:    r.envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, nil, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.SetDefault(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr())
	return cfg, logger, nil
}

// newApp loads configuration, opens the stores and builds the service.
// With serveMetrics an observability server is created (not started) when
// metrics.addr is configured. The caller must call close.
func (r *rootOptions) newApp(ctx context.Context, cmd *cobra.Command, serveMetrics bool) (*app, error) {
	cfg, logger, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	signer, err := newSigner(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	backend, err := r.deps.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("operation", "open stores").Wrap(err)
	}

	opts := []auth.ServiceOption{
		auth.WithLogger(logger),
		auth.WithOperationTimeout(cfg.OperationTimeout),
		auth.WithPlaintextRecovery(cfg.Account.PlaintextRecovery),
	}
	var server ObservabilityServer
	if serveMetrics && cfg.Metrics.Addr != "" {
		server = r.deps.ObservabilityServerFactory(cfg.Metrics.Addr, func(ctx context.Context) bool {
			if err := backend.Ping(ctx); err != nil {
				logger.WarnContext(ctx, "store readiness check failed", "error", err)
				return false
			}
			return true
		})
		opts = append(opts, auth.WithMetrics(server.Metrics()))
	}
	service, err := auth.NewService(backend.Stores(), signer, auth.NewLegacyMD5Hasher(), opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	controller, err := session.NewController(service,
		session.WithLogger(logger),
		session.WithLauncher(r.deps.NewLauncher(cfg)),
		session.WithPrefsPath(r.deps.PrefsPath()),
		session.WithRefreshDelay(cfg.RefreshDelay),
	)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		backend:    backend,
		service:    service,
		controller: controller,
		server:     server,
	}, nil
}

func (a *app) close() {
	a.backend.Close()
}

func newSigner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*token.Signer, error) {
	var (
		key    token.Key
		err    error
		source = "embedded"
	)
	if cfg.Token.KeyFile != "" {
		key, err = token.LoadKeyFile(cfg.Token.KeyFile)
		source = cfg.Token.KeyFile
	} else {
		key, err = token.DefaultKey()
	}
	if err != nil {
		return nil, err
	}
	signer, err := token.NewSigner(key)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "token key loaded", "source", source, "modulus_bits", key.PublicKey().N.BitLen())
	return signer, nil
}

func newLauncher(cfg *config.Config) session.GameLauncher {
	return launch.New(cfg.Game.ExePath, slog.Default())
}
