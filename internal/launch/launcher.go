// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

// Package launch starts the game client with a launch token.
package launch

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/auth"
	"github.com/dfo-launcher/launcher/pkg/errutil"
)

// DefaultExePath is the game client started when none is configured.
const DefaultExePath = "ADNF.exe"

// Launcher spawns the game executable. The client outlives the launcher
// operation, so Start never waits for it to exit.
type Launcher struct {
	ExePath string
	Logger  *slog.Logger
}

// New creates a Launcher for exePath.
func New(exePath string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{ExePath: exePath, Logger: logger}
}

// Start runs the executable with token as its only argument.
func (l *Launcher) Start(ctx context.Context, token string) error {
	if strings.TrimSpace(l.ExePath) == "" {
		return oops.Code("LAUNCH_EXE_MISSING").Wrapf(auth.ErrValidation, "game executable path is not configured")
	}
	if token == "" {
		return oops.Code("LAUNCH_TOKEN_MISSING").Wrapf(auth.ErrValidation, "no launch token")
	}
	if err := ctx.Err(); err != nil {
		return oops.Code("LAUNCH_CANCELLED").Wrap(err)
	}

	logger := l.logger()
	// Not CommandContext: cancelling ctx must not kill the running game.
	cmd := exec.Command(l.ExePath, token) //nolint:gosec,noctx // operator-configured executable
	if err := cmd.Start(); err != nil {
		return oops.Code("LAUNCH_FAILED").With("exe_path", l.ExePath).Wrap(err)
	}

	logger.InfoContext(ctx, "launching game", "exe_path", l.ExePath, "pid", cmd.Process.Pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			errutil.LogError(context.Background(), logger, "game client exited", err, "exe_path", l.ExePath)
			return
		}
		logger.Debug("game client exited", "exe_path", l.ExePath)
	}()
	return nil
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
