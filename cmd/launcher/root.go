// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/dfo-launcher/launcher/internal/config"
)

// rootOptions holds the global flags and the injected dependencies.
type rootOptions struct {
	configFile string
	envFile    string
	deps       *Deps
}

// NewRootCmd creates the root command for the launcher CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	opts := &rootOptions{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "launcher",
		Short: "DFO launcher - account, currency and game launch tool",
		Long: `The DFO launcher logs players in against the game's account stores,
provisions new accounts, grants gold and cera, and starts the game client
with a signed launch token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file path")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file (default .env)")
	config.RegisterFlags(flags)

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newRegisterCmd(opts))
	cmd.AddCommand(newSendGoldCmd(opts))
	cmd.AddCommand(newSendCeraCmd(opts))
	cmd.AddCommand(newLaunchCmd(opts))
	cmd.AddCommand(newShellCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))

	return cmd
}
