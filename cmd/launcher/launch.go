// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"context"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dfo-launcher/launcher/internal/session"
)

func newLaunchCmd(opts *rootOptions) *cobra.Command {
	flags := &loginFlags{}
	var check string

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Log in and start the game client",
		Long: `Log in and start the configured game executable with a fresh launch
token. With --check the given token is verified against the signing key
instead and the account uid it was issued for is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if check != "" {
				return runTokenCheck(cmd, opts, check)
			}
			return opts.runLoggedIn(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.controller.Launch(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.MsgLaunching)
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.remember, "remember", false, "remember the account name")
	cmd.Flags().StringVar(&check, "check", "", "verify a launch token and print its uid")
	return cmd
}

func runTokenCheck(cmd *cobra.Command, opts *rootOptions, tok string) error {
	cfg, logger, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	signer, err := newSigner(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	uid, err := signer.Recover(tok)
	if err != nil {
		return oops.Code("TOKEN_CHECK_FAILED").Errorf("token is not valid: %v", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "token valid for uid %d\n", uid)
	return nil
}
