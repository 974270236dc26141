// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"context"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dfo-launcher/launcher/internal/session"
	"github.com/dfo-launcher/launcher/internal/xdg"
	"github.com/dfo-launcher/launcher/pkg/errutil"
)

// loginFlags are the flags of every command that logs in first.
type loginFlags struct {
	credentialFlags
	remember bool
}

// runLoggedIn opens the app, logs in and runs fn with the live controller.
func (r *rootOptions) runLoggedIn(cmd *cobra.Command, flags *loginFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := r.newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	username, password, err := flags.resolve(r.newPrompter(cmd), r.rememberedUsername(ctx, a))
	if err != nil {
		return err
	}
	if err := a.controller.Login(ctx, username, password, flags.remember); err != nil {
		return err
	}
	return fn(ctx, a)
}

func (r *rootOptions) rememberedUsername(ctx context.Context, a *app) string {
	prefs, err := xdg.LoadPrefs(r.deps.PrefsPath())
	if err != nil {
		errutil.LogError(ctx, a.logger, "failed to read prefs", err)
		return ""
	}
	return prefs.Username
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	flags := &loginFlags{}
	var (
		output     string
		launchGame bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and show the account's characters and cera",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return oops.Code("INVALID_OUTPUT").Errorf("output must be 'table' or 'json', got %q", output)
			}
			return opts.runLoggedIn(cmd, flags, func(ctx context.Context, a *app) error {
				sess := a.controller.Session()
				if output == "json" {
					text, err := formatSessionJSON(sess)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprint(cmd.OutOrStdout(), text)
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.MsgLoginSuccessful)
					_, _ = fmt.Fprint(cmd.OutOrStdout(), formatSessionTable(sess, 0))
				}
				if launchGame {
					if err := a.controller.Launch(ctx); err != nil {
						return err
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.MsgLaunching)
				}
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.remember, "remember", false, "remember the account name")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table or json)")
	cmd.Flags().BoolVar(&launchGame, "launch", false, "start the game client after logging in")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	flags := &credentialFlags{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := opts.newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			username, password, err := flags.resolve(opts.newPrompter(cmd), "")
			if err != nil {
				return err
			}
			if err := a.controller.CreateAccount(ctx, username, password); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.MsgAccountCreated)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newSendGoldCmd(opts *rootOptions) *cobra.Command {
	flags := &loginFlags{}
	var character int

	cmd := &cobra.Command{
		Use:   "send-gold <amount>",
		Short: "Credit gold to one of the account's characters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := session.ParseAmount(args[0]); err != nil {
				return err
			}
			return opts.runLoggedIn(cmd, flags, func(ctx context.Context, a *app) error {
				if _, err := a.controller.Select(character); err != nil {
					return err
				}
				if err := a.controller.SendGold(ctx, args[0]); err != nil {
					return err
				}
				selected, _ := a.controller.Selected()
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.MsgGoldSent)
				_, _ = fmt.Fprint(cmd.OutOrStdout(), formatSessionTable(a.controller.Session(), selected.ID))
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&character, "character", "c", 0, "roster index of the character to credit")
	return cmd
}

func newSendCeraCmd(opts *rootOptions) *cobra.Command {
	flags := &loginFlags{}

	cmd := &cobra.Command{
		Use:   "send-cera <amount>",
		Short: "Credit cera to the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := session.ParseAmount(args[0]); err != nil {
				return err
			}
			return opts.runLoggedIn(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.controller.SendCera(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.MsgCeraSent)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cera: %d\n", a.controller.Session().Cera)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}
