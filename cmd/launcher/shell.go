// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dfo-launcher/launcher/internal/session"
	"github.com/dfo-launcher/launcher/pkg/errutil"
)

const shellHelp = `Commands:
  login [user]     log in (prompts for the password)
  remember [user]  log in and remember the account name
  register [user]  create an account
  refresh          reload characters and cera
  show             print the current session
  select <n>       select the character at roster index n
  gold <amount>    credit gold to the selected character
  cera <amount>    credit cera to the account
  launch           start the game client
  help             show this help
  quit             leave the shell
`

func newShellCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive launcher session",
		Long: `Start an interactive session that keeps the login between commands.
When metrics.addr is configured the metrics and health endpoints are
served for the lifetime of the shell.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := opts.newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer a.close()

			if a.server != nil {
				errCh, err := a.server.Start()
				if err != nil {
					return err
				}
				go func() {
					for serveErr := range errCh {
						errutil.LogError(ctx, a.logger, "observability server failed", serveErr)
					}
				}()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := a.server.Stop(stopCtx); err != nil {
						errutil.LogError(stopCtx, a.logger, "failed to stop observability server", err)
					}
				}()
			}

			sh := &shell{
				app:    a,
				prompt: opts.newPrompter(cmd),
				out:    cmd.OutOrStdout(),
				prefs:  func() string { return opts.rememberedUsername(ctx, a) },
			}
			return sh.run(ctx)
		},
	}
}

// shell is the read-eval loop over one controller.
type shell struct {
	app    *app
	prompt *prompter
	out    io.Writer
	prefs  func() string
}

func (s *shell) run(ctx context.Context) error {
	_, _ = fmt.Fprint(s.out, "Type 'help' for commands.\n")
	for {
		line, err := s.prompt.Line("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		quit, err := s.exec(ctx, fields[0], fields[1:])
		if err != nil {
			_, _ = fmt.Fprintln(s.out, errorLine(err))
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *shell) exec(ctx context.Context, name string, args []string) (bool, error) {
	c := s.app.controller
	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		_, _ = fmt.Fprint(s.out, shellHelp)
	case "login", "remember":
		username, password, err := s.credentials(args, s.prefs())
		if err != nil {
			return false, err
		}
		if err := c.Login(ctx, username, password, name == "remember"); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(s.out, session.MsgLoginSuccessful)
		s.show()
	case "register":
		username, password, err := s.credentials(args, "")
		if err != nil {
			return false, err
		}
		if err := c.CreateAccount(ctx, username, password); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(s.out, session.MsgAccountCreated)
	case "refresh":
		if err := c.Refresh(ctx); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(s.out, session.MsgRefreshed)
		s.show()
	case "show":
		s.show()
	case "select":
		if len(args) != 1 {
			return false, usageError("select <n>")
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return false, usageError("select <n>")
		}
		char, err := c.Select(index)
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(s.out, "Selected %s (Lv.%d %s)\n", char.Name, char.Level, char.Job)
	case "gold":
		if len(args) != 1 {
			return false, usageError("gold <amount>")
		}
		if err := c.SendGold(ctx, args[0]); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(s.out, session.MsgGoldSent)
		s.show()
	case "cera":
		if len(args) != 1 {
			return false, usageError("cera <amount>")
		}
		if err := c.SendCera(ctx, args[0]); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(s.out, session.MsgCeraSent)
		s.show()
	case "launch":
		if err := c.Launch(ctx); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(s.out, session.MsgLaunching)
	default:
		_, _ = fmt.Fprintf(s.out, "unknown command %q, type 'help'\n", name)
	}
	return false, nil
}

func (s *shell) credentials(args []string, remembered string) (string, string, error) {
	flags := credentialFlags{}
	if len(args) > 0 {
		flags.username = args[0]
	}
	return flags.resolve(s.prompt, remembered)
}

func (s *shell) show() {
	sess := s.app.controller.Session()
	if sess == nil {
		_, _ = fmt.Fprintln(s.out, "Not logged in")
		return
	}
	selected, _ := s.app.controller.Selected()
	_, _ = fmt.Fprint(s.out, formatSessionTable(sess, selected.ID))
}

func usageError(usage string) error {
	return oops.Code("USAGE").Errorf("usage: %s", usage)
}
