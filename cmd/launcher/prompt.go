// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// prompter reads interactive input. Passwords are read without echo when
// stdin is a terminal and as a plain line otherwise.
type prompter struct {
	in           *bufio.Reader
	out          io.Writer
	fd           int
	terminal     bool
	readPassword func(fd int) ([]byte, error)
}

func (r *rootOptions) newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	p := &prompter{
		in:           bufio.NewReader(in),
		out:          cmd.OutOrStdout(),
		readPassword: r.deps.ReadPassword,
	}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd()) //nolint:gosec // file descriptors fit in int
		p.terminal = r.deps.IsTerminal(p.fd)
	}
	return p
}

// Line prints prompt and reads one trimmed line.
func (p *prompter) Line(prompt string) (string, error) {
	if prompt != "" {
		if _, err := fmt.Fprint(p.out, prompt); err != nil {
			return "", oops.Code("PROMPT_FAILED").Wrap(err)
		}
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", oops.Code("PROMPT_FAILED").Wrap(err)
	}
	return strings.TrimSpace(line), nil
}

// Password prints prompt and reads a password.
func (p *prompter) Password(prompt string) (string, error) {
	if !p.terminal {
		line, err := p.Line(prompt)
		if err != nil {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return line, nil
	}
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", oops.Code("PROMPT_FAILED").Wrap(err)
	}
	pw, err := p.readPassword(p.fd)
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	return string(pw), nil
}

// credentialFlags are shared by the commands that log in.
type credentialFlags struct {
	username      string
	passwordStdin bool
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "user", "u", "", "account name (default: remembered name or prompt)")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the password from stdin")
}

// resolve returns the username and password, prompting for what is missing.
func (f *credentialFlags) resolve(p *prompter, remembered string) (string, string, error) {
	username := f.username
	if username == "" && f.passwordStdin {
		username = remembered
	}
	if username == "" {
		prompt := "Username: "
		if remembered != "" {
			prompt = fmt.Sprintf("Username [%s]: ", remembered)
		}
		line, err := p.Line(prompt)
		if err != nil && (!errors.Is(err, io.EOF) || remembered == "") {
			return "", "", oops.Code("USERNAME_READ_FAILED").Wrap(err)
		}
		username = line
		if username == "" {
			username = remembered
		}
	}

	if f.passwordStdin {
		line, err := p.Line("")
		if err != nil {
			return "", "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return username, line, nil
	}
	password, err := p.Password("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}
