// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dfo-launcher/launcher/internal/auth"
	"github.com/dfo-launcher/launcher/internal/session"
)

// errorLine is the message printed for a failed command. Domain failures
// get the player-facing message; their details are already in the log.
func errorLine(err error) string {
	if errors.Is(err, session.ErrBusy) || auth.Kind(err) != nil {
		return session.Message(err)
	}
	return err.Error()
}

// formatSessionTable formats the session as a human-readable table.
// selected is the id of the selected character, or 0.
func formatSessionTable(sess *auth.LoginSession, selected int32) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "UID:  %d\n", sess.UID)
	_, _ = fmt.Fprintf(&b, "Cera: %d\n", sess.Cera)

	if len(sess.Characters) == 0 {
		b.WriteString("No characters\n")
		return b.String()
	}

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\t#\tNAME\tLEVEL\tCLASS\tGOLD")
	_, _ = fmt.Fprintln(w, "\t-\t----\t-----\t-----\t----")
	for i, c := range sess.Characters {
		marker := ""
		if selected != 0 && c.ID == selected {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%d\n", marker, i, c.Name, c.Level, c.Job, c.Money)
	}
	_ = w.Flush()
	return b.String()
}

type characterJSON struct {
	Index int    `json:"index"`
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Level int32  `json:"level"`
	Class string `json:"class"`
	Gold  int64  `json:"gold"`
}

type sessionJSON struct {
	UID        int32           `json:"uid"`
	Cera       int64           `json:"cera"`
	Token      string          `json:"token"`
	Characters []characterJSON `json:"characters"`
}

// formatSessionJSON formats the session as JSON.
func formatSessionJSON(sess *auth.LoginSession) (string, error) {
	out := sessionJSON{
		UID:        sess.UID,
		Cera:       sess.Cera,
		Token:      sess.Token,
		Characters: make([]characterJSON, 0, len(sess.Characters)),
	}
	for i, c := range sess.Characters {
		out.Characters = append(out.Characters, characterJSON{
			Index: i,
			ID:    c.ID,
			Name:  c.Name,
			Level: c.Level,
			Class: c.Job.String(),
			Gold:  c.Money,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	return string(data) + "\n", nil
}
