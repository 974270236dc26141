// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

// Package auth provides the account and session core of the launcher.
//
// # Domain Types
//
//   - Account - a stored account with its password digest
//   - Character - one entry of the account roster
//   - LoginSession - the authenticated view returned by a login
//
// # Service
//
// Service coordinates the store clients:
//   - PerformLogin - authenticate and assemble a LoginSession
//   - CreateAccount - provision an account and its dependent rows
//   - SendGold, SendCera - credit in-game currency
//
// Each operation also has an *Async variant returning a Task.
//
// Store clients are defined as interfaces here and implemented in the
// postgres subpackage.
package auth
