// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package session

// Busy reports whether an operation is in flight.
func (c *Controller) Busy() bool {
	return c.inFlight.Load()
}
