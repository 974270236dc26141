// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package auth

// LoginSession is the aggregated result of a successful login. It is never
// persisted; every login or refresh builds a new one.
type LoginSession struct {
	UID        int32
	Token      string
	Characters []Character
	Cera       int64
}

// Character returns the roster entry with the given id.
func (s *LoginSession) Character(id int32) (Character, bool) {
	for _, c := range s.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}
