// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

// Package store opens the launcher's five backing stores and manages their
// schemas.
package store

import (
	"net/url"

	"github.com/samber/oops"
)

// Name identifies one of the backing stores.
type Name string

// The backing stores.
const (
	Main      Name = "main"
	Billing   Name = "billing"
	Chara     Name = "chara"
	Inventory Name = "inventory"
	Login     Name = "login"
)

// Names lists every store in a stable order.
var Names = []Name{Main, Billing, Chara, Inventory, Login}

var schemas = map[Name]string{
	Main:      "d_taiwan",
	Billing:   "taiwan_billing",
	Chara:     "taiwan_cain",
	Inventory: "taiwan_cain_2nd",
	Login:     "taiwan_login",
}

// Schema returns the database schema holding the store's tables.
func (n Name) Schema() string {
	return schemas[n]
}

// Valid reports whether n is a known store.
func (n Name) Valid() bool {
	_, ok := schemas[n]
	return ok
}

// WithSearchPath returns rawURL with its search_path parameter set to schema.
func WithSearchPath(rawURL, schema string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", oops.Code("STORE_URL_INVALID").With("schema", schema).Wrap(err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", oops.Code("STORE_URL_INVALID").With("schema", schema).Errorf("store URL must be of the form postgres://host/db")
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
