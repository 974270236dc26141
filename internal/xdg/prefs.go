// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// PrefsFile is the name of the preferences file inside ConfigDir.
const PrefsFile = "prefs.yaml"

// Prefs are the remembered launcher settings. Passwords are never stored.
type Prefs struct {
	Username string `yaml:"username,omitempty"`
}

// PrefsPath returns the default preferences file path.
func PrefsPath() string {
	return filepath.Join(ConfigDir(), PrefsFile)
}

// LoadPrefs reads the preferences at path. A missing file yields empty Prefs.
func LoadPrefs(path string) (Prefs, error) {
	var prefs Prefs
	data, err := os.ReadFile(path) //nolint:gosec // path is the launcher's own prefs file
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, oops.Code("PREFS_READ_FAILED").With("path", path).Wrap(err)
	}
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return Prefs{}, oops.Code("PREFS_INVALID").With("path", path).Wrap(err)
	}
	return prefs, nil
}

// SavePrefs writes prefs to path, creating the directory when needed.
func SavePrefs(path string, prefs Prefs) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return oops.Code("PREFS_ENCODE_FAILED").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return oops.Code("PREFS_WRITE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
