// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for tilewm configuration and runtime files.

package config

import (
	"os"
	"path/filepath"
)

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tilewm"), nil
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	root, err := configRoot()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(root, "config.yaml")
}

func defaultSocketPath() string {
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		return filepath.Join(runtime, "tilewm.sock")
	}
	return filepath.Join(os.TempDir(), "tilewm.sock")
}

func defaultSnapshotPath() string {
	dataDir, err := os.UserCacheDir()
	if err != nil {
		return "tilewm.db"
	}
	return filepath.Join(dataDir, "tilewm", "snapshots.db")
}

func ensureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
