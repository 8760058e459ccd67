// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: YAML configuration for the window manager: layout tuning,
//          socket, outputs and key bindings.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Output declares one display the server manages, in pixels.
type Output struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Config is the full server configuration. Zero fields are filled from
// Default before validation, so a partial file is fine.
type Config struct {
	SocketPath string `yaml:"socket_path"`
	SnapshotDB string `yaml:"snapshot_db"`

	Gap        int     `yaml:"gap"`
	Border     int     `yaml:"border"`
	MinRatio   float64 `yaml:"min_ratio"`
	ResizeStep float64 `yaml:"resize_step"`

	Outputs []Output `yaml:"outputs"`

	// Bindings maps chord strings ("Ctrl+Shift+Left") to text
	// commands ("focus left").
	Bindings map[string]string `yaml:"bindings"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		SocketPath: defaultSocketPath(),
		SnapshotDB: defaultSnapshotPath(),
		Gap:        4,
		Border:     1,
		MinRatio:   0.05,
		ResizeStep: 0.05,
		Outputs:    []Output{{Name: "default", Width: 1920, Height: 1080}},
		Bindings: map[string]string{
			"Ctrl+Shift+Left":  "focus left",
			"Ctrl+Shift+Right": "focus right",
			"Ctrl+Shift+Up":    "focus up",
			"Ctrl+Shift+Down":  "focus down",
			"Alt+Shift+Left":   "move left",
			"Alt+Shift+Right":  "move right",
			"Alt+Shift+Up":     "move up",
			"Alt+Shift+Down":   "move down",
			"Ctrl+Shift+H":     "split h",
			"Ctrl+Shift+V":     "split v",
			"Ctrl+Shift+Q":     "close",
			"Ctrl+Shift+1":     "workspace 1",
			"Ctrl+Shift+2":     "workspace 2",
			"Ctrl+Shift+3":     "workspace 3",
			"Alt+Shift+1":      "move to-workspace 1",
			"Alt+Shift+2":      "move to-workspace 2",
			"Alt+Shift+3":      "move to-workspace 3",
		},
	}
}

// Load reads path, overlaying it on the defaults. A missing file is
// not an error: the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the layout engine cannot honor.
func (c *Config) Validate() error {
	if c.Gap < 0 || c.Border < 0 {
		return fmt.Errorf("config: gap and border must be non-negative")
	}
	if c.MinRatio <= 0 || c.MinRatio >= 0.5 {
		return fmt.Errorf("config: min_ratio %f outside (0, 0.5)", c.MinRatio)
	}
	if c.ResizeStep <= 0 || c.ResizeStep >= 1 {
		return fmt.Errorf("config: resize_step %f outside (0, 1)", c.ResizeStep)
	}
	if c.SocketPath == "" {
		return fmt.Errorf("config: socket_path is required")
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("config: at least one output is required")
	}
	for _, o := range c.Outputs {
		if o.Name == "" || o.Width <= 0 || o.Height <= 0 {
			return fmt.Errorf("config: output %+v is invalid", o)
		}
	}
	return nil
}

// Save writes the configuration back out, creating parent directories.
func (c *Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := ensureParent(path); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
