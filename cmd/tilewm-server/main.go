// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/tilewm-server/main.go
// Summary: The window-manager daemon. Loads configuration, restores the
// last workspace layout, runs the engine loop and serves the control
// socket until interrupted.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"tilewm/config"
	"tilewm/hotkeys"
	"tilewm/server"
	"tilewm/wm"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
		socketPath string
	)

	root := &cobra.Command{
		Use:          "tilewm-server",
		Short:        "Tiling window manager daemon",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewWithOptions(os.Stderr, log.Options{
				ReportTimestamp: true,
				TimeFormat:      "15:04:05.00",
			})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
			return run(cmd.Context(), logger, configPath, socketPath)
		},
	}

	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "configuration file")
	root.Flags().StringVarP(&socketPath, "socket", "s", "", "control socket path (overrides config)")
	return root
}

func run(ctx context.Context, logger *log.Logger, configPath, socketPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}

	// Reject broken bindings at startup rather than at keypress time.
	resolver, err := hotkeys.NewResolver(cfg.Bindings)
	if err != nil {
		return fmt.Errorf("bindings: %w", err)
	}
	logger.Debugf("loaded %d key bindings", resolver.Len())

	state := wm.NewState(cfg.MinRatio)
	state.Registry.SetReadOnly("server", server.ServerName)
	bus := wm.NewBus()
	opt := wm.LayoutOptions{Gap: cfg.Gap, Border: cfg.Border}
	engine := wm.NewEngine(state, bus, nil, opt, logger)
	for _, out := range cfg.Outputs {
		engine.AddOutput(out.Name, wm.Rect{W: out.Width, H: out.Height})
	}

	store, err := server.OpenSnapshotStore(cfg.SnapshotDB)
	if err != nil {
		return err
	}
	defer store.Close()

	switch err := store.Restore(state.Tree); {
	case errors.Is(err, server.ErrNoSnapshot):
		logger.Debug("no stored layout to restore")
	case err != nil:
		logger.Warnf("layout restore failed: %v", err)
	default:
		logger.Info("restored workspace layout")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go engine.Run(runCtx)

	srv := server.NewServer(cfg.SocketPath, engine, bus, logger)
	if err := srv.Start(); err != nil {
		return err
	}

	// "custom snapshot" persists the layout on demand (tilectl snapshot).
	sub := bus.Subscribe()
	defer sub.Close()
	go func() {
		for ch := range sub.C() {
			if ch.Kind != wm.ChangeCustom || ch.Name != "snapshot" {
				continue
			}
			res, err := engine.Submit(runCtx, wm.GetTreeCmd{})
			if err != nil {
				continue
			}
			if err := store.Save(res.Snapshot); err != nil {
				logger.Warnf("snapshot save failed: %v", err)
			} else {
				logger.Info("layout snapshot saved")
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case <-engine.Stopped():
		logger.Info("engine quit")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		logger.Warnf("stop: %v", err)
	}
	cancel()
	<-engine.Stopped()

	if err := store.Save(state.Tree.Snapshot(state.Focus)); err != nil {
		logger.Warnf("snapshot save failed: %v", err)
	}
	return ctx.Err()
}
