// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/tilectl/main.go
// Summary: Control client for the window-manager daemon. Sends text
// commands over the unix socket, dumps the layout tree and tails the
// event stream.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tilewm/client"
	"tilewm/config"
	"tilewm/protocol"
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
	var socketPath string

	root := &cobra.Command{
		Use:          "tilectl",
		Short:        "Send commands to the tiling window manager",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&socketPath, "socket", "s", "", "control socket path (defaults to the server's)")

	socket := func() string {
		if socketPath != "" {
			return socketPath
		}
		cfg, err := config.Load(config.DefaultPath())
		if err != nil {
			return config.Default().SocketPath
		}
		return cfg.SocketPath
	}

	root.AddCommand(newRunCmd(socket))
	root.AddCommand(newTreeCmd(socket))
	root.AddCommand(newSubscribeCmd(socket))
	root.AddCommand(newPingCmd(socket))
	root.AddCommand(newSnapshotCmd(socket))
	return root
}

func newSnapshotCmd(socket func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Ask the server to persist the current layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(socket)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			reply, err := c.Run(ctx, "custom snapshot")
			if err != nil {
				return err
			}
			if reply.Code != protocol.CodeOK {
				return fmt.Errorf("rejected (code %d): %s", reply.Code, reply.Error)
			}
			return nil
		},
	}
}

func dial(socket func() string) (*client.Client, error) {
	c, err := client.Dial(socket(), "tilectl")
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w (is tilewm-server running?)", socket(), err)
	}
	return c, nil
}

func newRunCmd(socket func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <command>...",
		Short: "Send one text command, e.g. `tilectl run focus left`",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(socket)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			reply, err := c.Run(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if reply.Code != protocol.CodeOK {
				return fmt.Errorf("rejected (code %d): %s", reply.Code, reply.Error)
			}
			if len(reply.Payload) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), string(reply.Payload))
			}
			return nil
		},
	}
}

func newTreeCmd(socket func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the layout tree as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(socket)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			reply, err := c.Run(ctx, "get_tree")
			if err != nil {
				return err
			}
			if reply.Code != protocol.CodeOK {
				return fmt.Errorf("rejected (code %d): %s", reply.Code, reply.Error)
			}
			var pretty json.RawMessage = reply.Payload
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newSubscribeCmd(socket func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe",
		Short: "Stream committed change records as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(socket)
			if err != nil {
				return err
			}
			defer c.Close()

			events, err := c.Subscribe(cmd.Context(), "tilectl")
			if err != nil {
				return err
			}
			for raw := range events {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			}
			return cmd.Context().Err()
		},
	}
}

func newPingCmd(socket func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Measure a round trip to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(socket)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			rtt, err := c.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pong from %s in %s\n", c.ServerName(), rtt)
			return nil
		},
	}
}
