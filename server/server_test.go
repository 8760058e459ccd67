package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"tilewm/client"
	"tilewm/protocol"
	"tilewm/wm"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	logger := log.New(io.Discard)
	state := wm.NewState(wm.DefaultMinRatio)
	bus := wm.NewBus()
	engine := wm.NewEngine(state, bus, nil, wm.LayoutOptions{}, logger)
	engine.AddOutput("main", wm.Rect{W: 1200, H: 800})

	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)

	sock := filepath.Join(t.TempDir(), "wm.sock")
	srv := NewServer(sock, engine, bus, logger)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		if err := srv.Stop(stopCtx); err != nil {
			t.Errorf("Stop: %v", err)
		}
		cancel()
	})
	return srv, sock
}

func TestServerCommandRoundTrip(t *testing.T) {
	srv, sock := startTestServer(t)

	c, err := client.Dial(sock, "round-trip")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if c.ServerName() != ServerName {
		t.Fatalf("ServerName = %q", c.ServerName())
	}
	if srv.Manager().ActiveSessions() != 1 {
		t.Fatalf("ActiveSessions = %d, want 1", srv.Manager().ActiveSessions())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := c.Run(ctx, "workspace 2")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reply.Code != protocol.CodeOK {
		t.Fatalf("workspace 2: code %d (%s)", reply.Code, reply.Error)
	}

	reply, err = c.Run(ctx, "get_tree")
	if err != nil {
		t.Fatalf("Run get_tree: %v", err)
	}
	if reply.Code != protocol.CodeOK || len(reply.Payload) == 0 {
		t.Fatalf("get_tree: code %d, %d payload bytes", reply.Code, len(reply.Payload))
	}
	var snap wm.Snapshot
	if err := json.Unmarshal(reply.Payload, &snap); err != nil {
		t.Fatalf("snapshot payload: %v", err)
	}
	if len(snap.Outputs) != 1 || snap.Outputs[0].Name != "main" {
		t.Fatalf("unexpected snapshot: %+v", snap.Outputs)
	}

	if reply, err = c.Run(ctx, "set theme dark"); err != nil || reply.Code != protocol.CodeOK {
		t.Fatalf("set: %v, code %d", err, reply.Code)
	}
	reply, err = c.Run(ctx, "get theme")
	if err != nil || reply.Code != protocol.CodeOK {
		t.Fatalf("get: %v, code %d", err, reply.Code)
	}
	var entry wm.RegistryEntry
	if err := json.Unmarshal(reply.Payload, &entry); err != nil {
		t.Fatalf("entry payload: %v", err)
	}
	if entry.Key != "theme" || string(entry.Value) != `"dark"` {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestServerErrorsKeepConnectionOpen(t *testing.T) {
	_, sock := startTestServer(t)

	c, err := client.Dial(sock, "errors")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := c.Run(ctx, "focus left")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reply.Code != protocol.CodeNoNeighbor {
		t.Fatalf("focus left on empty tree: code %d, want CodeNoNeighbor", reply.Code)
	}

	reply, err = c.Run(ctx, "spilt horizontal")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reply.Code != protocol.CodeMalformedCommand {
		t.Fatalf("misspelled verb: code %d, want CodeMalformedCommand", reply.Code)
	}

	// The connection must survive rejected commands.
	reply, err = c.Run(ctx, "get_tree")
	if err != nil {
		t.Fatalf("Run after rejections: %v", err)
	}
	if reply.Code != protocol.CodeOK {
		t.Fatalf("get_tree after rejections: code %d", reply.Code)
	}
}

func TestServerPing(t *testing.T) {
	_, sock := startTestServer(t)

	c, err := client.Dial(sock, "ping")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestServerStreamsEvents(t *testing.T) {
	_, sock := startTestServer(t)

	watcher, err := client.Dial(sock, "watcher")
	if err != nil {
		t.Fatalf("Dial watcher: %v", err)
	}
	defer watcher.Close()

	actor, err := client.Dial(sock, "actor")
	if err != nil {
		t.Fatalf("Dial actor: %v", err)
	}
	defer actor.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := watcher.Subscribe(ctx, "watcher")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// The subscription attaches asynchronously; keep switching
	// workspaces until a record comes through.
	deadline := time.After(4 * time.Second)
	next := 2
	for {
		if _, err := actor.Run(ctx, fmt.Sprintf("workspace %d", next)); err != nil {
			t.Fatalf("Run: %v", err)
		}
		next++

		select {
		case raw, ok := <-events:
			if !ok {
				t.Fatal("event stream closed early")
			}
			var change wm.Change
			if err := json.Unmarshal(raw, &change); err != nil {
				t.Fatalf("event payload: %v", err)
			}
			if change.Kind != wm.ChangeWorkspace && change.Kind != wm.ChangeLayout {
				t.Fatalf("unexpected change kind %q", change.Kind)
			}
			return
		case <-deadline:
			t.Fatal("no event record arrived")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestServerStopClosesSessions(t *testing.T) {
	srv, sock := startTestServer(t)

	c, err := client.Dial(sock, "closer")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if srv.Manager().ActiveSessions() != 0 {
		t.Fatalf("ActiveSessions after Stop = %d", srv.Manager().ActiveSessions())
	}
}
