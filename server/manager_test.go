package server

import (
	"errors"
	"net"
	"testing"

	"github.com/google/uuid"

	"tilewm/protocol"
)

func TestManagerSessionLifecycle(t *testing.T) {
	mgr := NewManager()
	s := mgr.NewSession()
	if s.ID() == uuid.Nil {
		t.Fatal("session allocated with nil id")
	}
	if mgr.ActiveSessions() != 1 {
		t.Fatalf("ActiveSessions = %d, want 1", mgr.ActiveSessions())
	}

	got, err := mgr.Lookup(s.ID())
	if err != nil || got != s {
		t.Fatalf("Lookup = %v, %v", got, err)
	}

	mgr.Close(s.ID())
	if !s.Closed() {
		t.Fatal("session not marked closed")
	}
	if _, err := mgr.Lookup(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Lookup after close: got %v, want ErrSessionNotFound", err)
	}
	if mgr.ActiveSessions() != 0 {
		t.Fatalf("ActiveSessions = %d, want 0", mgr.ActiveSessions())
	}
}

func TestSessionSequenceIsMonotonic(t *testing.T) {
	s := NewSession(uuid.New())
	prev := s.NextSequence()
	for i := 0; i < 100; i++ {
		next := s.NextSequence()
		if next <= prev {
			t.Fatalf("sequence went backwards: %d after %d", next, prev)
		}
		prev = next
	}
}

func TestHandshakeAllocatesSession(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()
	defer serverEnd.Close()

	mgr := NewManager()
	done := make(chan error, 1)
	var session *Session
	go func() {
		var err error
		session, err = handleHandshake(serverEnd, mgr)
		done <- err
	}()

	payload, err := protocol.EncodeHello(protocol.Hello{
		ClientID:   [16]byte(uuid.New()),
		ClientName: "test-client",
	})
	if err != nil {
		t.Fatalf("EncodeHello: %v", err)
	}
	hdr := protocol.Header{Version: protocol.Version, Type: protocol.MsgHello, Flags: protocol.FlagChecksum}
	if err := protocol.WriteMessage(clientEnd, hdr, payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	replyHdr, replyBody, err := protocol.ReadMessage(clientEnd)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if replyHdr.Type != protocol.MsgWelcome {
		t.Fatalf("reply type = %d, want MsgWelcome", replyHdr.Type)
	}
	welcome, err := protocol.DecodeWelcome(replyBody)
	if err != nil {
		t.Fatalf("DecodeWelcome: %v", err)
	}
	if welcome.ServerName != ServerName {
		t.Fatalf("ServerName = %q", welcome.ServerName)
	}

	if err := <-done; err != nil {
		t.Fatalf("handleHandshake: %v", err)
	}
	if session.ClientName() != "test-client" {
		t.Fatalf("ClientName = %q", session.ClientName())
	}
	if welcome.SessionID != session.WireID() {
		t.Fatal("welcome session id does not match allocated session")
	}
}

func TestHandshakeRejectsNonHello(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()
	defer serverEnd.Close()

	mgr := NewManager()
	done := make(chan error, 1)
	go func() {
		_, err := handleHandshake(serverEnd, mgr)
		done <- err
	}()

	payload, _ := protocol.EncodePing(protocol.Ping{Timestamp: 1})
	hdr := protocol.Header{Version: protocol.Version, Type: protocol.MsgPing, Flags: protocol.FlagChecksum}
	if err := protocol.WriteMessage(clientEnd, hdr, payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	if err := <-done; !errors.Is(err, errUnexpectedMessage) {
		t.Fatalf("handshake error = %v, want errUnexpectedMessage", err)
	}
	if mgr.ActiveSessions() != 0 {
		t.Fatal("rejected handshake leaked a session")
	}
}
