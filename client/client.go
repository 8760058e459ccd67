// Package client implements the control-socket side of the wire
// protocol: handshake, command round trips, and event subscription.
// One Client owns one connection; use separate clients for commands
// and for event streaming.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"tilewm/protocol"
)

var (
	ErrHandshakeFailed = errors.New("client: handshake failed")
	ErrUnexpectedFrame = errors.New("client: unexpected frame type")
)

type Client struct {
	mu         sync.Mutex
	conn       net.Conn
	clientID   uuid.UUID
	sessionID  [16]byte
	serverName string
	seq        uint64
}

// Dial connects to the server's unix socket and performs the hello
// handshake.
func Dial(socketPath, name string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, clientID: uuid.New()}
	if err := c.handshake(name); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake(name string) error {
	payload, err := protocol.EncodeHello(protocol.Hello{
		ClientID:   [16]byte(c.clientID),
		ClientName: name,
	})
	if err != nil {
		return err
	}
	if err := c.send(protocol.MsgHello, payload); err != nil {
		return err
	}
	hdr, body, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return err
	}
	if hdr.Type != protocol.MsgWelcome {
		return fmt.Errorf("%w: got type %d", ErrHandshakeFailed, hdr.Type)
	}
	welcome, err := protocol.DecodeWelcome(body)
	if err != nil {
		return err
	}
	c.sessionID = welcome.SessionID
	c.serverName = welcome.ServerName
	return nil
}

func (c *Client) ServerName() string { return c.serverName }

func (c *Client) SessionID() [16]byte { return c.sessionID }

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) send(t protocol.MessageType, payload []byte) error {
	c.seq++
	hdr := protocol.Header{
		Version:   protocol.Version,
		Type:      t,
		Flags:     protocol.FlagChecksum,
		SessionID: c.sessionID,
		Sequence:  c.seq,
	}
	return protocol.WriteMessage(c.conn, hdr, payload)
}

// Run sends one text-form command and waits for the server's reply.
func (c *Client) Run(ctx context.Context, command string) (protocol.CommandReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(deadline)
		defer c.conn.SetDeadline(time.Time{})
	}

	payload, err := protocol.EncodeCommandRequest(protocol.CommandRequest{Command: command})
	if err != nil {
		return protocol.CommandReply{}, err
	}
	if err := c.send(protocol.MsgCommandRequest, payload); err != nil {
		return protocol.CommandReply{}, err
	}
	hdr, body, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return protocol.CommandReply{}, err
	}
	switch hdr.Type {
	case protocol.MsgCommandReply:
		return protocol.DecodeCommandReply(body)
	case protocol.MsgError:
		frame, derr := protocol.DecodeErrorFrame(body)
		if derr != nil {
			return protocol.CommandReply{}, derr
		}
		return protocol.CommandReply{}, fmt.Errorf("client: server error %d: %s", frame.Code, frame.Message)
	default:
		return protocol.CommandReply{}, fmt.Errorf("%w: %d", ErrUnexpectedFrame, hdr.Type)
	}
}

// Ping measures a round trip to the server.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(deadline)
		defer c.conn.SetDeadline(time.Time{})
	}

	start := time.Now()
	payload, err := protocol.EncodePing(protocol.Ping{Timestamp: start.UnixNano()})
	if err != nil {
		return 0, err
	}
	if err := c.send(protocol.MsgPing, payload); err != nil {
		return 0, err
	}
	hdr, body, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return 0, err
	}
	if hdr.Type != protocol.MsgPong {
		return 0, fmt.Errorf("%w: %d", ErrUnexpectedFrame, hdr.Type)
	}
	if _, err := protocol.DecodePong(body); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Subscribe switches the connection into event delivery and streams
// committed change records as raw JSON documents until the context is
// cancelled or the connection drops. No commands may be sent on this
// client afterwards.
func (c *Client) Subscribe(ctx context.Context, name string) (<-chan json.RawMessage, error) {
	payload, err := protocol.EncodeSubscribe(protocol.Subscribe{ClientName: name})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	err = c.send(protocol.MsgSubscribe, payload)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	events := make(chan json.RawMessage, 16)
	go func() {
		defer close(events)
		for {
			hdr, body, err := protocol.ReadMessage(c.conn)
			if err != nil {
				return
			}
			if hdr.Type != protocol.MsgEventNotice {
				continue
			}
			notice, err := protocol.DecodeEventNotice(body)
			if err != nil {
				return
			}
			select {
			case events <- json.RawMessage(notice.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()
	return events, nil
}
