package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/log"

	"tilewm/protocol"
	"tilewm/wm"
)

// connection serves one IPC client after the handshake. Reads happen
// on the serve goroutine; event delivery writes from the forwarder
// goroutine, so all writes go through writeMu.
type connection struct {
	conn    net.Conn
	session *Session
	engine  *wm.Engine
	bus     *wm.Bus
	log     *log.Logger

	writeMu sync.Mutex
	sub     *wm.Subscription
	subDone chan struct{}
}

func newConnection(conn net.Conn, session *Session, engine *wm.Engine, bus *wm.Bus, logger *log.Logger) *connection {
	return &connection{conn: conn, session: session, engine: engine, bus: bus, log: logger}
}

// serve runs the read loop until the client disconnects. ctx is bound
// to the connection: commands still queued when the client goes away
// are dropped by the engine at dequeue.
func (c *connection) serve(ctx context.Context) error {
	defer c.stopEvents()
	for {
		hdr, payload, err := protocol.ReadMessage(c.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if errors.Is(err, protocol.ErrInvalidMagic) || errors.Is(err, protocol.ErrChecksumMismatch) {
				// Unframeable garbage: tell the peer and drop the link.
				_ = c.writeError(protocol.CodeInternal, err.Error())
				return err
			}
			return err
		}
		c.session.Touch()

		switch hdr.Type {
		case protocol.MsgCommandRequest:
			req, err := protocol.DecodeCommandRequest(payload)
			if err != nil {
				return err
			}
			if err := c.handleCommand(ctx, req.Command); err != nil {
				return err
			}
		case protocol.MsgSubscribe:
			sub, err := protocol.DecodeSubscribe(payload)
			if err != nil {
				return err
			}
			c.startEvents(sub.ClientName)
		case protocol.MsgPing:
			ping, err := protocol.DecodePing(payload)
			if err != nil {
				return err
			}
			pong, err := protocol.EncodePong(protocol.Pong{Timestamp: ping.Timestamp})
			if err != nil {
				return err
			}
			if err := c.write(protocol.MsgPong, pong); err != nil {
				return err
			}
		default:
			if err := c.writeError(protocol.CodeMalformedCommand, "unexpected message type"); err != nil {
				return err
			}
		}
	}
}

// handleCommand parses, applies and replies. Command failures are
// replies, not connection errors: the link stays open.
func (c *connection) handleCommand(ctx context.Context, text string) error {
	cmd, err := wm.ParseCommand(text)
	if err != nil {
		return c.writeReply(protocol.CommandReply{Code: commandCode(err), Error: err.Error()})
	}
	res, err := c.engine.Submit(ctx, cmd)
	if err != nil {
		c.log.Debugf("session %s: %q rejected: %v", c.session.ID(), text, err)
		return c.writeReply(protocol.CommandReply{Code: commandCode(err), Error: err.Error()})
	}
	reply := protocol.CommandReply{Code: protocol.CodeOK}
	switch {
	case res.Snapshot != nil:
		raw, err := json.Marshal(res.Snapshot)
		if err != nil {
			return c.writeReply(protocol.CommandReply{Code: protocol.CodeInternal, Error: err.Error()})
		}
		reply.Payload = raw
	case res.Entry != nil:
		raw, err := json.Marshal(res.Entry)
		if err != nil {
			return c.writeReply(protocol.CommandReply{Code: protocol.CodeInternal, Error: err.Error()})
		}
		reply.Payload = raw
	}
	return c.writeReply(reply)
}

// startEvents attaches a bus subscription and forwards change records
// as EventNotice frames until the connection closes.
func (c *connection) startEvents(name string) {
	if c.sub != nil {
		return
	}
	c.sub = c.bus.Subscribe()
	c.subDone = make(chan struct{})
	c.log.Debugf("session %s: subscribed (%s)", c.session.ID(), name)
	go func() {
		defer close(c.subDone)
		for change := range c.sub.C() {
			raw, err := json.Marshal(change)
			if err != nil {
				continue
			}
			notice, err := protocol.EncodeEventNotice(protocol.EventNotice{Payload: raw})
			if err != nil {
				continue
			}
			if err := c.write(protocol.MsgEventNotice, notice); err != nil {
				return
			}
		}
	}()
}

func (c *connection) stopEvents() {
	if c.sub == nil {
		return
	}
	c.sub.Close()
	<-c.subDone
	if dropped := c.sub.Dropped(); dropped > 0 {
		c.log.Warnf("session %s: dropped %d event records", c.session.ID(), dropped)
	}
	c.sub = nil
}

func (c *connection) write(t protocol.MessageType, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	hdr := protocol.Header{
		Version:   protocol.Version,
		Type:      t,
		Flags:     protocol.FlagChecksum,
		SessionID: c.session.WireID(),
		Sequence:  c.session.NextSequence(),
	}
	return protocol.WriteMessage(c.conn, hdr, payload)
}

func (c *connection) writeReply(reply protocol.CommandReply) error {
	payload, err := protocol.EncodeCommandReply(reply)
	if err != nil {
		return err
	}
	return c.write(protocol.MsgCommandReply, payload)
}

func (c *connection) writeError(code uint16, msg string) error {
	payload, err := protocol.EncodeErrorFrame(protocol.ErrorFrame{Code: code, Message: msg})
	if err != nil {
		return err
	}
	return c.write(protocol.MsgError, payload)
}

// commandCode maps engine rejections to wire codes.
func commandCode(err error) uint16 {
	switch {
	case errors.Is(err, wm.ErrMalformedCommand):
		return protocol.CodeMalformedCommand
	case errors.Is(err, wm.ErrInvalidTarget), errors.Is(err, wm.ErrNotFound):
		return protocol.CodeInvalidTarget
	case errors.Is(err, wm.ErrNoNeighbor):
		return protocol.CodeNoNeighbor
	case errors.Is(err, wm.ErrResizeRejected):
		return protocol.CodeResizeRejected
	default:
		return protocol.CodeInternal
	}
}
