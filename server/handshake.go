package server

import (
	"errors"
	"io"

	"tilewm/protocol"
)

var errUnexpectedMessage = errors.New("server: unexpected message type")

// ServerName is announced in the Welcome frame.
const ServerName = "tilewm-server"

// handleHandshake performs the initial client/server negotiation: the
// client opens with Hello, the server allocates a session and answers
// with Welcome carrying the session id.
func handleHandshake(rw io.ReadWriter, mgr *Manager) (*Session, error) {
	hdr, payload, err := protocol.ReadMessage(rw)
	if err != nil {
		return nil, err
	}
	if hdr.Type != protocol.MsgHello {
		return nil, errUnexpectedMessage
	}
	hello, err := protocol.DecodeHello(payload)
	if err != nil {
		return nil, err
	}

	session := mgr.NewSession()
	session.setClientName(hello.ClientName)

	welcomePayload, err := protocol.EncodeWelcome(protocol.Welcome{
		SessionID:  session.WireID(),
		ServerName: ServerName,
	})
	if err != nil {
		return nil, err
	}
	welcomeHeader := protocol.Header{
		Version:   protocol.Version,
		Type:      protocol.MsgWelcome,
		Flags:     protocol.FlagChecksum,
		SessionID: session.WireID(),
		Sequence:  session.NextSequence(),
	}
	if err := protocol.WriteMessage(rw, welcomeHeader, welcomePayload); err != nil {
		return nil, err
	}
	return session, nil
}
