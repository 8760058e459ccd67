package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var (
	errStringTooLong = errors.New("protocol: string exceeds 64KB limit")
	errPayloadShort  = errors.New("protocol: payload too short")
	errBlobTooLong   = errors.New("protocol: blob exceeds frame limit")
)

// Error codes carried by CommandReply and ErrorFrame. They mirror the
// engine's rejection reasons so clients can match without parsing text.
const (
	CodeOK uint16 = iota
	CodeMalformedCommand
	CodeInvalidTarget
	CodeNoNeighbor
	CodeResizeRejected
	CodeInternal
)

// Hello initiates the handshake from client to server.
type Hello struct {
	ClientID   [16]byte
	ClientName string
}

// Welcome is returned by the server acknowledging the handshake.
type Welcome struct {
	SessionID  [16]byte
	ServerName string
}

// CommandRequest carries one text-form command ("focus left",
// "workspace 2", ...). The server parses and applies it atomically.
type CommandRequest struct {
	Command string
}

// CommandReply reports the outcome. Payload holds an optional JSON
// document, e.g. the tree snapshot for get_tree.
type CommandReply struct {
	Code    uint16
	Error   string
	Payload []byte
}

// Subscribe switches the connection into event delivery; committed
// change records arrive as EventNotice frames from then on.
type Subscribe struct {
	ClientName string
}

// EventNotice delivers one committed change record as JSON.
type EventNotice struct {
	Payload []byte
}

// Ping/Pong keep the connection alive.
type Ping struct {
	Timestamp int64
}

type Pong struct {
	Timestamp int64
}

// ErrorFrame communicates protocol-level errors.
type ErrorFrame struct {
	Code    uint16
	Message string
}

func encodeString(buf *bytes.Buffer, value string) error {
	if len(value) > 0xFFFF {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.WriteString(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if uint16(len(b)) < length {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

func encodeBlob(buf *bytes.Buffer, value []byte) error {
	if len(value) > MaxPayload {
		return errBlobTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		buf.Write(value)
	}
	return nil
}

func decodeBlob(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint32(b[:4])
	b = b[4:]
	if length > MaxPayload || uint32(len(b)) < length {
		return nil, nil, errPayloadShort
	}
	if length == 0 {
		return nil, b, nil
	}
	out := make([]byte, length)
	copy(out, b[:length])
	return out, b[length:], nil
}

func EncodeHello(h Hello) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 18+len(h.ClientName)))
	buf.Write(h.ClientID[:])
	if err := encodeString(buf, h.ClientName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	if len(b) < 16 {
		return h, errPayloadShort
	}
	copy(h.ClientID[:], b[:16])
	name, _, err := decodeString(b[16:])
	if err != nil {
		return h, err
	}
	h.ClientName = name
	return h, nil
}

func EncodeWelcome(w Welcome) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 18+len(w.ServerName)))
	buf.Write(w.SessionID[:])
	if err := encodeString(buf, w.ServerName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWelcome(b []byte) (Welcome, error) {
	var w Welcome
	if len(b) < 16 {
		return w, errPayloadShort
	}
	copy(w.SessionID[:], b[:16])
	name, _, err := decodeString(b[16:])
	if err != nil {
		return w, err
	}
	w.ServerName = name
	return w, nil
}

func EncodeCommandRequest(r CommandRequest) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(r.Command)))
	if err := encodeString(buf, r.Command); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeCommandRequest(b []byte) (CommandRequest, error) {
	var r CommandRequest
	cmd, _, err := decodeString(b)
	if err != nil {
		return r, err
	}
	r.Command = cmd
	return r, nil
}

func EncodeCommandReply(r CommandReply) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(r.Error)+len(r.Payload)))
	if err := binary.Write(buf, binary.LittleEndian, r.Code); err != nil {
		return nil, err
	}
	if err := encodeString(buf, r.Error); err != nil {
		return nil, err
	}
	if err := encodeBlob(buf, r.Payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeCommandReply(b []byte) (CommandReply, error) {
	var r CommandReply
	if len(b) < 2 {
		return r, errPayloadShort
	}
	r.Code = binary.LittleEndian.Uint16(b[:2])
	msg, rest, err := decodeString(b[2:])
	if err != nil {
		return r, err
	}
	r.Error = msg
	payload, _, err := decodeBlob(rest)
	if err != nil {
		return r, err
	}
	r.Payload = payload
	return r, nil
}

func EncodeSubscribe(s Subscribe) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(s.ClientName)))
	if err := encodeString(buf, s.ClientName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeSubscribe(b []byte) (Subscribe, error) {
	var s Subscribe
	name, _, err := decodeString(b)
	if err != nil {
		return s, err
	}
	s.ClientName = name
	return s, nil
}

func EncodeEventNotice(e EventNotice) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(e.Payload)))
	if err := encodeBlob(buf, e.Payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeEventNotice(b []byte) (EventNotice, error) {
	var e EventNotice
	payload, _, err := decodeBlob(b)
	if err != nil {
		return e, err
	}
	e.Payload = payload
	return e, nil
}

func EncodePing(p Ping) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8))
	if err := binary.Write(buf, binary.LittleEndian, p.Timestamp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodePing(b []byte) (Ping, error) {
	var p Ping
	if len(b) < 8 {
		return p, errPayloadShort
	}
	p.Timestamp = int64(binary.LittleEndian.Uint64(b[:8]))
	return p, nil
}

func EncodePong(p Pong) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8))
	if err := binary.Write(buf, binary.LittleEndian, p.Timestamp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodePong(b []byte) (Pong, error) {
	var p Pong
	if len(b) < 8 {
		return p, errPayloadShort
	}
	p.Timestamp = int64(binary.LittleEndian.Uint64(b[:8]))
	return p, nil
}

func EncodeErrorFrame(e ErrorFrame) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(e.Message)))
	if err := binary.Write(buf, binary.LittleEndian, e.Code); err != nil {
		return nil, err
	}
	if err := encodeString(buf, e.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeErrorFrame(b []byte) (ErrorFrame, error) {
	var e ErrorFrame
	if len(b) < 2 {
		return e, errPayloadShort
	}
	e.Code = binary.LittleEndian.Uint16(b[:2])
	msg, _, err := decodeString(b[2:])
	if err != nil {
		return e, err
	}
	e.Message = msg
	return e, nil
}
