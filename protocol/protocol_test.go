// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/protocol_test.go
// Summary: Exercises frame framing, checksums and rejection paths.
// Usage: Executed during `go test` to guard against regressions.
// Notes: Keep changes backward-compatible; any additions require coordinated version bumps.

package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var session [16]byte
	copy(session[:], []byte("session-123456"))

	header := Header{
		Version:   Version,
		Type:      MsgCommandRequest,
		Flags:     FlagChecksum,
		Sequence:  42,
		SessionID: session,
	}
	payload := []byte("focus left")

	buf := &bytes.Buffer{}
	if err := WriteMessage(buf, header, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	gotHeader, gotPayload, err := ReadMessage(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if gotHeader.Type != header.Type || gotHeader.Sequence != header.Sequence {
		t.Fatalf("header mismatch: %+v vs %+v", gotHeader, header)
	}
	if gotHeader.SessionID != session {
		t.Fatalf("session mismatch: %v vs %v", gotHeader.SessionID, session)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("payload mismatch: %q vs %q", gotPayload, payload)
	}
}

func TestEmptyPayloadRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteMessage(buf, Header{Version: Version, Type: MsgSubscribe, Flags: FlagChecksum}, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	hdr, payload, err := ReadMessage(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if hdr.Type != MsgSubscribe || len(payload) != 0 {
		t.Fatalf("got type %d payload %q", hdr.Type, payload)
	}
}

func TestReadMessageInvalidMagic(t *testing.T) {
	data := make([]byte, headerSize)
	buf := bytes.NewReader(data)
	if _, _, err := ReadMessage(buf); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestReadMessageUnsupportedVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteMessage(buf, Header{Version: Version + 1, Type: MsgPing}, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	raw := buf.Bytes()
	raw[4] = Version + 1
	if _, _, err := ReadMessage(bytes.NewReader(raw)); !errors.Is(err, ErrUnsupportedVer) {
		t.Fatalf("expected ErrUnsupportedVer, got %v", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	header := Header{Version: Version, Type: MsgPing, Flags: FlagChecksum}
	payload := []byte("ping")
	buf := &bytes.Buffer{}
	if err := WriteMessage(buf, header, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF // corrupt the payload tail
	if _, _, err := ReadMessage(bytes.NewReader(raw)); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestTruncatedPayload(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteMessage(buf, Header{Version: Version, Type: MsgEventNotice}, []byte("abcdef")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	raw := buf.Bytes()[:headerSize+3]
	if _, _, err := ReadMessage(bytes.NewReader(raw)); !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestOversizedPayloadRejected(t *testing.T) {
	raw := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(raw[0:], magic)
	raw[4] = Version
	binary.LittleEndian.PutUint32(raw[32:36], MaxPayload+1)
	if _, _, err := ReadMessage(bytes.NewReader(raw)); !errors.Is(err, ErrOversizedPayload) {
		t.Fatalf("expected ErrOversizedPayload, got %v", err)
	}
}
