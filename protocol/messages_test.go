// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/messages_test.go
// Summary: Exercises message codecs and their malformed-input paths.
// Usage: Executed during `go test` to guard against regressions.
// Notes: Keep changes backward-compatible; any additions require coordinated version bumps.

package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestHelloRoundTrip(t *testing.T) {
	var id [16]byte
	copy(id[:], []byte("client-abcdefghi"))
	hello := Hello{ClientID: id, ClientName: "tilectl"}
	payload, err := EncodeHello(hello)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeHello(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.ClientID != id || decoded.ClientName != hello.ClientName {
		t.Fatalf("mismatch: %#v vs %#v", decoded, hello)
	}
}

func TestCommandReplyRoundTrip(t *testing.T) {
	reply := CommandReply{
		Code:    CodeNoNeighbor,
		Error:   "no neighbor in direction: focus left",
		Payload: []byte(`{"outputs":[]}`),
	}
	payload, err := EncodeCommandReply(reply)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeCommandReply(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Code != reply.Code || decoded.Error != reply.Error {
		t.Fatalf("mismatch: %#v vs %#v", decoded, reply)
	}
	if !bytes.Equal(decoded.Payload, reply.Payload) {
		t.Fatalf("payload mismatch: %q vs %q", decoded.Payload, reply.Payload)
	}
}

func TestCommandReplyEmptyPayload(t *testing.T) {
	payload, err := EncodeCommandReply(CommandReply{Code: CodeOK})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeCommandReply(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Code != CodeOK || decoded.Error != "" || decoded.Payload != nil {
		t.Fatalf("decoded = %#v", decoded)
	}
}

func TestCommandRequestRoundTrip(t *testing.T) {
	payload, err := EncodeCommandRequest(CommandRequest{Command: "move to-workspace 3"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeCommandRequest(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Command != "move to-workspace 3" {
		t.Fatalf("decoded = %#v", decoded)
	}
}

func TestEventNoticeRoundTrip(t *testing.T) {
	raw := []byte(`{"kind":"focus_changed","ids":[7]}`)
	payload, err := EncodeEventNotice(EventNotice{Payload: raw})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeEventNotice(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(decoded.Payload, raw) {
		t.Fatalf("payload mismatch: %q", decoded.Payload)
	}
}

func TestPingPongRoundTrip(t *testing.T) {
	payload, err := EncodePing(Ping{Timestamp: 1234567890})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	ping, err := DecodePing(payload)
	if err != nil || ping.Timestamp != 1234567890 {
		t.Fatalf("decoded %+v, err %v", ping, err)
	}
	payload, err = EncodePong(Pong{Timestamp: -7})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	pong, err := DecodePong(payload)
	if err != nil || pong.Timestamp != -7 {
		t.Fatalf("decoded %+v, err %v", pong, err)
	}
}

func TestErrorFrameRoundTrip(t *testing.T) {
	frame := ErrorFrame{Code: CodeMalformedCommand, Message: "unknown command \"frobnicate\""}
	payload, err := EncodeErrorFrame(frame)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeErrorFrame(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != frame {
		t.Fatalf("mismatch: %#v vs %#v", decoded, frame)
	}
}

func TestEncodeStringTooLong(t *testing.T) {
	long := strings.Repeat("x", 0x10000)
	if _, err := EncodeCommandRequest(CommandRequest{Command: long}); err == nil {
		t.Fatalf("expected length error for 64KB command")
	}
}

func TestDecodeShortPayloads(t *testing.T) {
	if _, err := DecodeHello([]byte("short")); err == nil {
		t.Fatalf("expected error for truncated hello")
	}
	if _, err := DecodeCommandReply([]byte{1}); err == nil {
		t.Fatalf("expected error for truncated reply")
	}
	if _, err := DecodePing([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for truncated ping")
	}
	if _, err := DecodeEventNotice([]byte{0, 0}); err == nil {
		t.Fatalf("expected error for truncated notice")
	}
}
