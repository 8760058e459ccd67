package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session identifies one IPC client across its connection lifetime.
// Command traffic is request/reply, so no replay queue is kept; the
// session carries identity, the client name from the handshake, and a
// per-connection sequence counter for outgoing frames.
type Session struct {
	id uuid.UUID

	mu         sync.Mutex
	clientName string
	created    time.Time
	lastSeen   time.Time
	nextSeq    uint64
	closed     bool
}

func NewSession(id uuid.UUID) *Session {
	now := time.Now()
	return &Session{id: id, created: now, lastSeen: now}
}

func (s *Session) ID() uuid.UUID { return s.id }

// WireID is the session id in the frame-header shape.
func (s *Session) WireID() [16]byte { return [16]byte(s.id) }

func (s *Session) ClientName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientName
}

func (s *Session) setClientName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientName = name
}

// NextSequence hands out the next outgoing frame sequence number.
func (s *Session) NextSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// Touch records activity for idle accounting.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
