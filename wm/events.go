// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/events.go
// Summary: Change records and the non-blocking event bus feeding IPC
//          subscribers and the scripting collaborator.

package wm

import "sync"

// ChangeKind labels what a committed mutation altered.
type ChangeKind string

const (
	ChangeFocus     ChangeKind = "focus_changed"
	ChangeLayout    ChangeKind = "layout_changed"
	ChangeWorkspace ChangeKind = "workspace_switched"
	ChangeMapped    ChangeKind = "view_mapped"
	ChangeUnmapped  ChangeKind = "view_unmapped"
	ChangeRegistry  ChangeKind = "registry_changed"
	ChangeCustom    ChangeKind = "custom"
	ChangeQuit      ChangeKind = "quit"
)

// Change is one typed state-change record published after a mutation
// commits. Geometry is present for layout-affecting changes only.
type Change struct {
	Kind     ChangeKind     `json:"kind"`
	IDs      []NodeID       `json:"ids,omitempty"`
	Output   NodeID         `json:"output,omitempty"`
	Name     string         `json:"name,omitempty"`
	Args     []string       `json:"args,omitempty"`
	Geometry []ViewGeometry `json:"geometry,omitempty"`
}

const subscriberBuffer = 64

// Bus fans committed changes out to subscribers. Publication never
// blocks: a subscriber whose buffer is full misses the record and its
// drop counter advances. Records arrive in commit order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*Subscription
}

// Subscription is one listener's buffered feed.
type Subscription struct {
	id      int
	bus     *Bus
	ch      chan Change
	dropped uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

// Subscribe registers a new listener. The caller must drain C or
// accept drops.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &Subscription{id: b.nextID, bus: b, ch: make(chan Change, subscriberBuffer)}
	b.subs[s.id] = s
	return s
}

// Publish delivers change to every live subscriber without blocking.
func (b *Bus) Publish(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		select {
		case s.ch <- change:
		default:
			s.dropped++
		}
	}
}

// C is the subscriber's read side.
func (s *Subscription) C() <-chan Change { return s.ch }

// Dropped reports how many records this subscriber missed.
func (s *Subscription) Dropped() uint64 {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.dropped
}

// Close detaches the subscriber and closes its channel.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if _, ok := s.bus.subs[s.id]; !ok {
		return
	}
	delete(s.bus.subs, s.id)
	close(s.ch)
}
