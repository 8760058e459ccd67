// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/snapshot.go
// Summary: JSON-shaped tree snapshots for the get_tree query and the
//          server's persistence store, plus workspace restore.

package wm

import (
	"fmt"

	"github.com/google/uuid"
)

// SnapshotNode is the serialized form of one container. Children are
// nested, so a snapshot is self-contained and id-stable only within
// itself.
type SnapshotNode struct {
	ID          NodeID         `json:"id"`
	Kind        string         `json:"kind"`
	Name        string         `json:"name,omitempty"`
	Orientation string         `json:"orientation,omitempty"`
	Surface     string         `json:"surface,omitempty"`
	Ratios      []float64      `json:"ratios,omitempty"`
	X           int            `json:"x"`
	Y           int            `json:"y"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Focused     bool           `json:"focused,omitempty"`
	Active      bool           `json:"active,omitempty"`
	Children    []SnapshotNode `json:"children,omitempty"`
}

// Snapshot is the full tree as seen at one commit point.
type Snapshot struct {
	Outputs []SnapshotNode `json:"outputs"`
}

// Snapshot serializes the whole tree. Pass a focus manager to mark the
// focused view per output; nil leaves the flags unset.
func (t *Tree) Snapshot(focus *FocusManager) *Snapshot {
	snap := &Snapshot{}
	for _, oid := range t.outputs {
		focused := NodeID(0)
		if focus != nil {
			focused = focus.Focused(oid)
		}
		snap.Outputs = append(snap.Outputs, t.snapshotNode(oid, focused))
	}
	return snap
}

func (t *Tree) snapshotNode(id, focused NodeID) SnapshotNode {
	c := t.nodes[id]
	n := SnapshotNode{
		ID:     id,
		Kind:   c.Kind.String(),
		Name:   c.Name,
		X:      c.Rect.X,
		Y:      c.Rect.Y,
		Width:  c.Rect.W,
		Height: c.Rect.H,
	}
	switch c.Kind {
	case KindSplit:
		n.Orientation = c.Orient.String()
		n.Ratios = append([]float64(nil), c.Ratios...)
	case KindView:
		n.Surface = c.Surface.String()
		n.Focused = id == focused
	}
	for _, ch := range c.Children {
		child := t.snapshotNode(ch, focused)
		if c.Kind == KindOutput {
			child.Active = ch == c.Active
		}
		n.Children = append(n.Children, child)
	}
	return n
}

// RestoreOutput rebuilds the workspaces recorded for one output onto
// the given live output: their names, their root orientations and
// which one was active. Views are not recreated (the surfaces they
// wrapped are gone), and without views the inner splits have nothing
// to hold, so only the roots come back.
func (t *Tree) RestoreOutput(output NodeID, snap SnapshotNode) error {
	o := t.nodes[output]
	if o == nil || o.Kind != KindOutput {
		return fmt.Errorf("%w: output %d", ErrInvalidTarget, output)
	}
	if snap.Kind != KindOutput.String() {
		return fmt.Errorf("%w: snapshot node is %q", ErrMalformedCommand, snap.Kind)
	}
	var activeName string
	for _, wsSnap := range snap.Children {
		if wsSnap.Kind != KindWorkspace.String() || t.hasWorkspace(output, wsSnap.Name) {
			continue
		}
		ws, err := t.AddWorkspace(output, wsSnap.Name)
		if err != nil {
			return err
		}
		if wsSnap.Active {
			activeName = wsSnap.Name
		}
		if len(wsSnap.Children) > 0 {
			root := t.WorkspaceRoot(ws)
			t.nodes[root].Orient = parseOrientation(wsSnap.Children[0].Orientation)
		}
	}
	if activeName != "" {
		for _, ws := range o.Children {
			if t.nodes[ws].Name == activeName {
				o.Active = ws
			}
		}
	}
	return nil
}

func (t *Tree) hasWorkspace(output NodeID, name string) bool {
	o := t.nodes[output]
	if o == nil {
		return false
	}
	for _, ws := range o.Children {
		if c := t.nodes[ws]; c != nil && c.Name == name {
			return true
		}
	}
	return false
}

func parseOrientation(s string) Orientation {
	if s == Vertical.String() {
		return Vertical
	}
	return Horizontal
}

// ParseSurface validates a surface id carried over IPC.
func ParseSurface(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad surface id %q", ErrMalformedCommand, s)
	}
	return id, nil
}
