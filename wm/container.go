// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/container.go
// Summary: Container node representation for the layout tree.
// Usage: Shared by the tree, layout engine, focus and workspace managers.

package wm

import "github.com/google/uuid"

// NodeID identifies a container in the tree arena. IDs are assigned
// monotonically and never reused, so a stale id simply fails lookup.
type NodeID uint64

// Kind is the closed set of container kinds. All per-kind behavior is
// dispatched by exhaustive switch, never by embedding.
type Kind uint8

const (
	KindOutput Kind = iota
	KindWorkspace
	KindSplit
	KindView
)

func (k Kind) String() string {
	switch k {
	case KindOutput:
		return "output"
	case KindWorkspace:
		return "workspace"
	case KindSplit:
		return "split"
	case KindView:
		return "view"
	}
	return "unknown"
}

// Orientation selects the axis a split lays its children along.
// Horizontal splits produce columns (children advance along X),
// vertical splits produce rows.
type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	}
	return "unknown"
}

// axis reports the orientation a directional move operates on.
func (d Direction) axis() Orientation {
	if d == DirUp || d == DirDown {
		return Vertical
	}
	return Horizontal
}

// forward reports whether the direction advances in child order
// (right within a horizontal split, down within a vertical one).
func (d Direction) forward() bool {
	return d == DirRight || d == DirDown
}

// Rect is an integer rectangle in output-local pixel space.
type Rect struct {
	X, Y, W, H int
}

// Inset shrinks the rectangle by n pixels on every side, clamping the
// size at zero.
func (r Rect) Inset(n int) Rect {
	out := Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	return out
}

func (r Rect) centerX() int { return r.X + r.W/2 }
func (r Rect) centerY() int { return r.Y + r.H/2 }

// Container is a single node in the layout tree. Only the fields for
// its Kind are meaningful; the rest stay at their zero values. Nodes
// hold no parent pointer; the tree keeps a separate parent index.
type Container struct {
	ID   NodeID
	Kind Kind

	// Outputs and workspaces carry a user-visible name.
	Name string

	// Outputs: the currently shown workspace.
	Active NodeID

	// Splits: axis, ordered children and their size ratios. Ratios are
	// positive and sum to 1.0 within ratioTolerance.
	Orient   Orientation
	Children []NodeID
	Ratios   []float64

	// Views: the display collaborator's surface identity.
	Surface uuid.UUID

	// Last geometry assigned by the layout engine. For outputs this is
	// the full output rectangle.
	Rect Rect
}

// ViewGeometry is one rectangle handed to the rendering collaborator.
type ViewGeometry struct {
	View    NodeID
	Surface uuid.UUID
	X       int
	Y       int
	Width   int
	Height  int
}
