// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/tree.go
// Summary: The container tree: arena storage and all structural mutations
//          (insert, remove, split, move, resize) with auto-collapse.
// Usage: Owned by the engine loop; mutated only through the dispatcher.

package wm

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

const (
	// DefaultMinRatio is the smallest share a split child may hold.
	DefaultMinRatio = 0.05

	// DefaultResizeStep is the ratio delta applied per resize command
	// when the command carries no explicit amount.
	DefaultResizeStep = 0.05

	// ratioTolerance bounds acceptable floating drift in ratio sums.
	ratioTolerance = 1e-6
)

// Tree is the arena of containers. Children reference parents only
// through the side index, never through pointers, so the structure
// stays strictly tree-shaped.
type Tree struct {
	nodes   map[NodeID]*Container
	parents map[NodeID]NodeID
	outputs []NodeID
	nextID  NodeID

	minRatio float64
}

func NewTree(minRatio float64) *Tree {
	if minRatio <= 0 {
		minRatio = DefaultMinRatio
	}
	return &Tree{
		nodes:    make(map[NodeID]*Container),
		parents:  make(map[NodeID]NodeID),
		minRatio: minRatio,
	}
}

func (t *Tree) alloc(kind Kind) *Container {
	t.nextID++
	c := &Container{ID: t.nextID, Kind: kind}
	t.nodes[c.ID] = c
	return c
}

// Node returns the container for id, or nil if the id is stale.
func (t *Tree) Node(id NodeID) *Container {
	return t.nodes[id]
}

// Parent returns the parent id of id, or zero for roots and stale ids.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.parents[id]
}

// Outputs returns output ids in registration order.
func (t *Tree) Outputs() []NodeID {
	out := make([]NodeID, len(t.outputs))
	copy(out, t.outputs)
	return out
}

// MinRatio reports the configured minimum split share.
func (t *Tree) MinRatio() float64 { return t.minRatio }

// AddOutput registers a physical display. Workspaces are created
// lazily on first reference, so a fresh output starts with none.
func (t *Tree) AddOutput(name string, rect Rect) NodeID {
	o := t.alloc(KindOutput)
	o.Name = name
	o.Rect = rect
	t.outputs = append(t.outputs, o.ID)
	return o.ID
}

// RemoveOutput drops an output and its whole subtree. Mirrors the
// display collaborator unplugging a monitor.
func (t *Tree) RemoveOutput(id NodeID) error {
	o := t.nodes[id]
	if o == nil || o.Kind != KindOutput {
		return fmt.Errorf("%w: output %d", ErrInvalidTarget, id)
	}
	t.freeSubtree(id)
	for i, oid := range t.outputs {
		if oid == id {
			t.outputs = append(t.outputs[:i], t.outputs[i+1:]...)
			break
		}
	}
	return nil
}

// AddWorkspace creates a named workspace under output with an empty
// horizontal root split. The root split is exempt from auto-collapse.
func (t *Tree) AddWorkspace(output NodeID, name string) (NodeID, error) {
	o := t.nodes[output]
	if o == nil || o.Kind != KindOutput {
		return 0, fmt.Errorf("%w: output %d", ErrInvalidTarget, output)
	}
	ws := t.alloc(KindWorkspace)
	ws.Name = name
	root := t.alloc(KindSplit)
	root.Orient = Horizontal
	ws.Children = []NodeID{root.ID}
	ws.Ratios = []float64{1.0}
	t.parents[root.ID] = ws.ID
	o.Children = append(o.Children, ws.ID)
	t.parents[ws.ID] = o.ID
	if o.Active == 0 {
		o.Active = ws.ID
	}
	return ws.ID, nil
}

// WorkspaceRoot returns the root split of a workspace.
func (t *Tree) WorkspaceRoot(ws NodeID) NodeID {
	w := t.nodes[ws]
	if w == nil || w.Kind != KindWorkspace || len(w.Children) == 0 {
		return 0
	}
	return w.Children[0]
}

// WorkspaceOf walks up from id to its enclosing workspace.
func (t *Tree) WorkspaceOf(id NodeID) NodeID {
	for id != 0 {
		if c := t.nodes[id]; c != nil && c.Kind == KindWorkspace {
			return id
		}
		id = t.parents[id]
	}
	return 0
}

// OutputOf walks up from id to its enclosing output.
func (t *Tree) OutputOf(id NodeID) NodeID {
	for id != 0 {
		if c := t.nodes[id]; c != nil && c.Kind == KindOutput {
			return id
		}
		id = t.parents[id]
	}
	return 0
}

// ViewsUnder collects view ids in tree order beneath id.
func (t *Tree) ViewsUnder(id NodeID) []NodeID {
	var out []NodeID
	var walk func(NodeID)
	walk = func(n NodeID) {
		c := t.nodes[n]
		if c == nil {
			return
		}
		if c.Kind == KindView {
			out = append(out, n)
			return
		}
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(id)
	return out
}

// InsertView appends a new leaf as the last child of the given split,
// assigning it an equal share and scaling the siblings down to make
// room. A workspace target resolves to its root split.
func (t *Tree) InsertView(parent NodeID, surface uuid.UUID) (NodeID, error) {
	p := t.nodes[parent]
	if p == nil {
		return 0, fmt.Errorf("%w: parent %d", ErrInvalidTarget, parent)
	}
	if p.Kind == KindWorkspace {
		parent = t.WorkspaceRoot(parent)
		p = t.nodes[parent]
	}
	if p == nil || p.Kind != KindSplit {
		return 0, fmt.Errorf("%w: node %d cannot hold views", ErrInvalidTarget, parent)
	}
	v := t.alloc(KindView)
	v.Surface = surface
	t.insertChild(parent, v.ID, len(p.Children))
	return v.ID, nil
}

// insertChild places child at index idx of split, giving it 1/n of the
// split and scaling existing ratios by (n-1)/n.
func (t *Tree) insertChild(split, child NodeID, idx int) {
	p := t.nodes[split]
	n := float64(len(p.Children) + 1)
	for i := range p.Ratios {
		p.Ratios[i] *= (n - 1) / n
	}
	p.Children = append(p.Children, 0)
	copy(p.Children[idx+1:], p.Children[idx:])
	p.Children[idx] = child
	p.Ratios = append(p.Ratios, 0)
	copy(p.Ratios[idx+1:], p.Ratios[idx:])
	p.Ratios[idx] = 1 / n
	t.parents[child] = split
}

// detachChild removes child from its parent split, renormalizing the
// remaining ratios. The child stays allocated with no parent.
func (t *Tree) detachChild(child NodeID) {
	parent := t.parents[child]
	p := t.nodes[parent]
	idx := t.childIndex(parent, child)
	if idx < 0 {
		return
	}
	p.Children = append(p.Children[:idx], p.Children[idx+1:]...)
	p.Ratios = append(p.Ratios[:idx], p.Ratios[idx+1:]...)
	renormalize(p.Ratios)
	delete(t.parents, child)
}

func (t *Tree) childIndex(parent, child NodeID) int {
	p := t.nodes[parent]
	if p == nil {
		return -1
	}
	for i, c := range p.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// RemoveView detaches the leaf and collapses any ancestor splits the
// detach leaves degenerate. Focus reassignment is the focus manager's
// concern; callers run it after a successful removal.
func (t *Tree) RemoveView(id NodeID) error {
	v := t.nodes[id]
	if v == nil || v.Kind != KindView {
		return fmt.Errorf("%w: view %d", ErrInvalidTarget, id)
	}
	parent := t.parents[id]
	t.detachChild(id)
	delete(t.nodes, id)
	t.collapse(parent)
	return nil
}

// collapse applies the auto-collapse rule upward from split: a split
// left with no children is removed, a split left with one child is
// replaced by that child in the same ratio slot. Workspace roots are
// exempt so a workspace may sit visibly empty.
func (t *Tree) collapse(split NodeID) {
	for split != 0 {
		s := t.nodes[split]
		if s == nil || s.Kind != KindSplit {
			return
		}
		parent := t.parents[split]
		if p := t.nodes[parent]; p == nil || p.Kind == KindWorkspace {
			return
		}
		switch len(s.Children) {
		case 0:
			t.detachChild(split)
			delete(t.nodes, split)
			split = parent
		case 1:
			child := s.Children[0]
			p := t.nodes[parent]
			idx := t.childIndex(parent, split)
			p.Children[idx] = child
			t.parents[child] = parent
			delete(t.parents, split)
			delete(t.nodes, split)
			return
		default:
			return
		}
	}
}

// freeSubtree drops id and everything beneath it from the arena.
func (t *Tree) freeSubtree(id NodeID) {
	c := t.nodes[id]
	if c == nil {
		return
	}
	for _, ch := range c.Children {
		t.freeSubtree(ch)
	}
	delete(t.parents, id)
	delete(t.nodes, id)
}

// Split wraps the target in a new split of the requested orientation.
// The new split holds only the target (ratio 1.0) and becomes the
// insertion point for the next mapped view.
func (t *Tree) Split(id NodeID, o Orientation) (NodeID, error) {
	c := t.nodes[id]
	if c == nil {
		return 0, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	switch c.Kind {
	case KindView, KindSplit:
	default:
		return 0, fmt.Errorf("%w: cannot split %s", ErrInvalidTarget, c.Kind)
	}
	parent := t.parents[id]
	p := t.nodes[parent]
	if p == nil {
		return 0, fmt.Errorf("%w: %d has no parent", ErrInvalidTarget, id)
	}
	s := t.alloc(KindSplit)
	s.Orient = o
	idx := t.childIndex(parent, id)
	p.Children[idx] = s.ID
	t.parents[s.ID] = parent
	s.Children = []NodeID{id}
	s.Ratios = []float64{1.0}
	t.parents[id] = s.ID
	return s.ID, nil
}

// Move relocates a node to sit beside its neighbor in the given
// direction. Within a split of matching axis the node swaps slots with
// an adjacent view sibling, ratios traveling with their child; an
// adjacent split is entered at its near edge instead. When the direct
// parent runs along the other axis the nearest matching-axis ancestor
// is searched and the node re-inserted next to the adjacent subtree
// there. At the workspace edge the tree is left unchanged and
// ErrNoNeighbor is returned.
func (t *Tree) Move(id NodeID, dir Direction) error {
	c := t.nodes[id]
	if c == nil || (c.Kind != KindView && c.Kind != KindSplit) {
		return fmt.Errorf("%w: %d", ErrInvalidTarget, id)
	}
	axis := dir.axis()
	child := id
	for {
		parent := t.parents[child]
		p := t.nodes[parent]
		if p == nil || p.Kind != KindSplit {
			return fmt.Errorf("%w: %s from %d", ErrNoNeighbor, dir, id)
		}
		idx := t.childIndex(parent, child)
		if p.Orient == axis {
			nidx := idx - 1
			if dir.forward() {
				nidx = idx + 1
			}
			if nidx >= 0 && nidx < len(p.Children) {
				neighbor := p.Children[nidx]
				if child == id && t.nodes[neighbor].Kind != KindSplit {
					// Adjacent view in the same split: swap slots.
					p.Children[idx], p.Children[nidx] = p.Children[nidx], p.Children[idx]
					p.Ratios[idx], p.Ratios[nidx] = p.Ratios[nidx], p.Ratios[idx]
					return nil
				}
				return t.moveInto(id, parent, neighbor, dir)
			}
		}
		child = parent
	}
}

// moveInto detaches id and re-inserts it beside the subtree `beside`
// inside ancestor, or at the near edge of `beside` when it is itself a
// split. The origin chain is collapsed after the insert so index math
// never runs on freed slots.
func (t *Tree) moveInto(id, ancestor, beside NodeID, dir Direction) error {
	origin := t.parents[id]
	t.detachChild(id)

	b := t.nodes[beside]
	if b.Kind == KindSplit {
		idx := len(b.Children)
		if dir.forward() {
			idx = 0
		}
		t.insertChild(beside, id, idx)
	} else {
		idx := t.childIndex(ancestor, beside)
		if !dir.forward() {
			idx++
		}
		t.insertChild(ancestor, id, idx)
	}
	t.collapse(origin)
	return nil
}

// Resize grows or shrinks the target's share by delta, scaling the
// siblings proportionally over the remainder. Validation runs before
// any ratio is written: a sibling landing below the minimum, or a
// target with no siblings, rejects the whole command.
func (t *Tree) Resize(id NodeID, delta float64) error {
	c := t.nodes[id]
	if c == nil || (c.Kind != KindView && c.Kind != KindSplit) {
		return fmt.Errorf("%w: %d", ErrInvalidTarget, id)
	}
	parent := t.parents[id]
	p := t.nodes[parent]
	if p == nil || p.Kind != KindSplit {
		return fmt.Errorf("%w: %d has no siblings", ErrResizeRejected, id)
	}
	idx := t.childIndex(parent, id)
	n := len(p.Children)
	if n < 2 {
		return fmt.Errorf("%w: %d has no siblings", ErrResizeRejected, id)
	}
	r := p.Ratios[idx]
	target := r + delta
	if target < t.minRatio {
		return fmt.Errorf("%w: target share %.3f below minimum", ErrResizeRejected, target)
	}
	rest := 1 - r
	scale := (1 - target) / rest
	for i, s := range p.Ratios {
		if i == idx {
			continue
		}
		if s*scale < t.minRatio {
			return fmt.Errorf("%w: sibling share %.3f below minimum", ErrResizeRejected, s*scale)
		}
	}
	for i := range p.Ratios {
		if i == idx {
			continue
		}
		p.Ratios[i] *= scale
	}
	p.Ratios[idx] = target
	return nil
}

// renormalize rescales ratios in place so they sum to 1.0. A sum of
// zero falls back to equal shares.
func renormalize(ratios []float64) {
	if len(ratios) == 0 {
		return
	}
	sum := 0.0
	for _, r := range ratios {
		sum += r
	}
	if sum <= 0 {
		eq := 1 / float64(len(ratios))
		for i := range ratios {
			ratios[i] = eq
		}
		return
	}
	for i := range ratios {
		ratios[i] /= sum
	}
}

// CheckInvariants verifies ratio sums and parent-index consistency
// over the whole arena. The engine runs it after every mutation in
// defense of drift; a failure triggers renormalization, not a crash.
func (t *Tree) CheckInvariants() error {
	for id, c := range t.nodes {
		if len(c.Children) != 0 && c.Kind == KindView {
			return fmt.Errorf("view %d has children", id)
		}
		for _, ch := range c.Children {
			if t.parents[ch] != id {
				return fmt.Errorf("parent index of %d does not point at %d", ch, id)
			}
			if t.nodes[ch] == nil {
				return fmt.Errorf("child %d of %d not in arena", ch, id)
			}
		}
		if c.Kind != KindSplit && c.Kind != KindWorkspace {
			continue
		}
		if len(c.Children) != len(c.Ratios) {
			return fmt.Errorf("node %d: %d children, %d ratios", id, len(c.Children), len(c.Ratios))
		}
		if len(c.Ratios) == 0 {
			continue
		}
		sum := 0.0
		for _, r := range c.Ratios {
			if r <= 0 {
				return fmt.Errorf("node %d: non-positive ratio %f", id, r)
			}
			sum += r
		}
		if math.Abs(sum-1.0) > ratioTolerance {
			return fmt.Errorf("node %d: ratio sum %f", id, sum)
		}
	}
	return nil
}

// RenormalizeAll repairs ratio drift across every split. Recovery path
// for a failed invariant check.
func (t *Tree) RenormalizeAll() {
	for _, c := range t.nodes {
		if c.Kind == KindSplit || c.Kind == KindWorkspace {
			renormalize(c.Ratios)
		}
	}
}
