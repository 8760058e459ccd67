// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/focus.go
// Summary: Per-output focus tracking, bounded focus history, and
//          geometric directional navigation.

package wm

// historyDepth bounds the per-output focus history stack.
const historyDepth = 16

// FocusManager tracks the single focused view per output. It reads
// tree geometry but never mutates structure.
type FocusManager struct {
	tree    *Tree
	focused map[NodeID]NodeID   // output -> view
	history map[NodeID][]NodeID // output -> previous views, newest last
}

func NewFocusManager(tree *Tree) *FocusManager {
	return &FocusManager{
		tree:    tree,
		focused: make(map[NodeID]NodeID),
		history: make(map[NodeID][]NodeID),
	}
}

// Focused returns the focused view on output, or zero when the output
// holds no views.
func (f *FocusManager) Focused(output NodeID) NodeID {
	return f.focused[output]
}

// SetFocus reassigns focus on output, pushing the previous holder onto
// the history stack.
func (f *FocusManager) SetFocus(output, view NodeID) {
	prev := f.focused[output]
	if prev == view {
		return
	}
	if prev != 0 {
		h := append(f.history[output], prev)
		if len(h) > historyDepth {
			h = h[len(h)-historyDepth:]
		}
		f.history[output] = h
	}
	f.focused[output] = view
}

// Navigate returns the view nearest to the current focus in the given
// direction, judged by rectangle centers among the views of the active
// workspace. Ties break by tree order. Zero means no neighbor; focus
// is not changed by this call.
func (f *FocusManager) Navigate(output NodeID, dir Direction) NodeID {
	cur := f.focused[output]
	if cur == 0 {
		return 0
	}
	curNode := f.tree.Node(cur)
	if curNode == nil {
		return 0
	}
	ws := f.tree.WorkspaceOf(cur)
	if ws == 0 {
		return 0
	}
	cx, cy := curNode.Rect.centerX(), curNode.Rect.centerY()

	best := NodeID(0)
	bestDist := 0
	for _, v := range f.tree.ViewsUnder(ws) {
		if v == cur {
			continue
		}
		r := f.tree.Node(v).Rect
		vx, vy := r.centerX(), r.centerY()
		var along, across int
		switch dir {
		case DirLeft:
			along, across = cx-vx, abs(cy-vy)
		case DirRight:
			along, across = vx-cx, abs(cy-vy)
		case DirUp:
			along, across = cy-vy, abs(cx-vx)
		case DirDown:
			along, across = vy-cy, abs(cx-vx)
		}
		if along <= 0 {
			continue
		}
		d := along + across
		// Strict comparison keeps the earliest candidate in tree
		// order when distances tie.
		if best == 0 || d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

// OnRemove reassigns focus after view was removed from output. The
// fallback chain: newest still-live history entry, then the first
// remaining view of the active workspace in tree order, then none.
func (f *FocusManager) OnRemove(output, view NodeID) {
	f.dropFromHistory(output, view)
	if f.focused[output] != view {
		return
	}
	o := f.tree.Node(output)
	active := NodeID(0)
	if o != nil {
		active = o.Active
	}
	h := f.history[output]
	for i := len(h) - 1; i >= 0; i-- {
		c := f.tree.Node(h[i])
		if c != nil && c.Kind == KindView && f.tree.WorkspaceOf(h[i]) == active {
			f.history[output] = h[:i]
			f.focused[output] = h[i]
			return
		}
	}
	f.history[output] = nil
	f.focused[output] = 0
	if active == 0 {
		return
	}
	if views := f.tree.ViewsUnder(active); len(views) > 0 {
		f.focused[output] = views[0]
	}
}

// OnWorkspaceShown points focus at a view of the newly active
// workspace: the newest history entry living there, else the first
// view in tree order, else none.
func (f *FocusManager) OnWorkspaceShown(output, ws NodeID) {
	cur := f.focused[output]
	if cur != 0 && f.tree.WorkspaceOf(cur) == ws {
		return
	}
	h := f.history[output]
	for i := len(h) - 1; i >= 0; i-- {
		if c := f.tree.Node(h[i]); c != nil && c.Kind == KindView && f.tree.WorkspaceOf(h[i]) == ws {
			f.SetFocus(output, h[i])
			return
		}
	}
	views := f.tree.ViewsUnder(ws)
	if len(views) > 0 {
		f.SetFocus(output, views[0])
		return
	}
	f.SetFocus(output, 0)
}

func (f *FocusManager) dropFromHistory(output, view NodeID) {
	h := f.history[output]
	out := h[:0]
	for _, v := range h {
		if v != view {
			out = append(out, v)
		}
	}
	f.history[output] = out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
