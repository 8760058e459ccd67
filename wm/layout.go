// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/layout.go
// Summary: Pure geometry computation: partitions rectangles along split
//          axes with largest-remainder rounding.

package wm

// LayoutOptions carries the pixel insets applied around views.
type LayoutOptions struct {
	Gap    int
	Border int
}

// Layout assigns geometry to every node beneath root within rect and
// returns the view rectangles in tree order. The computation is
// deterministic: identical tree and rectangle always produce identical
// output. Node rects are stored for the focus manager's directional
// search; only views are reported to the render collaborator.
func (t *Tree) Layout(root NodeID, rect Rect, opt LayoutOptions) []ViewGeometry {
	var out []ViewGeometry
	t.layoutNode(root, rect, opt, &out)
	return out
}

func (t *Tree) layoutNode(id NodeID, rect Rect, opt LayoutOptions, out *[]ViewGeometry) {
	c := t.nodes[id]
	if c == nil {
		return
	}
	c.Rect = rect
	switch c.Kind {
	case KindView:
		inner := rect.Inset(opt.Gap + opt.Border)
		c.Rect = inner
		*out = append(*out, ViewGeometry{
			View:    id,
			Surface: c.Surface,
			X:       inner.X,
			Y:       inner.Y,
			Width:   inner.W,
			Height:  inner.H,
		})
	case KindOutput, KindWorkspace:
		// Outputs hand their full rectangle to the active workspace;
		// workspaces hand it to their root split.
		if c.Kind == KindOutput {
			if c.Active != 0 {
				t.layoutNode(c.Active, rect, opt, out)
			}
			return
		}
		for _, ch := range c.Children {
			t.layoutNode(ch, rect, opt, out)
		}
	case KindSplit:
		if len(c.Children) == 0 {
			return
		}
		extent := rect.W
		if c.Orient == Vertical {
			extent = rect.H
		}
		sizes := partition(extent, c.Ratios)
		off := 0
		for i, ch := range c.Children {
			sub := rect
			if c.Orient == Horizontal {
				sub.X = rect.X + off
				sub.W = sizes[i]
			} else {
				sub.Y = rect.Y + off
				sub.H = sizes[i]
			}
			off += sizes[i]
			t.layoutNode(ch, sub, opt, out)
		}
	}
}

// partition splits total pixels proportionally to ratios using
// largest-remainder rounding: floor every share, then hand leftover
// pixels to the largest fractional remainders, ties resolved toward
// the last child. The result always sums exactly to total.
func partition(total int, ratios []float64) []int {
	n := len(ratios)
	sizes := make([]int, n)
	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, n)
	used := 0
	for i, r := range ratios {
		exact := float64(total) * r
		sizes[i] = int(exact)
		rems[i] = rem{idx: i, frac: exact - float64(sizes[i])}
		used += sizes[i]
	}
	left := total - used
	for left > 0 {
		best := -1
		for _, r := range rems {
			// >= keeps ties drifting toward the last child.
			if best < 0 || r.frac >= rems[best].frac {
				best = r.idx
			}
		}
		sizes[best]++
		rems[best].frac = -1
		left--
	}
	return sizes
}
