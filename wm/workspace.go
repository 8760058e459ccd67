// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/workspace.go
// Summary: Workspace naming, lazy creation, switching and cross-workspace
//          view moves.

package wm

import "fmt"

// WorkspaceManager maintains the output↔workspace assignment and the
// active workspace per output. Workspaces are created on first
// reference and never implicitly destroyed.
type WorkspaceManager struct {
	tree  *Tree
	focus *FocusManager
}

func NewWorkspaceManager(tree *Tree, focus *FocusManager) *WorkspaceManager {
	return &WorkspaceManager{tree: tree, focus: focus}
}

// Find returns the workspace named name on output, or zero.
func (m *WorkspaceManager) Find(output NodeID, name string) NodeID {
	o := m.tree.Node(output)
	if o == nil || o.Kind != KindOutput {
		return 0
	}
	for _, ws := range o.Children {
		if c := m.tree.Node(ws); c != nil && c.Name == name {
			return ws
		}
	}
	return 0
}

// Ensure returns the workspace named name on output, creating it
// lazily when absent.
func (m *WorkspaceManager) Ensure(output NodeID, name string) (NodeID, error) {
	if ws := m.Find(output, name); ws != 0 {
		return ws, nil
	}
	return m.tree.AddWorkspace(output, name)
}

// Active returns the active workspace of output.
func (m *WorkspaceManager) Active(output NodeID) NodeID {
	o := m.tree.Node(output)
	if o == nil || o.Kind != KindOutput {
		return 0
	}
	return o.Active
}

// Switch makes the named workspace active on output, creating it if
// needed, and moves focus onto it. Returns the workspace id and
// whether the active workspace actually changed.
func (m *WorkspaceManager) Switch(output NodeID, name string) (NodeID, bool, error) {
	o := m.tree.Node(output)
	if o == nil || o.Kind != KindOutput {
		return 0, false, fmt.Errorf("%w: output %d", ErrInvalidTarget, output)
	}
	ws, err := m.Ensure(output, name)
	if err != nil {
		return 0, false, err
	}
	if o.Active == ws {
		return ws, false, nil
	}
	o.Active = ws
	m.focus.OnWorkspaceShown(output, ws)
	return ws, true, nil
}

// MoveViewToWorkspace detaches view from its current workspace,
// re-running the collapse rules there, and appends it to the target
// workspace's root. Geometry for the target is not recomputed until
// that workspace is shown. Focus leaves the view unless the target is
// already the active workspace.
func (m *WorkspaceManager) MoveViewToWorkspace(view NodeID, name string) (NodeID, error) {
	v := m.tree.Node(view)
	if v == nil || v.Kind != KindView {
		return 0, fmt.Errorf("%w: view %d", ErrInvalidTarget, view)
	}
	output := m.tree.OutputOf(view)
	src := m.tree.WorkspaceOf(view)
	ws, err := m.Ensure(output, name)
	if err != nil {
		return 0, err
	}
	if ws == src {
		return ws, nil
	}
	origin := m.tree.Parent(view)
	m.tree.detachChild(view)
	m.tree.insertChild(m.tree.WorkspaceRoot(ws), view, len(m.tree.Node(m.tree.WorkspaceRoot(ws)).Children))
	m.tree.collapse(origin)
	if m.focus.Focused(output) == view && m.Active(output) != ws {
		m.focus.OnRemove(output, view)
	}
	return ws, nil
}
