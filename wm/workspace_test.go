// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/workspace_test.go
// Summary: Workspace manager tests: lazy creation, switching, moves.

package wm

import (
	"errors"
	"testing"
)

func newTestState(t *testing.T) (*State, NodeID) {
	t.Helper()
	st := NewState(DefaultMinRatio)
	out := st.Tree.AddOutput("test-0", Rect{W: 1200, H: 800})
	if _, _, err := st.Workspaces.Switch(out, "1"); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	return st, out
}

func TestEnsureCreatesOnce(t *testing.T) {
	st, out := newTestState(t)
	a, err := st.Workspaces.Ensure(out, "mail")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	b, err := st.Workspaces.Ensure(out, "mail")
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if a != b {
		t.Fatalf("Ensure allocated twice: %d, %d", a, b)
	}
}

func TestSwitchActivatesAndFocuses(t *testing.T) {
	st, out := newTestState(t)
	root := st.Tree.WorkspaceRoot(st.Workspaces.Active(out))
	v1 := mustInsert(t, st.Tree, root)
	st.Focus.SetFocus(out, v1)

	ws2, changed, err := st.Workspaces.Switch(out, "2")
	if err != nil || !changed {
		t.Fatalf("Switch: changed=%v err=%v", changed, err)
	}
	if st.Workspaces.Active(out) != ws2 {
		t.Fatalf("active workspace not switched")
	}
	if f := st.Focus.Focused(out); f != 0 {
		t.Fatalf("focus on empty workspace = %d, want none", f)
	}

	_, changed, err = st.Workspaces.Switch(out, "1")
	if err != nil || !changed {
		t.Fatalf("Switch back: changed=%v err=%v", changed, err)
	}
	if f := st.Focus.Focused(out); f != v1 {
		t.Fatalf("focus after switch back = %d, want %d", f, v1)
	}
}

func TestSwitchUnknownOutput(t *testing.T) {
	st, _ := newTestState(t)
	if _, _, err := st.Workspaces.Switch(9999, "2"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("err = %v, want ErrInvalidTarget", err)
	}
}

func TestMoveViewCollapsesSource(t *testing.T) {
	st, out := newTestState(t)
	root := st.Tree.WorkspaceRoot(st.Workspaces.Active(out))
	v1 := mustInsert(t, st.Tree, root)
	v2 := mustInsert(t, st.Tree, root)
	s, err := st.Tree.Split(v2, Vertical)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	v3 := mustInsert(t, st.Tree, s)

	if _, err := st.Workspaces.MoveViewToWorkspace(v3, "2"); err != nil {
		t.Fatalf("MoveViewToWorkspace: %v", err)
	}
	// The wrap is left with v2 alone and collapses away.
	if st.Tree.Node(s) != nil {
		t.Fatalf("single-child split survived the move")
	}
	if st.Tree.Parent(v2) != root {
		t.Fatalf("v2 not promoted into the root")
	}
	ws2 := st.Workspaces.Find(out, "2")
	if views := st.Tree.ViewsUnder(ws2); len(views) != 1 || views[0] != v3 {
		t.Fatalf("target views = %v, want [%d]", views, v3)
	}
	_ = v1
}

func TestMoveViewToSameWorkspaceIsNoop(t *testing.T) {
	st, out := newTestState(t)
	root := st.Tree.WorkspaceRoot(st.Workspaces.Active(out))
	v1 := mustInsert(t, st.Tree, root)
	ws, err := st.Workspaces.MoveViewToWorkspace(v1, "1")
	if err != nil {
		t.Fatalf("MoveViewToWorkspace: %v", err)
	}
	if ws != st.Workspaces.Active(out) {
		t.Fatalf("returned workspace %d is not the active one", ws)
	}
	if st.Tree.Parent(v1) != root {
		t.Fatalf("no-op move relocated the view")
	}
}

func TestWorkspacesNeverImplicitlyDestroyed(t *testing.T) {
	st, out := newTestState(t)
	st.Workspaces.Switch(out, "2")
	st.Workspaces.Switch(out, "1")
	if ws := st.Workspaces.Find(out, "2"); ws == 0 {
		t.Fatalf("empty inactive workspace was destroyed")
	}
}
