// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/dispatcher.go
// Summary: The single mutation path: Apply maps one Command onto the
//          tree/focus/workspace state and reports what changed.

package wm

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultWorkspace is the workspace created when a surface maps onto
// an output that has none yet.
const DefaultWorkspace = "1"

// State bundles the structures the engine loop owns. It is passed
// explicitly; nothing in this package reads ambient globals.
type State struct {
	Tree       *Tree
	Focus      *FocusManager
	Workspaces *WorkspaceManager
	Registry   *Registry
}

func NewState(minRatio float64) *State {
	t := NewTree(minRatio)
	f := NewFocusManager(t)
	return &State{
		Tree:       t,
		Focus:      f,
		Workspaces: NewWorkspaceManager(t, f),
		Registry:   NewRegistry(),
	}
}

// Result describes a successful Apply: the change records to publish,
// whether geometry must be recomputed (the caller fills Geometry on
// layout changes after doing so), and any query payload.
type Result struct {
	Changes  []Change
	Relayout bool
	Quit     bool
	Snapshot *Snapshot
	Entry    *RegistryEntry
}

// Dispatcher applies commands against one output at a time, the
// output holding the seat's focus. It performs no I/O and no locking;
// the engine loop serializes calls.
type Dispatcher struct {
	state  *State
	output NodeID
}

func NewDispatcher(state *State) *Dispatcher {
	return &Dispatcher{state: state}
}

// SetOutput points the dispatcher at the output receiving commands.
func (d *Dispatcher) SetOutput(output NodeID) { d.output = output }

// Output reports the current command target output.
func (d *Dispatcher) Output() NodeID { return d.output }

// Apply executes one command. Either the state transitions to a fully
// consistent new shape and a Result is returned, or the state is left
// untouched and an error is returned; partial mutation is never
// observable.
func (d *Dispatcher) Apply(cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case SplitCmd:
		return d.applySplit(c)
	case FocusCmd:
		return d.applyFocus(c)
	case MoveCmd:
		return d.applyMove(c)
	case ResizeCmd:
		return d.applyResize(c)
	case SwitchWorkspaceCmd:
		return d.applySwitchWorkspace(c)
	case MoveToWorkspaceCmd:
		return d.applyMoveToWorkspace(c)
	case CloseViewCmd:
		view := d.state.Focus.Focused(d.output)
		if view == 0 {
			return Result{}, fmt.Errorf("%w: no focused view", ErrInvalidTarget)
		}
		return d.removeView(view)
	case GetTreeCmd:
		return Result{Snapshot: d.state.Tree.Snapshot(d.state.Focus)}, nil
	case RegistrySetCmd:
		if err := d.state.Registry.Set(c.Key, c.Value); err != nil {
			return Result{}, err
		}
		return Result{Changes: []Change{{Kind: ChangeRegistry, Name: c.Key}}}, nil
	case RegistryGetCmd:
		v, err := d.state.Registry.Get(c.Key)
		if err != nil {
			return Result{}, err
		}
		return Result{Entry: &RegistryEntry{Key: c.Key, Value: v}}, nil
	case QuitCmd:
		return Result{Quit: true, Changes: []Change{{Kind: ChangeQuit}}}, nil
	case CustomCmd:
		return Result{Changes: []Change{{Kind: ChangeCustom, Name: c.Name, Args: c.Args}}}, nil
	case MapSurfaceCmd:
		return d.applyMap(c.Surface)
	case UnmapSurfaceCmd:
		view := d.viewBySurface(c.Surface)
		if view == 0 {
			return Result{}, fmt.Errorf("%w: surface %s not mapped", ErrInvalidTarget, c.Surface)
		}
		return d.removeView(view)
	}
	return Result{}, fmt.Errorf("%w: unhandled command %T", ErrMalformedCommand, cmd)
}

// applySplit wraps the focused view in a new split. With no focused
// view it reorients the active workspace's empty root instead, which
// shapes how the next mapped surfaces tile.
func (d *Dispatcher) applySplit(c SplitCmd) (Result, error) {
	t := d.state.Tree
	focused := d.state.Focus.Focused(d.output)
	if focused == 0 {
		ws := d.state.Workspaces.Active(d.output)
		root := t.WorkspaceRoot(ws)
		if root == 0 {
			return Result{}, fmt.Errorf("%w: output %d has no workspace", ErrInvalidTarget, d.output)
		}
		t.Node(root).Orient = c.Orient
		return Result{}, nil
	}
	if _, err := t.Split(focused, c.Orient); err != nil {
		return Result{}, err
	}
	// Geometry is unchanged: the wrap holds its only child at 1.0.
	return Result{}, nil
}

func (d *Dispatcher) applyFocus(c FocusCmd) (Result, error) {
	next := d.state.Focus.Navigate(d.output, c.Dir)
	if next == 0 {
		return Result{}, fmt.Errorf("%w: focus %s", ErrNoNeighbor, c.Dir)
	}
	d.state.Focus.SetFocus(d.output, next)
	return Result{Changes: []Change{{Kind: ChangeFocus, Output: d.output, IDs: []NodeID{next}}}}, nil
}

func (d *Dispatcher) applyMove(c MoveCmd) (Result, error) {
	focused := d.state.Focus.Focused(d.output)
	if focused == 0 {
		return Result{}, fmt.Errorf("%w: no focused view", ErrInvalidTarget)
	}
	if err := d.state.Tree.Move(focused, c.Dir); err != nil {
		return Result{}, err
	}
	return Result{
		Relayout: true,
		Changes:  []Change{{Kind: ChangeLayout, Output: d.output, IDs: []NodeID{focused}}},
	}, nil
}

// applyResize finds the nearest ancestor whose parent splits along the
// direction's axis with real siblings, then shifts its share.
func (d *Dispatcher) applyResize(c ResizeCmd) (Result, error) {
	t := d.state.Tree
	target := d.state.Focus.Focused(d.output)
	if target == 0 {
		return Result{}, fmt.Errorf("%w: no focused view", ErrInvalidTarget)
	}
	axis := c.Dir.axis()
	for target != 0 {
		p := t.Node(t.Parent(target))
		if p != nil && p.Kind == KindSplit && p.Orient == axis && len(p.Children) > 1 {
			break
		}
		target = t.Parent(target)
	}
	if target == 0 {
		return Result{}, fmt.Errorf("%w: nothing to resize along %s", ErrResizeRejected, axis)
	}
	if err := t.Resize(target, c.Amount); err != nil {
		return Result{}, err
	}
	return Result{
		Relayout: true,
		Changes:  []Change{{Kind: ChangeLayout, Output: d.output, IDs: []NodeID{target}}},
	}, nil
}

func (d *Dispatcher) applySwitchWorkspace(c SwitchWorkspaceCmd) (Result, error) {
	ws, changed, err := d.state.Workspaces.Switch(d.output, c.Name)
	if err != nil {
		return Result{}, err
	}
	res := Result{Relayout: changed}
	if changed {
		res.Changes = append(res.Changes, Change{
			Kind: ChangeWorkspace, Output: d.output, Name: c.Name, IDs: []NodeID{ws},
		})
		if f := d.state.Focus.Focused(d.output); f != 0 {
			res.Changes = append(res.Changes, Change{Kind: ChangeFocus, Output: d.output, IDs: []NodeID{f}})
		}
	}
	return res, nil
}

func (d *Dispatcher) applyMoveToWorkspace(c MoveToWorkspaceCmd) (Result, error) {
	focused := d.state.Focus.Focused(d.output)
	if focused == 0 {
		return Result{}, fmt.Errorf("%w: no focused view", ErrInvalidTarget)
	}
	if _, err := d.state.Workspaces.MoveViewToWorkspace(focused, c.Name); err != nil {
		return Result{}, err
	}
	res := Result{
		Relayout: true,
		Changes:  []Change{{Kind: ChangeLayout, Output: d.output, IDs: []NodeID{focused}}},
	}
	if f := d.state.Focus.Focused(d.output); f != focused {
		res.Changes = append(res.Changes, Change{Kind: ChangeFocus, Output: d.output, IDs: []NodeID{f}})
	}
	return res, nil
}

// applyMap inserts a view for a freshly mapped surface beside the
// focused view (or into the workspace root when the output is empty)
// and focuses it.
func (d *Dispatcher) applyMap(surface uuid.UUID) (Result, error) {
	t := d.state.Tree
	if d.output == 0 {
		return Result{}, fmt.Errorf("%w: no output", ErrInvalidTarget)
	}
	parent := NodeID(0)
	if focused := d.state.Focus.Focused(d.output); focused != 0 {
		parent = t.Parent(focused)
	} else {
		ws := d.state.Workspaces.Active(d.output)
		if ws == 0 {
			var err error
			ws, _, err = d.state.Workspaces.Switch(d.output, DefaultWorkspace)
			if err != nil {
				return Result{}, err
			}
		}
		parent = t.WorkspaceRoot(ws)
	}
	view, err := t.InsertView(parent, surface)
	if err != nil {
		return Result{}, err
	}
	d.state.Focus.SetFocus(d.output, view)
	return Result{
		Relayout: true,
		Changes: []Change{
			{Kind: ChangeMapped, Output: d.output, IDs: []NodeID{view}},
			{Kind: ChangeFocus, Output: d.output, IDs: []NodeID{view}},
		},
	}, nil
}

func (d *Dispatcher) removeView(view NodeID) (Result, error) {
	t := d.state.Tree
	output := t.OutputOf(view)
	if err := t.RemoveView(view); err != nil {
		return Result{}, err
	}
	d.state.Focus.OnRemove(output, view)
	res := Result{
		Relayout: true,
		Changes:  []Change{{Kind: ChangeUnmapped, Output: output, IDs: []NodeID{view}}},
	}
	if f := d.state.Focus.Focused(output); f != 0 {
		res.Changes = append(res.Changes, Change{Kind: ChangeFocus, Output: output, IDs: []NodeID{f}})
	}
	return res, nil
}

func (d *Dispatcher) viewBySurface(surface uuid.UUID) NodeID {
	for _, oid := range d.state.Tree.Outputs() {
		o := d.state.Tree.Node(oid)
		for _, ws := range o.Children {
			for _, v := range d.state.Tree.ViewsUnder(ws) {
				if d.state.Tree.Node(v).Surface == surface {
					return v
				}
			}
		}
	}
	return 0
}
