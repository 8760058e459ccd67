// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/engine.go
// Summary: The single-threaded engine loop: owns the state, drains the
//          command queue, relayouts and publishes after each commit.
// Usage: Collaborators call Submit from any goroutine; only Run touches
//        the tree.

package wm

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// RenderSink is the display collaborator boundary: it receives the
// visible rectangles of one output after every layout-affecting
// commit.
type RenderSink interface {
	Render(output NodeID, geometry []ViewGeometry)
}

// nopSink discards geometry; used when no collaborator is attached.
type nopSink struct{}

func (nopSink) Render(NodeID, []ViewGeometry) {}

const queueDepth = 128

type applied struct {
	res Result
	err error
}

type pending struct {
	ctx   context.Context
	cmd   Command
	reply chan applied
}

// Engine owns the window-manager state. Every mutation enters through
// Submit and is applied by the single Run goroutine, giving commands a
// total order with no locks around the tree.
type Engine struct {
	state *State
	disp  *Dispatcher
	bus   *Bus
	sink  RenderSink
	opt   LayoutOptions
	log   *log.Logger

	cmds chan pending
	done chan struct{}
}

func NewEngine(state *State, bus *Bus, sink RenderSink, opt LayoutOptions, logger *log.Logger) *Engine {
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		state: state,
		disp:  NewDispatcher(state),
		bus:   bus,
		sink:  sink,
		opt:   opt,
		log:   logger,
		cmds:  make(chan pending, queueDepth),
		done:  make(chan struct{}),
	}
}

// State exposes the owned state for setup before Run starts. Once the
// loop runs, all access goes through Submit.
func (e *Engine) State() *State { return e.state }

// AddOutput registers a display before or outside the loop's traffic.
// The first output becomes the command target.
func (e *Engine) AddOutput(name string, rect Rect) NodeID {
	id := e.state.Tree.AddOutput(name, rect)
	if e.disp.Output() == 0 {
		e.disp.SetOutput(id)
	}
	return id
}

// Submit enqueues cmd and waits for the loop to apply it. The command
// is dropped without running if ctx is cancelled before dequeue; once
// dequeued it always runs to completion, even if the caller has gone.
func (e *Engine) Submit(ctx context.Context, cmd Command) (Result, error) {
	p := pending{ctx: ctx, cmd: cmd, reply: make(chan applied, 1)}
	select {
	case e.cmds <- p:
	case <-e.done:
		return Result{}, ErrEngineStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case a := <-p.reply:
		return a.res, a.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		// The loop may have replied just before exiting.
		select {
		case a := <-p.reply:
			return a.res, a.err
		default:
			return Result{}, ErrEngineStopped
		}
	}
}

// Run drains the queue until ctx is cancelled or a quit command lands.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-e.cmds:
			if p.ctx.Err() != nil {
				// Originator disconnected before dequeue.
				p.reply <- applied{err: p.ctx.Err()}
				continue
			}
			res, err := e.apply(p.cmd)
			p.reply <- applied{res: res, err: err}
			if err == nil && res.Quit {
				e.log.Info("quit command received, stopping engine")
				return
			}
		}
	}
}

// apply runs one command, recomputes geometry where needed, verifies
// invariants and publishes the change records in commit order.
func (e *Engine) apply(cmd Command) (Result, error) {
	res, err := e.disp.Apply(cmd)
	if err != nil {
		e.log.Debugf("command rejected: %s: %v", cmd, err)
		return Result{}, err
	}
	e.log.Debugf("applied: %s", cmd)

	if ierr := e.state.Tree.CheckInvariants(); ierr != nil {
		// A drifted tree is repaired, not fatal: crashing here would
		// take the user's whole session with it.
		e.log.Errorf("invariant violation after %s: %v; renormalizing", cmd, ierr)
		e.state.Tree.RenormalizeAll()
		res.Relayout = true
	}
	if res.Relayout {
		e.relayout(&res)
	}
	for _, ch := range res.Changes {
		e.bus.Publish(ch)
	}
	return res, nil
}

// relayout recomputes the affected outputs (all of them when the
// changes name none) and attaches the fresh geometry to the layout
// change records before they are published.
func (e *Engine) relayout(res *Result) {
	outputs := map[NodeID]bool{}
	for _, ch := range res.Changes {
		if ch.Output != 0 {
			outputs[ch.Output] = true
		}
	}
	if len(outputs) == 0 {
		for _, oid := range e.state.Tree.Outputs() {
			outputs[oid] = true
		}
	}
	for oid := range outputs {
		o := e.state.Tree.Node(oid)
		if o == nil {
			continue
		}
		geo := e.state.Tree.Layout(oid, o.Rect, e.opt)
		for i := range res.Changes {
			if res.Changes[i].Kind == ChangeLayout && res.Changes[i].Output == oid {
				res.Changes[i].Geometry = geo
			}
		}
		e.sink.Render(oid, geo)
	}
}

// Stopped reports the channel closed when the loop exits.
func (e *Engine) Stopped() <-chan struct{} { return e.done }

func (e *Engine) String() string {
	return fmt.Sprintf("engine(outputs=%d)", len(e.state.Tree.Outputs()))
}
