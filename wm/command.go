// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/command.go
// Summary: The closed command variant set and the text-form parser used
//          by the IPC and hotkey collaborators.

package wm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

// Command is the unified representation every collaborator normalizes
// its input into. The set is closed: the dispatcher switches over it
// exhaustively.
type Command interface {
	isCommand()
	String() string
}

// SplitCmd wraps the focused container in a split of the given
// orientation, or sets the orientation of an empty workspace root.
type SplitCmd struct{ Orient Orientation }

// FocusCmd moves focus to the nearest view in a direction.
type FocusCmd struct{ Dir Direction }

// MoveCmd relocates the focused container in a direction.
type MoveCmd struct{ Dir Direction }

// ResizeCmd adjusts the focused container's share along the given
// direction's axis by Amount (a ratio delta; negative shrinks).
type ResizeCmd struct {
	Dir    Direction
	Amount float64
}

// SwitchWorkspaceCmd activates (creating if needed) a named workspace.
type SwitchWorkspaceCmd struct{ Name string }

// MoveToWorkspaceCmd sends the focused view to a named workspace.
type MoveToWorkspaceCmd struct{ Name string }

// CloseViewCmd removes the focused view.
type CloseViewCmd struct{}

// GetTreeCmd requests a snapshot of the container tree.
type GetTreeCmd struct{}

// QuitCmd asks the engine loop to shut down.
type QuitCmd struct{}

// RegistrySetCmd writes a key in the shared registry.
type RegistrySetCmd struct {
	Key   string
	Value string
}

// RegistryGetCmd reads a key from the shared registry.
type RegistryGetCmd struct{ Key string }

// CustomCmd carries a scripted or IPC-defined command with no built-in
// tree semantics; it is re-published on the event bus for subscribers.
type CustomCmd struct {
	Name string
	Args []string
}

// MapSurfaceCmd and UnmapSurfaceCmd are the display collaborator's
// surface lifecycle notifications. They ride the same queue as user
// commands so every mutation shares one total order.
type MapSurfaceCmd struct{ Surface uuid.UUID }
type UnmapSurfaceCmd struct{ Surface uuid.UUID }

func (SplitCmd) isCommand()           {}
func (FocusCmd) isCommand()           {}
func (MoveCmd) isCommand()            {}
func (ResizeCmd) isCommand()          {}
func (SwitchWorkspaceCmd) isCommand() {}
func (MoveToWorkspaceCmd) isCommand() {}
func (CloseViewCmd) isCommand()       {}
func (GetTreeCmd) isCommand()         {}
func (RegistrySetCmd) isCommand()     {}
func (RegistryGetCmd) isCommand()     {}
func (QuitCmd) isCommand()            {}
func (CustomCmd) isCommand()          {}
func (MapSurfaceCmd) isCommand()      {}
func (UnmapSurfaceCmd) isCommand()    {}

func (c SplitCmd) String() string  { return "split " + c.Orient.String() }
func (c FocusCmd) String() string  { return "focus " + c.Dir.String() }
func (c MoveCmd) String() string   { return "move " + c.Dir.String() }
func (c ResizeCmd) String() string { return fmt.Sprintf("resize %s %+.2f", c.Dir, c.Amount) }
func (c SwitchWorkspaceCmd) String() string {
	return "workspace " + c.Name
}
func (c MoveToWorkspaceCmd) String() string { return "move to-workspace " + c.Name }
func (CloseViewCmd) String() string         { return "close" }
func (GetTreeCmd) String() string           { return "get_tree" }
func (c RegistrySetCmd) String() string     { return "set " + c.Key + " " + c.Value }
func (c RegistryGetCmd) String() string     { return "get " + c.Key }
func (QuitCmd) String() string              { return "quit" }
func (c CustomCmd) String() string {
	return strings.TrimSpace("custom " + c.Name + " " + strings.Join(c.Args, " "))
}
func (c MapSurfaceCmd) String() string   { return "map " + c.Surface.String() }
func (c UnmapSurfaceCmd) String() string { return "unmap " + c.Surface.String() }

var commandVerbs = []string{
	"split", "focus", "move", "resize", "workspace", "close",
	"get_tree", "set", "get", "quit", "custom",
}

// ParseCommand turns the IPC text form into a Command. Malformed input
// is rejected here, before it can reach the dispatcher; an unknown
// verb's error carries a nearest-name suggestion when one is close.
func ParseCommand(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrMalformedCommand)
	}
	verb, args := fields[0], fields[1:]
	switch verb {
	case "split":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: split wants an orientation", ErrMalformedCommand)
		}
		switch args[0] {
		case "h", "horizontal":
			return SplitCmd{Orient: Horizontal}, nil
		case "v", "vertical":
			return SplitCmd{Orient: Vertical}, nil
		}
		return nil, fmt.Errorf("%w: unknown orientation %q", ErrMalformedCommand, args[0])
	case "focus":
		dir, err := parseDirection(args)
		if err != nil {
			return nil, err
		}
		return FocusCmd{Dir: dir}, nil
	case "move":
		if len(args) == 2 && args[0] == "to-workspace" {
			return MoveToWorkspaceCmd{Name: args[1]}, nil
		}
		dir, err := parseDirection(args)
		if err != nil {
			return nil, err
		}
		return MoveCmd{Dir: dir}, nil
	case "resize":
		return parseResize(args)
	case "workspace":
		if len(args) != 1 || args[0] == "" {
			return nil, fmt.Errorf("%w: workspace wants a name", ErrMalformedCommand)
		}
		return SwitchWorkspaceCmd{Name: args[0]}, nil
	case "close":
		return CloseViewCmd{}, nil
	case "get_tree":
		return GetTreeCmd{}, nil
	case "set":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: set wants a key and a value", ErrMalformedCommand)
		}
		return RegistrySetCmd{Key: args[0], Value: strings.Join(args[1:], " ")}, nil
	case "get":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: get wants a key", ErrMalformedCommand)
		}
		return RegistryGetCmd{Key: args[0]}, nil
	case "quit":
		return QuitCmd{}, nil
	case "custom":
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: custom wants a name", ErrMalformedCommand)
		}
		return CustomCmd{Name: args[0], Args: args[1:]}, nil
	}
	if s := suggestVerb(verb); s != "" {
		return nil, fmt.Errorf("%w: unknown command %q (did you mean %q?)", ErrMalformedCommand, verb, s)
	}
	return nil, fmt.Errorf("%w: unknown command %q", ErrMalformedCommand, verb)
}

// parseResize accepts both the directional form ("resize right 10",
// where right/down grow and left/up shrink) and the grow/shrink
// shorthand ("resize grow 10"), which operates on the horizontal
// axis. Amounts are percent points of the parent split; an omitted
// amount falls back to the default step.
func parseResize(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: resize wants a direction", ErrMalformedCommand)
	}
	amount := DefaultResizeStep
	if len(args) > 1 {
		pts, err := strconv.ParseFloat(args[1], 64)
		if err != nil || pts <= 0 {
			return nil, fmt.Errorf("%w: bad resize amount %q", ErrMalformedCommand, args[1])
		}
		amount = pts / 100
	}
	switch args[0] {
	case "grow":
		return ResizeCmd{Dir: DirRight, Amount: amount}, nil
	case "shrink":
		return ResizeCmd{Dir: DirRight, Amount: -amount}, nil
	}
	dir, err := parseDirection(args[:1])
	if err != nil {
		return nil, err
	}
	if !dir.forward() {
		amount = -amount
	}
	return ResizeCmd{Dir: dir, Amount: amount}, nil
}

func parseDirection(args []string) (Direction, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: want exactly one direction", ErrMalformedCommand)
	}
	switch args[0] {
	case "left":
		return DirLeft, nil
	case "right":
		return DirRight, nil
	case "up":
		return DirUp, nil
	case "down":
		return DirDown, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", ErrMalformedCommand, args[0])
}

// suggestVerb returns the closest known verb within edit distance 2.
func suggestVerb(verb string) string {
	best, bestDist := "", 3
	for _, v := range commandVerbs {
		if d := levenshtein.ComputeDistance(verb, v); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}
