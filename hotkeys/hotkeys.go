// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hotkeys/hotkeys.go
// Summary: Chord parsing and the hotkey-resolver collaborator that maps
//          key events to commands.
// Usage: Built from config bindings; consulted on every key event.

package hotkeys

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"tilewm/wm"
)

// Chord is one normalized key combination. Letter runes are stored
// lower-case with Shift carried in Mods.
type Chord struct {
	Mods tcell.ModMask
	Key  tcell.Key
	Rune rune
}

var namedKeys = map[string]tcell.Key{
	"left":      tcell.KeyLeft,
	"right":     tcell.KeyRight,
	"up":        tcell.KeyUp,
	"down":      tcell.KeyDown,
	"enter":     tcell.KeyEnter,
	"tab":       tcell.KeyTab,
	"backspace": tcell.KeyBackspace2,
	"escape":    tcell.KeyEscape,
	"home":      tcell.KeyHome,
	"end":       tcell.KeyEnd,
	"pgup":      tcell.KeyPgUp,
	"pgdn":      tcell.KeyPgDn,
	"delete":    tcell.KeyDelete,
}

// ParseChord turns "Ctrl+Shift+Left" into a Chord. Modifier names are
// case-insensitive; the final token is either a named key or a single
// character.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(s, "+")
	if len(parts) == 0 || s == "" {
		return Chord{}, fmt.Errorf("hotkeys: empty chord")
	}
	var c Chord
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control":
			c.Mods |= tcell.ModCtrl
		case "alt", "mod":
			c.Mods |= tcell.ModAlt
		case "shift":
			c.Mods |= tcell.ModShift
		case "meta", "super":
			c.Mods |= tcell.ModMeta
		default:
			return Chord{}, fmt.Errorf("hotkeys: unknown modifier %q in %q", p, s)
		}
	}
	last := strings.TrimSpace(parts[len(parts)-1])
	if last == "" {
		return Chord{}, fmt.Errorf("hotkeys: chord %q has no key", s)
	}
	lower := strings.ToLower(last)
	if key, ok := namedKeys[lower]; ok {
		c.Key = key
		return c, nil
	}
	if lower == "space" {
		lower = " "
	}
	runes := []rune(lower)
	if len(runes) != 1 {
		return Chord{}, fmt.Errorf("hotkeys: unknown key %q in %q", last, s)
	}
	c.Key = tcell.KeyRune
	c.Rune = runes[0]
	// Ctrl+letter collapses to a control code on the wire and loses
	// the Shift bit, so Ctrl+Shift+H and Ctrl+H are the same chord.
	if c.Mods&tcell.ModCtrl != 0 && c.Rune >= 'a' && c.Rune <= 'z' {
		c.Mods &^= tcell.ModShift
	}
	return c, nil
}

// Resolver maps incoming key events onto the commands bound to them.
type Resolver struct {
	bindings map[Chord]wm.Command
}

// NewResolver parses every binding up front so malformed chords and
// command texts are rejected at config load, not at keypress time.
func NewResolver(bindings map[string]string) (*Resolver, error) {
	r := &Resolver{bindings: make(map[Chord]wm.Command, len(bindings))}
	for chord, text := range bindings {
		c, err := ParseChord(chord)
		if err != nil {
			return nil, err
		}
		cmd, err := wm.ParseCommand(text)
		if err != nil {
			return nil, fmt.Errorf("hotkeys: binding %q: %w", chord, err)
		}
		r.bindings[c] = cmd
	}
	return r, nil
}

// Resolve returns the command bound to ev, if any.
func (r *Resolver) Resolve(ev *tcell.EventKey) (wm.Command, bool) {
	cmd, ok := r.bindings[normalize(ev)]
	return cmd, ok
}

// Len reports the number of active bindings.
func (r *Resolver) Len() int { return len(r.bindings) }

// normalize folds the quirks of terminal key reporting into the chord
// shape ParseChord produces: Ctrl+letter arrives as a control key
// code, shifted letters arrive upper-case with no Shift bit.
func normalize(ev *tcell.EventKey) Chord {
	c := Chord{Mods: ev.Modifiers(), Key: ev.Key(), Rune: ev.Rune()}
	if c.Key >= tcell.KeyCtrlA && c.Key <= tcell.KeyCtrlZ {
		c.Rune = rune('a' + c.Key - tcell.KeyCtrlA)
		c.Key = tcell.KeyRune
		c.Mods |= tcell.ModCtrl
		c.Mods &^= tcell.ModShift
	}
	if c.Key == tcell.KeyRune {
		if c.Rune >= 'A' && c.Rune <= 'Z' {
			c.Rune += 'a' - 'A'
			c.Mods |= tcell.ModShift
		}
		if c.Mods&tcell.ModCtrl != 0 && c.Rune >= 'a' && c.Rune <= 'z' {
			c.Mods &^= tcell.ModShift
		}
	} else {
		c.Rune = 0
	}
	return c
}
