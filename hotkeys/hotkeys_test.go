// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hotkeys/hotkeys_test.go
// Summary: Chord parsing and key-event resolution tests.

package hotkeys

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"tilewm/wm"
)

func TestParseChordForms(t *testing.T) {
	cases := []struct {
		in   string
		want Chord
	}{
		{"Ctrl+Shift+Left", Chord{Mods: tcell.ModCtrl | tcell.ModShift, Key: tcell.KeyLeft}},
		{"Alt+Down", Chord{Mods: tcell.ModAlt, Key: tcell.KeyDown}},
		// Ctrl+letter drops Shift: the terminal reports a bare
		// control code either way.
		{"ctrl+shift+h", Chord{Mods: tcell.ModCtrl, Key: tcell.KeyRune, Rune: 'h'}},
		{"Alt+Shift+X", Chord{Mods: tcell.ModAlt | tcell.ModShift, Key: tcell.KeyRune, Rune: 'x'}},
		{"Ctrl+Shift+1", Chord{Mods: tcell.ModCtrl | tcell.ModShift, Key: tcell.KeyRune, Rune: '1'}},
		{"Meta+Space", Chord{Mods: tcell.ModMeta, Key: tcell.KeyRune, Rune: ' '}},
		{"Escape", Chord{Key: tcell.KeyEscape}},
	}
	for _, c := range cases {
		got, err := ParseChord(c.in)
		if err != nil {
			t.Fatalf("ParseChord(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseChord(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseChordRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "Ctrl+", "Hyper+X", "Ctrl+Banana"} {
		if _, err := ParseChord(in); err == nil {
			t.Fatalf("ParseChord(%q) accepted", in)
		}
	}
}

func TestResolverMatchesEvents(t *testing.T) {
	r, err := NewResolver(map[string]string{
		"Ctrl+Shift+Left": "focus left",
		"Alt+Shift+2":     "move to-workspace 2",
		"Ctrl+Shift+H":    "split h",
		"Alt+Shift+X":     "close",
	})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	ev := tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModCtrl|tcell.ModShift)
	cmd, ok := r.Resolve(ev)
	if !ok {
		t.Fatalf("chord not resolved")
	}
	if fc, ok := cmd.(wm.FocusCmd); !ok || fc.Dir != wm.DirLeft {
		t.Fatalf("resolved to %+v", cmd)
	}

	// tcell folds Ctrl+letter into a control code with a lower-case
	// rune and no Shift bit before the event reaches us.
	ev = tcell.NewEventKey(tcell.KeyRune, 'H', tcell.ModCtrl)
	if cmd, ok = r.Resolve(ev); !ok {
		t.Fatalf("ctrl-letter chord not resolved")
	}
	if sc, ok := cmd.(wm.SplitCmd); !ok || sc.Orient != wm.Horizontal {
		t.Fatalf("resolved to %+v", cmd)
	}

	// Shifted letter reported upper-case without the Shift bit.
	ev = tcell.NewEventKey(tcell.KeyRune, 'X', tcell.ModAlt)
	if cmd, ok = r.Resolve(ev); !ok {
		t.Fatalf("upper-case rune chord not resolved")
	}
	if _, isClose := cmd.(wm.CloseViewCmd); !isClose {
		t.Fatalf("resolved to %+v", cmd)
	}

	// Unbound events resolve to nothing.
	if _, ok := r.Resolve(tcell.NewEventKey(tcell.KeyRune, 'z', 0)); ok {
		t.Fatalf("unbound chord resolved")
	}
}

func TestResolverNormalizesCtrlLetters(t *testing.T) {
	r, err := NewResolver(map[string]string{"Ctrl+Q": "close"})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	// Terminals deliver Ctrl+Q as the control code, not a rune.
	ev := tcell.NewEventKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	cmd, ok := r.Resolve(ev)
	if !ok {
		t.Fatalf("control code chord not resolved")
	}
	if _, isClose := cmd.(wm.CloseViewCmd); !isClose {
		t.Fatalf("resolved to %+v", cmd)
	}
}

func TestResolverRejectsBadBindings(t *testing.T) {
	if _, err := NewResolver(map[string]string{"Ctrl+X": "frobnicate"}); err == nil {
		t.Fatalf("bad command text accepted")
	}
	if _, err := NewResolver(map[string]string{"Hyper+X": "close"}); err == nil {
		t.Fatalf("bad chord accepted")
	}
}
