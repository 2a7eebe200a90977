package tui

import (
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"go-sightread/input"
)

// HoldWindow is how long a key counts as held after its last press or
// repeat. Terminals report no key releases, so one is made up once the
// window passes.
const HoldWindow = 550 * time.Millisecond

// keyEvent converts a terminal key to a router key event. Uppercase
// letters carry Shift, ctrl+ and alt+ prefixes their modifiers.
func keyEvent(msg tea.KeyMsg) input.KeyEvent {
	s := msg.String()
	var mods input.Mod
	if rest, ok := strings.CutPrefix(s, "alt+"); ok {
		mods |= input.LeftAlt
		s = rest
	}
	if rest, ok := strings.CutPrefix(s, "ctrl+"); ok {
		mods |= input.LeftCtrl
		s = rest
	}
	if rest, ok := strings.CutPrefix(s, "shift+"); ok {
		mods |= input.LeftShift
		s = rest
	}
	if s == " " {
		s = "space"
	}
	if r := []rune(s); len(r) == 1 && unicode.IsUpper(r[0]) {
		mods |= input.LeftShift
		s = strings.ToLower(s)
	}
	return input.KeyEvent{Key: s, Kind: input.Down, Mods: mods}
}

// heldKeys tracks synthesized key state for terminals.
type heldKeys struct {
	until map[string]time.Time
}

func newHeldKeys() *heldKeys {
	return &heldKeys{until: make(map[string]time.Time)}
}

// press marks ev down until now+HoldWindow. A key already down becomes a
// repeat.
func (h *heldKeys) press(ev input.KeyEvent, now time.Time) input.KeyEvent {
	if _, down := h.until[ev.Key]; down {
		ev.Kind = input.Repeat
	}
	h.until[ev.Key] = now.Add(HoldWindow)
	return ev
}

// expire returns key-ups for keys whose window has passed.
func (h *heldKeys) expire(now time.Time) []input.KeyEvent {
	var out []input.KeyEvent
	for key, t := range h.until {
		if now.After(t) {
			out = append(out, input.KeyEvent{Key: key, Kind: input.Up})
			delete(h.until, key)
		}
	}
	return out
}

// releaseAll returns key-ups for every held key.
func (h *heldKeys) releaseAll() []input.KeyEvent {
	var out []input.KeyEvent
	for key := range h.until {
		out = append(out, input.KeyEvent{Key: key, Kind: input.Up})
	}
	h.until = make(map[string]time.Time)
	return out
}
