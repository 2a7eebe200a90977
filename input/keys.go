package input

import "fmt"

// Mapping selects how computer keys become pitches.
type Mapping int

const (
	// NoteNames maps letters C..B to the naturals, Shift sharps, Ctrl flats.
	NoteNames Mapping = iota
	// PianoRow lays one chromatic octave across two keyboard rows.
	PianoRow
)

func (m Mapping) String() string {
	if m == PianoRow {
		return "piano-row"
	}
	return "note-names"
}

func ParseMapping(s string) (Mapping, error) {
	switch s {
	case "", "note-names", "names":
		return NoteNames, nil
	case "piano-row", "piano":
		return PianoRow, nil
	}
	return NoteNames, fmt.Errorf("unknown key mapping %q", s)
}

// Base pitch of the mapped range (C3) and how many octaves above it keys may reach.
const (
	BasePitch = 48
	MaxOctave = 2
)

var noteNameKeys = map[string]int{
	"c": 0, "d": 2, "e": 4, "f": 5, "g": 7, "a": 9, "b": 11,
}

// Lower row whites, upper row blacks.
var pianoRowKeys = map[string]int{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5,
	"t": 6, "g": 7, "y": 8, "h": 9, "u": 10, "j": 11,
}

// Kind is the phase of a key event.
type Kind int

const (
	Down Kind = iota
	Up
	Repeat
)

// Mod is a set of held modifier keys.
type Mod uint8

const (
	LeftShift Mod = 1 << iota
	RightShift
	LeftCtrl
	RightCtrl
	LeftAlt
	RightAlt
)

func (m Mod) Shift() bool { return m&(LeftShift|RightShift) != 0 }
func (m Mod) Ctrl() bool  { return m&(LeftCtrl|RightCtrl) != 0 }
func (m Mod) Alt() bool   { return m&(LeftAlt|RightAlt) != 0 }

// KeyEvent is one physical key transition. Key is the lowercase key name.
type KeyEvent struct {
	Key  string
	Kind Kind
	Mods Mod
}

// MouseEvent is a button transition at a cursor position.
type MouseEvent struct {
	X, Y   int
	Button int
	Down   bool
}

// Action is a non-note command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionScrubForward
	ActionScrubBack
	ActionOctaveUp
	ActionOctaveDown
	ActionTogglePause
	ActionReset
	ActionPanic
	ActionToggleMode
)

func (a Action) String() string {
	switch a {
	case ActionScrubForward:
		return "scrub-forward"
	case ActionScrubBack:
		return "scrub-back"
	case ActionOctaveUp:
		return "octave-up"
	case ActionOctaveDown:
		return "octave-down"
	case ActionTogglePause:
		return "pause"
	case ActionReset:
		return "reset"
	case ActionPanic:
		return "panic"
	case ActionToggleMode:
		return "mode"
	}
	return "none"
}

// DefaultBindings avoids every key either mapping uses for notes.
func DefaultBindings() map[string]Action {
	return map[string]Action{
		"right":     ActionScrubForward,
		"left":      ActionScrubBack,
		"up":        ActionOctaveUp,
		"down":      ActionOctaveDown,
		"space":     ActionTogglePause,
		"home":      ActionReset,
		"delete":    ActionPanic,
		"tab":       ActionToggleMode,
		"backspace": ActionReset,
	}
}
