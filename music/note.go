package music

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Timing constants. All internal times are in 32nd-notes (SDQN).
const (
	SDQNotesPerBeat = 8
	MinNoteLength   = 2
	MinVelocity     = 64
	LeadIn          = 32 // one 4/4 bar
	BarLength       = 32
	MaxPitch        = 127
)

// Decoration marks how a note is drawn. Several may be combined.
type Decoration uint8

const (
	Dotted Decoration = 1 << iota
	Natural
	Sharp
	Flat
	Tied
)

func (d Decoration) Has(flag Decoration) bool {
	return d&flag != 0
}

// Note is one player-track note.
type Note struct {
	Pitch      int        `json:"pitch"`
	Start      int        `json:"start"`  // SDQN from song start
	Length     int        `json:"length"` // SDQN, >= MinNoteLength
	Decoration Decoration `json:"decoration,omitempty"`
}

// End is the first SDQN after the note.
func (n Note) End() int {
	return n.Start + n.Length
}

func (n Note) String() string {
	return fmt.Sprintf("%s@%d+%d", PitchName(n.Pitch), n.Start, n.Length)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName renders a MIDI pitch as e.g. "C4" (60).
func PitchName(pitch int) string {
	if pitch < 0 {
		return fmt.Sprintf("?%d", pitch)
	}
	return fmt.Sprintf("%s%d", noteNames[pitch%12], pitch/12-1)
}

// PitchClass folds a pitch into 0..11.
func PitchClass(pitch int) int {
	pc := pitch % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}

// IsBlackKey reports whether the pitch class is one of {1,3,6,8,10}.
func IsBlackKey(pitch int) bool {
	switch PitchClass(pitch) {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b by t in [0, 1].
func Lerp[T constraints.Integer | constraints.Float](a, b T, t float64) float64 {
	return float64(a) + (float64(b)-float64(a))*t
}
