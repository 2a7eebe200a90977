package music

import (
	"sort"
	"strings"
)

// Accidental is the mark drawn before a note.
type Accidental int

const (
	AccidentalNone Accidental = iota
	AccidentalSharp
	AccidentalFlat
	AccidentalNatural
)

func (a Accidental) String() string {
	switch a {
	case AccidentalSharp:
		return "sharp"
	case AccidentalFlat:
		return "flat"
	case AccidentalNatural:
		return "natural"
	}
	return "none"
}

// Order in which sharps and flats are added to a key signature, as the
// pitch class of the letter being altered.
var (
	sharpOrder = []int{5, 0, 7, 2, 9, 4, 11} // F C G D A E B
	flatOrder  = []int{11, 4, 9, 2, 7, 0, 5} // B E A D G C F
)

// Accidental counts: positive = sharps, negative = flats.
var majorKeys = map[string]int{
	"C": 0, "G": 1, "D": 2, "A": 3, "E": 4, "B": 5, "F#": 6, "C#": 7,
	"F": -1, "Bb": -2, "Eb": -3, "Ab": -4, "Db": -5, "Gb": -6, "Cb": -7,
}

var minorKeys = map[string]int{
	"Am": 0, "Em": 1, "Bm": 2, "F#m": 3, "C#m": 4, "G#m": 5, "D#m": 6, "A#m": 7,
	"Dm": -1, "Gm": -2, "Cm": -3, "Fm": -4, "Bbm": -5, "Ebm": -6, "Abm": -7,
}

// Octave-3 MIDI pitch for each letter.
var rootMIDI = map[byte]int{'C': 48, 'D': 50, 'E': 52, 'F': 53, 'G': 55, 'A': 57, 'B': 59}

var (
	majorScale = []int{0, 2, 4, 5, 7, 9, 11}
	minorScale = []int{0, 2, 3, 5, 7, 8, 10}
)

// KeySignature resolves a key name into its altered letters.
type KeySignature struct {
	Name   string
	Minor  bool
	Sharps []int // pitch classes of sharped letters
	Flats  []int // pitch classes of flatted letters
}

// ParseKey looks a key name up in the major and minor tables. Unknown names
// resolve to C major and report false.
func ParseKey(name string) (KeySignature, bool) {
	name = strings.TrimSpace(name)
	count, ok := majorKeys[name]
	minor := false
	if !ok {
		count, ok = minorKeys[name]
		minor = ok
	}
	if !ok {
		return KeySignature{Name: DefaultKeySignature}, false
	}
	k := KeySignature{Name: name, Minor: minor}
	if count > 0 {
		k.Sharps = append([]int(nil), sharpOrder[:count]...)
	} else if count < 0 {
		k.Flats = append([]int(nil), flatOrder[:-count]...)
	}
	return k, true
}

// Keys lists every known key name, majors then minors.
func Keys() []string {
	var out []string
	for k := range majorKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	var minors []string
	for k := range minorKeys {
		minors = append(minors, k)
	}
	sort.Strings(minors)
	return append(out, minors...)
}

func (k KeySignature) hasSharp(pc int) bool {
	for _, s := range k.Sharps {
		if s == pc {
			return true
		}
	}
	return false
}

func (k KeySignature) hasFlat(pc int) bool {
	for _, f := range k.Flats {
		if f == pc {
			return true
		}
	}
	return false
}

// GetAccidental chooses the displayed staff pitch and mark for note, using the
// direction from prev (negative prev means no previous note, read as ascending).
func (k KeySignature) GetAccidental(note, prev int) (int, Accidental) {
	pc := PitchClass(note)
	if IsBlackKey(note) {
		ascending := prev < 0 || note >= prev
		if ascending {
			if k.hasSharp(PitchClass(note - 1)) {
				return note - 1, AccidentalNone
			}
			return note - 1, AccidentalSharp
		}
		if k.hasFlat(PitchClass(note + 1)) {
			return note + 1, AccidentalNone
		}
		return note - 1, AccidentalFlat
	}
	if k.hasSharp(pc) || k.hasFlat(pc) {
		return note, AccidentalNatural
	}
	return note, AccidentalNone
}

// RootPitchClass is the tonic pitch class of the key.
func (k KeySignature) RootPitchClass() int {
	return PitchClass(k.RootMIDI())
}

// RootMIDI maps the key's root letter to octave 3, adjusted for a #/b suffix.
func (k KeySignature) RootMIDI() int {
	name := k.Name
	if name == "" {
		name = DefaultKeySignature
	}
	root, ok := rootMIDI[name[0]]
	if !ok {
		return rootMIDI['C']
	}
	if len(name) > 1 {
		switch name[1] {
		case '#':
			root++
		case 'b':
			root--
		}
	}
	return root
}

// Scale returns the pitch classes of the key's scale (natural minor for minor keys).
func (k KeySignature) Scale() []int {
	steps := majorScale
	if k.Minor {
		steps = minorScale
	}
	root := k.RootPitchClass()
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = (root + s) % 12
	}
	return out
}

// InKey reports whether the pitch belongs to the key's scale.
func (k KeySignature) InKey(pitch int) bool {
	pc := PitchClass(pitch)
	for _, s := range k.Scale() {
		if s == pc {
			return true
		}
	}
	return false
}
