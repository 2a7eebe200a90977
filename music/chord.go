package music

// ChordQuality names a chord's interval set.
type ChordQuality string

const (
	Major ChordQuality = "major"
	Minor ChordQuality = "minor"
	Maj7  ChordQuality = "maj7"
	Min7  ChordQuality = "min7"
	Dom7  ChordQuality = "dom7"
)

var chordIntervals = map[ChordQuality][]int{
	Major: {0, 4, 7},
	Minor: {0, 3, 7},
	Maj7:  {0, 4, 7, 11},
	Min7:  {0, 3, 7, 10},
	Dom7:  {0, 4, 7, 10},
}

// Intervals returns semitone offsets from the root. Unknown qualities fall
// back to major and report false.
func (q ChordQuality) Intervals() ([]int, bool) {
	iv, ok := chordIntervals[q]
	if !ok {
		return chordIntervals[Major], false
	}
	return iv, true
}

// ChordStep is one chord of a progression.
type ChordStep struct {
	Interval int          `json:"interval"` // semitones from the key root
	Quality  ChordQuality `json:"quality"`
}

// Progression is an ordered list of chord steps.
type Progression []ChordStep
