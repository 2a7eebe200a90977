package score

import (
	"math"
	"sort"

	"go-sightread/debug"
	"go-sightread/music"
)

const (
	// Per-note ceiling is length/128*100 points, never less than MinNotePoints.
	FullNoteLength = 128
	MinNotePoints  = 5

	// Timing error (SDQN) at which accuracy bottoms out.
	AccuracyWindow = 2.0
	MinAccuracy    = 0.5

	epsilon = 1e-9
)

// Entry is a currently scorable note.
type Entry struct {
	Pitch         int
	Start         float64 // note start, SDQN
	End           float64 // note end, SDQN
	Length        int
	MaxPossible   float64
	PlayerStarted float64
	Started       bool // PlayerStarted is set
	Earned        float64
}

// Fulfilled reports whether the entry has earned everything it can.
func (e Entry) Fulfilled() bool {
	return e.Earned >= e.MaxPossible-epsilon
}

// MaxPossible is the per-note point ceiling for a note length.
func MaxPossible(length int) float64 {
	return math.Max(float64(length)/FullNoteLength*100, MinNotePoints)
}

// Accuracy maps a start-time error in SDQN to a multiplier in [0.5, 1].
func Accuracy(timingError float64) float64 {
	return music.Clamp(1.0-math.Abs(timingError)/AccuracyWindow, MinAccuracy, 1.0)
}

// Progress is the trophy state after a frame.
type Progress struct {
	Filled      int     // trophies fully earned
	Fraction    float64 // progress toward the first unfilled trophy, 0..1
	NewlyFilled []Trophy
}

// Scorer accrues points for held notes matching scorable notes.
type Scorer struct {
	entries  map[int]*Entry
	score    float64
	maxScore float64
	filled   int
	log      debug.Logger
}

// New returns a scorer for a song worth maxScore points.
func New(maxScore int, log debug.Logger) *Scorer {
	if log == nil {
		log = debug.Nop
	}
	return &Scorer{
		entries:  make(map[int]*Entry),
		maxScore: float64(max(maxScore, 1)),
		log:      log,
	}
}

// SetMaxScore changes the song ceiling and clears all score state.
func (s *Scorer) SetMaxScore(maxScore int) {
	s.maxScore = float64(max(maxScore, 1))
	s.Reset()
}

// Reset clears entries, score and trophies.
func (s *Scorer) Reset() {
	s.entries = make(map[int]*Entry)
	s.score = 0
	s.filled = 0
}

func (s *Scorer) Score() float64    { return s.score }
func (s *Scorer) MaxScore() float64 { return s.maxScore }

// Percent is score / max score in 0..1.
func (s *Scorer) Percent() float64 {
	return s.score / s.maxScore
}

// Result is the verdict for the current score.
func (s *Scorer) Result() Result {
	return ResultFor(s.Percent())
}

// OnPlayableNoteOn registers a fresh scorable entry for the note. If the
// player already holds the pitch, their start is taken as now.
func (s *Scorer) OnPlayableNoteOn(n music.Note, now float64, held bool) {
	e := &Entry{
		Pitch:       n.Pitch,
		Start:       float64(n.Start),
		End:         float64(n.End()),
		Length:      n.Length,
		MaxPossible: MaxPossible(n.Length),
	}
	if held {
		e.PlayerStarted = now
		e.Started = true
	}
	s.entries[n.Pitch] = e
	s.log.Log("score", "scorable %s max=%.2f held=%v", n, e.MaxPossible, held)
}

// OnPlayerNoteOn stamps the player's start on a matching scorable entry.
func (s *Scorer) OnPlayerNoteOn(pitch int, now float64) {
	e, ok := s.entries[pitch]
	if !ok {
		return
	}
	e.PlayerStarted = now
	e.Started = true
}

// OnPlayableNoteOff retires the entry for the pitch.
func (s *Scorer) OnPlayableNoteOff(pitch int) {
	if e, ok := s.entries[pitch]; ok {
		s.log.Log("score", "retire %s earned=%.2f/%.2f", music.PitchName(pitch), e.Earned, e.MaxPossible)
	}
	delete(s.entries, pitch)
}

// Accrue awards points for one frame. dt is real seconds, tempo in BPM,
// held reports which pitches the player is holding.
func (s *Scorer) Accrue(dt, tempo float64, held func(pitch int) bool) {
	dt32 := dt * music.SDQNotesPerBeat * tempo / 60
	if dt32 <= 0 {
		return
	}
	for pitch, e := range s.entries {
		if !e.Started || !held(pitch) {
			continue
		}
		rate := e.MaxPossible / float64(max(e.Length, 1))
		acc := Accuracy(e.PlayerStarted - e.Start)
		inc := math.Min(rate*acc*dt32, e.MaxPossible-e.Earned)
		if inc <= 0 {
			continue
		}
		e.Earned += inc
		s.score += math.Min(inc, s.maxScore-s.score)
	}
}

// Progress reports trophy state, noting trophies filled since the last call.
func (s *Scorer) Progress() Progress {
	var p Progress
	prev := 0.0
	for i, t := range Trophies {
		need := t.Threshold * s.maxScore
		if s.score >= need-epsilon {
			p.Filled = i + 1
			prev = need
			continue
		}
		p.Fraction = music.Clamp((s.score-prev)/(need-prev), 0, 1)
		break
	}
	if p.Filled == len(Trophies) {
		p.Fraction = 1
	}
	for i := s.filled; i < p.Filled; i++ {
		p.NewlyFilled = append(p.NewlyFilled, Trophies[i].Trophy)
	}
	s.filled = p.Filled
	return p
}

// Entry returns a copy of the scorable entry for the pitch.
func (s *Scorer) Entry(pitch int) (Entry, bool) {
	e, ok := s.entries[pitch]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns copies of all scorable entries ordered by pitch.
func (s *Scorer) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pitch < out[j].Pitch })
	return out
}

// Unfulfilled reports whether any scorable note is still short of its maximum.
func (s *Scorer) Unfulfilled() bool {
	for _, e := range s.entries {
		if !e.Fulfilled() {
			return true
		}
	}
	return false
}
