package music

import (
	"math/rand"
	"sort"
)

// Defaults for a fresh song.
const (
	DefaultTempo        = 60
	DefaultKeySignature = "C"
	PointsPerNote       = 10
	DefaultVelocity     = 100
)

// TimeSignature is numerator/denominator, e.g. 4/4.
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// BackingEvent is a raw note on/off on a non-player track, in source ticks.
type BackingEvent struct {
	Tick     int   `json:"tick"`
	On       bool  `json:"on"`
	Channel  uint8 `json:"channel"`
	Pitch    uint8 `json:"pitch"`
	Velocity uint8 `json:"velocity"`
}

// Song is the player's track plus backing tracks and metadata.
type Song struct {
	ID            string                 `json:"id,omitempty"`
	Artist        string                 `json:"artist"`
	Title         string                 `json:"title"`
	Path          string                 `json:"path,omitempty"`
	Tempo         float64                `json:"tempo"`
	TimeSignature TimeSignature          `json:"timeSignature"`
	KeySignature  string                 `json:"keySignature"`
	TicksPerBeat  int                    `json:"ticksPerBeat"`
	PlayerTrack   int                    `json:"playerTrack"`
	TrackNames    map[int]string         `json:"trackNames,omitempty"`
	Notes         []Note                 `json:"notes"`
	Backing       map[int][]BackingEvent `json:"backing,omitempty"`

	Dirty bool `json:"-"`
}

// NewSong returns an empty song with default metadata.
func NewSong() *Song {
	return &Song{
		Tempo:         DefaultTempo,
		TimeSignature: TimeSignature{Numerator: 4, Denominator: 4},
		KeySignature:  DefaultKeySignature,
		TicksPerBeat:  SDQNotesPerBeat,
		TrackNames:    make(map[int]string),
		Backing:       make(map[int][]BackingEvent),
	}
}

// MaxScore is max(|notes|, 1) * 10.
func (s *Song) MaxScore() int {
	return max(len(s.Notes), 1) * PointsPerNote
}

// Length is the end of the last-ending note, 0 for an empty song.
func (s *Song) Length() int {
	end := 0
	for _, n := range s.Notes {
		end = max(end, n.End())
	}
	return end
}

// LastNote returns the note with the greatest start time.
func (s *Song) LastNote() (Note, bool) {
	if len(s.Notes) == 0 {
		return Note{}, false
	}
	return s.Notes[len(s.Notes)-1], true
}

// Key resolves the song's key signature string.
func (s *Song) Key() KeySignature {
	k, _ := ParseKey(s.KeySignature)
	return k
}

// AppendNote inserts a note in start order. Notes shorter than MinNoteLength
// or outside the MIDI range are dropped and false is returned.
func (s *Song) AppendNote(pitch, start, length int) bool {
	if length < MinNoteLength || pitch < 0 || pitch > MaxPitch || start < 0 {
		return false
	}
	n := Note{Pitch: pitch, Start: start, Length: length}
	i := sort.Search(len(s.Notes), func(i int) bool { return s.Notes[i].Start > start })
	s.Notes = append(s.Notes, Note{})
	copy(s.Notes[i+1:], s.Notes[i:])
	s.Notes[i] = n
	s.Dirty = true
	return true
}

// FromRandom appends n notes with uniform pitch from allowed and uniform
// length/spacing from the inclusive ranges, starting at the song's tail.
func (s *Song) FromRandom(rng *rand.Rand, lengths, spacing Range, n int, allowed []int) int {
	if len(allowed) == 0 {
		return 0
	}
	cursor := s.Length()
	added := 0
	for i := 0; i < n; i++ {
		pitch := allowed[rng.Intn(len(allowed))]
		length := uniform(rng, lengths)
		if s.AppendNote(pitch, cursor, length) {
			added++
		}
		cursor += max(uniform(rng, spacing), 0)
	}
	return added
}

// AddRandomNotes appends n back-to-back notes after the tail plus offset,
// pitches and lengths drawn uniformly from the given lists.
func (s *Song) AddRandomNotes(rng *rand.Rand, n int, lengths, pitches []int, offset int) []Note {
	if len(lengths) == 0 || len(pitches) == 0 {
		return nil
	}
	cursor := s.Length() + offset
	var added []Note
	for i := 0; i < n; i++ {
		pitch := pitches[rng.Intn(len(pitches))]
		length := lengths[rng.Intn(len(lengths))]
		if s.AppendNote(pitch, cursor, length) {
			added = append(added, Note{Pitch: pitch, Start: cursor, Length: length})
		}
		cursor += length
	}
	return added
}

// Arpeggio is the direction an arpeggio walks its chord tones.
type Arpeggio int

const (
	ArpeggioUp Arpeggio = iota
	ArpeggioDown
	ArpeggioUpDown
)

func (a Arpeggio) String() string {
	switch a {
	case ArpeggioDown:
		return "down"
	case ArpeggioUpDown:
		return "up-down"
	}
	return "up"
}

// ArpeggioSequence expands tones (ascending) into the walk order of the pattern.
func ArpeggioSequence(pattern Arpeggio, tones []int) []int {
	up := append([]int(nil), tones...)
	sort.Ints(up)
	down := make([]int, len(up))
	for i, t := range up {
		down[len(up)-1-i] = t
	}
	switch pattern {
	case ArpeggioDown:
		return down
	case ArpeggioUpDown:
		if len(up) < 3 {
			return up
		}
		return append(up, down[1:len(down)-1]...)
	}
	return up
}

// AddArpeggio appends n notes cycling through the pattern's walk of tones,
// all with one length chosen from lengths.
func (s *Song) AddArpeggio(rng *rand.Rand, pattern Arpeggio, tones []int, n int, lengths []int, offset int) []Note {
	seq := ArpeggioSequence(pattern, tones)
	if len(seq) == 0 || len(lengths) == 0 {
		return nil
	}
	length := lengths[rng.Intn(len(lengths))]
	cursor := s.Length() + offset
	var added []Note
	for i := 0; i < n; i++ {
		pitch := seq[i%len(seq)]
		if s.AppendNote(pitch, cursor, length) {
			added = append(added, Note{Pitch: pitch, Start: cursor, Length: length})
		}
		cursor += length
	}
	return added
}

// AddBackingChord adds on/off events for every chord tone on a backing track.
func (s *Song) AddBackingChord(track int, channel uint8, start, length, root int, quality ChordQuality, velocity uint8) {
	if s.Backing == nil {
		s.Backing = make(map[int][]BackingEvent)
	}
	intervals, _ := quality.Intervals()
	events := s.Backing[track]
	for _, iv := range intervals {
		pitch := root + iv
		if pitch < 0 || pitch > MaxPitch {
			continue
		}
		events = append(events,
			BackingEvent{Tick: start, On: true, Channel: channel, Pitch: uint8(pitch), Velocity: velocity},
			BackingEvent{Tick: start + length, On: false, Channel: channel, Pitch: uint8(pitch)},
		)
	}
	SortBacking(events)
	s.Backing[track] = events
	s.Dirty = true
}

// SortBacking orders events by tick, note-offs before note-ons at equal ticks.
func SortBacking(events []BackingEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Tick != events[j].Tick {
			return events[i].Tick < events[j].Tick
		}
		return !events[i].On && events[j].On
	})
}

// Shift moves every player note by delta SDQN and every backing event by the
// same musical distance in source ticks.
func (s *Song) Shift(delta int) {
	for i := range s.Notes {
		s.Notes[i].Start += delta
	}
	ticks := s.sdqnToTicks(delta)
	for track, events := range s.Backing {
		for i := range events {
			events[i].Tick += ticks
		}
		s.Backing[track] = events
	}
}

func (s *Song) sdqnToTicks(sdqn int) int {
	tpb := s.TicksPerBeat
	if tpb <= 0 {
		tpb = SDQNotesPerBeat
	}
	return sdqn * tpb / SDQNotesPerBeat
}

// Triples returns a copy of the player notes as (pitch, start, length).
func (s *Song) Triples() []Note {
	out := make([]Note, len(s.Notes))
	copy(out, s.Notes)
	return out
}

// Clone deep-copies the song.
func (s *Song) Clone() *Song {
	c := *s
	c.Notes = s.Triples()
	c.TrackNames = make(map[int]string, len(s.TrackNames))
	for k, v := range s.TrackNames {
		c.TrackNames[k] = v
	}
	c.Backing = make(map[int][]BackingEvent, len(s.Backing))
	for k, v := range s.Backing {
		c.Backing[k] = append([]BackingEvent(nil), v...)
	}
	return &c
}

func uniform(rng *rand.Rand, r Range) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}
