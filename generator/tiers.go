package generator

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"go-sightread/music"
)

// TierConfig drives song generation for one venue tier.
type TierConfig struct {
	Tier         int
	AlbumName    string
	Keys         []string
	Tempo        music.Range // BPM
	NoteLengths  []int       // SDQN, longest first
	NoteRange    int         // semitones either side of the tonic
	TonicOptions []int       // MIDI pitches
	NotesPerSong music.Range
	NumSets      int
	Progressions []string
	Arpeggios    bool
}

// Venue tiers, easiest first.
const (
	MinTier = 1
	MaxTier = 5
)

var tiers = [...]TierConfig{
	{
		Tier:         1,
		AlbumName:    "Open Mic Night",
		Keys:         []string{"C"},
		Tempo:        music.Range{Min: 60, Max: 70},
		NoteLengths:  []int{32, 16},
		NoteRange:    5,
		TonicOptions: []int{60},
		NotesPerSong: music.Range{Min: 8, Max: 16},
		NumSets:      4,
		Progressions: []string{"pop_basic"},
	},
	{
		Tier:         2,
		AlbumName:    "Coffee House",
		Keys:         []string{"C", "G", "F"},
		Tempo:        music.Range{Min: 65, Max: 80},
		NoteLengths:  []int{32, 16, 8},
		NoteRange:    7,
		TonicOptions: []int{60, 67},
		NotesPerSong: music.Range{Min: 12, Max: 20},
		NumSets:      5,
		Progressions: []string{"pop_basic", "fifties"},
	},
	{
		Tier:         3,
		AlbumName:    "Jazz Club",
		Keys:         []string{"C", "G", "F", "D", "Bb", "Am", "Dm"},
		Tempo:        music.Range{Min: 70, Max: 95},
		NoteLengths:  []int{16, 8, 4},
		NoteRange:    9,
		TonicOptions: []int{55, 60, 64},
		NotesPerSong: music.Range{Min: 16, Max: 28},
		NumSets:      5,
		Progressions: []string{"ii_V_I", "jazz_turnaround", "pop_basic"},
		Arpeggios:    true,
	},
	{
		Tier:         4,
		AlbumName:    "Concert Hall",
		Keys:         []string{"C", "G", "F", "D", "Bb", "A", "Eb", "Am", "Em", "Dm", "Gm"},
		Tempo:        music.Range{Min: 80, Max: 110},
		NoteLengths:  []int{16, 8, 4},
		NoteRange:    12,
		TonicOptions: []int{55, 60, 67},
		NotesPerSong: music.Range{Min: 24, Max: 36},
		NumSets:      6,
		Progressions: []string{"pop_basic", "fifties", "ii_V_I", "minor_pop", "blues"},
		Arpeggios:    true,
	},
	{
		Tier:         5,
		AlbumName:    "Stadium Tour",
		Keys:         music.Keys(),
		Tempo:        music.Range{Min: 90, Max: 130},
		NoteLengths:  []int{8, 4, 2},
		NoteRange:    14,
		TonicOptions: []int{52, 60, 67},
		NotesPerSong: music.Range{Min: 32, Max: 48},
		NumSets:      6,
		Progressions: ProgressionNames(),
		Arpeggios:    true,
	},
}

// Tier returns the config for a tier in MinTier..MaxTier.
func Tier(n int) (TierConfig, bool) {
	if n < MinTier || n > MaxTier {
		return TierConfig{}, false
	}
	return tiers[n-1], true
}

// FallbackProgression is used when a config names none or an unknown one.
const FallbackProgression = "pop_basic"

var progressions = map[string]music.Progression{
	"pop_basic": {{Interval: 0, Quality: music.Major}, {Interval: 7, Quality: music.Major}, {Interval: 9, Quality: music.Minor}, {Interval: 5, Quality: music.Major}},
	"fifties":   {{Interval: 0, Quality: music.Major}, {Interval: 9, Quality: music.Minor}, {Interval: 5, Quality: music.Major}, {Interval: 7, Quality: music.Major}},
	"blues": {
		{Interval: 0, Quality: music.Dom7}, {Interval: 0, Quality: music.Dom7}, {Interval: 0, Quality: music.Dom7}, {Interval: 0, Quality: music.Dom7},
		{Interval: 5, Quality: music.Dom7}, {Interval: 5, Quality: music.Dom7}, {Interval: 0, Quality: music.Dom7}, {Interval: 0, Quality: music.Dom7},
		{Interval: 7, Quality: music.Dom7}, {Interval: 5, Quality: music.Dom7}, {Interval: 0, Quality: music.Dom7}, {Interval: 7, Quality: music.Dom7},
	},
	"ii_V_I":          {{Interval: 2, Quality: music.Min7}, {Interval: 7, Quality: music.Dom7}, {Interval: 0, Quality: music.Maj7}, {Interval: 0, Quality: music.Maj7}},
	"jazz_turnaround": {{Interval: 0, Quality: music.Maj7}, {Interval: 9, Quality: music.Min7}, {Interval: 2, Quality: music.Min7}, {Interval: 7, Quality: music.Dom7}},
	"minor_pop":       {{Interval: 0, Quality: music.Minor}, {Interval: 8, Quality: music.Major}, {Interval: 3, Quality: music.Major}, {Interval: 10, Quality: music.Major}},
}

// Progression looks up a named progression, falling back to pop_basic.
func Progression(name string) (music.Progression, bool) {
	p, ok := progressions[name]
	if !ok || len(p) == 0 {
		return progressions[FallbackProgression], false
	}
	return p, true
}

// ProgressionNames lists every known progression, sorted.
func ProgressionNames() []string {
	names := maps.Keys(progressions)
	slices.Sort(names)
	return names
}
