package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"go-sightread/debug"
	"go-sightread/music"
)

var ErrUnknownTier = errors.New("unknown tier")

// Generation constants.
const (
	MinPhrase         = 4
	MaxPhrase         = 8
	ArpeggioPoint     = 0.5 // fraction of notes after which arpeggios may appear
	ShortenPoint      = 0.6 // progress after which the longest note length is dropped
	TonicChangeChance = 0.3
	ChordLength       = 32
	EmptySongLength   = 128
	BackingTrack      = 1
	BackingChannel    = 1
	BackingVelocity   = 70
	PlayerTrack       = 0
)

// Effective is a tier config resolved for one set index.
type Effective struct {
	TierConfig
	SetIndex int
	Progress float64
	BPM      int
	NumNotes int
}

// EffectiveConfig scales a tier's ranges by how far into the venue the set is.
func EffectiveConfig(tier, set int) (Effective, error) {
	cfg, ok := Tier(tier)
	if !ok {
		return Effective{}, fmt.Errorf("%w: %d", ErrUnknownTier, tier)
	}
	if set < 0 || set >= cfg.NumSets {
		return Effective{}, fmt.Errorf("tier %d has no set %d", tier, set)
	}
	progress := float64(set) / float64(max(cfg.NumSets-1, 1))
	eff := Effective{
		TierConfig: cfg,
		SetIndex:   set,
		Progress:   progress,
		BPM:        int(math.Round(music.Lerp(cfg.Tempo.Min, cfg.Tempo.Max, progress))),
		NumNotes:   int(math.Round(music.Lerp(cfg.NotesPerSong.Min, cfg.NotesPerSong.Max, progress))),
	}
	eff.NoteLengths = append([]int(nil), cfg.NoteLengths...)
	if progress > ShortenPoint && len(eff.NoteLengths) > 1 {
		eff.NoteLengths = eff.NoteLengths[1:]
	}
	return eff, nil
}

// Generator builds practice songs from tier configs.
type Generator struct {
	rng *rand.Rand
	log debug.Logger
}

// New returns a generator drawing from rng. A nil rng is seeded from the clock.
func New(rng *rand.Rand, log debug.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if log == nil {
		log = debug.Nop
	}
	return &Generator{rng: rng, log: log}
}

// GenerateSet builds the song for one set of a tier.
func (g *Generator) GenerateSet(tier, set int) (*music.Song, error) {
	eff, err := EffectiveConfig(tier, set)
	if err != nil {
		return nil, err
	}
	s := music.NewSong()
	s.Artist = eff.AlbumName
	s.Tempo = float64(eff.BPM)
	s.TicksPerBeat = music.SDQNotesPerBeat
	s.PlayerTrack = PlayerTrack
	s.TrackNames = map[int]string{PlayerTrack: "Melody", BackingTrack: "Chords"}
	if len(eff.Keys) > 0 {
		s.KeySignature = eff.Keys[g.rng.Intn(len(eff.Keys))]
	}
	s.Title = fmt.Sprintf("Set %d in %s", set+1, s.KeySignature)
	key := s.Key()

	g.melody(s, key, eff)
	prog := g.backing(s, key, eff)
	s.Dirty = false

	g.log.Log("generator", "tier %d set %d: %q %d notes at %d bpm, %s",
		tier, set, s.Title, len(s.Notes), eff.BPM, prog)
	return s, nil
}

// RegenerateSet builds a fresh song for a set, used for a retry after a bomb.
func (g *Generator) RegenerateSet(tier, set int) (*music.Song, error) {
	return g.GenerateSet(tier, set)
}

// VenueAlbum builds every set of a tier into an album named after the venue.
func (g *Generator) VenueAlbum(tier int) (*music.Album, error) {
	cfg, ok := Tier(tier)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, tier)
	}
	album := music.NewAlbum(cfg.AlbumName)
	for i := 0; i < cfg.NumSets; i++ {
		s, err := g.GenerateSet(tier, i)
		if err != nil {
			return nil, err
		}
		album.Songs = append(album.Songs, s)
	}
	return album, nil
}

func (g *Generator) melody(s *music.Song, key music.KeySignature, eff Effective) {
	tonic := g.pick(eff.TonicOptions, key.RootMIDI()+12)
	phraseLen := music.Clamp(eff.NumNotes/4, MinPhrase, MaxPhrase)
	half := float64(eff.NumNotes) * ArpeggioPoint

	for start, phrase := 0, 0; start < eff.NumNotes; start, phrase = start+phraseLen, phrase+1 {
		n := min(phraseLen, eff.NumNotes-start)
		offset := 0
		if phrase == 0 {
			offset = music.LeadIn
		} else if g.rng.Float64() < TonicChangeChance {
			tonic = g.pick(eff.TonicOptions, tonic)
		}

		allowed := inKeyAround(key, tonic, eff.NoteRange)
		if phrase > 0 && float64(start) >= half && eff.Arpeggios && n >= 4 {
			if tones := triadFrom(allowed, tonic); len(tones) == 3 {
				pattern := music.Arpeggio(g.rng.Intn(3))
				s.AddArpeggio(g.rng, pattern, tones, n, eff.NoteLengths, offset)
				continue
			}
		}
		s.AddRandomNotes(g.rng, n, eff.NoteLengths, allowed, offset)
	}
}

func (g *Generator) backing(s *music.Song, key music.KeySignature, eff Effective) string {
	name := FallbackProgression
	if len(eff.Progressions) > 0 {
		name = eff.Progressions[g.rng.Intn(len(eff.Progressions))]
	}
	prog, ok := Progression(name)
	if !ok {
		g.log.Log("generator", "unknown progression %q, using %s", name, FallbackProgression)
		name = FallbackProgression
	}

	end := EmptySongLength
	if last, ok := s.LastNote(); ok {
		end = last.End()
	}
	root := key.RootMIDI()
	for t, i := music.LeadIn, 0; t < end; t, i = t+ChordLength, i+1 {
		step := prog[i%len(prog)]
		s.AddBackingChord(BackingTrack, BackingChannel, t, ChordLength, root+step.Interval, step.Quality, BackingVelocity)
	}
	return name
}

func (g *Generator) pick(options []int, fallback int) int {
	if len(options) == 0 {
		return fallback
	}
	return options[g.rng.Intn(len(options))]
}

// inKeyAround lists the in-key pitches within tonic +/- spread, or just the
// tonic when none are.
func inKeyAround(key music.KeySignature, tonic, spread int) []int {
	var out []int
	for p := max(tonic-spread, 0); p <= min(tonic+spread, music.MaxPitch); p++ {
		if key.InKey(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []int{tonic}
	}
	return out
}

// triadFrom stacks thirds on the allowed pitch nearest the tonic.
func triadFrom(allowed []int, tonic int) []int {
	if len(allowed) == 0 {
		return nil
	}
	root := 0
	for i, p := range allowed {
		if abs(p-tonic) < abs(allowed[root]-tonic) {
			root = i
		}
	}
	if root+4 >= len(allowed) {
		root = max(len(allowed)-5, 0)
	}
	if root+4 >= len(allowed) {
		return nil
	}
	return []int{allowed[root], allowed[root+2], allowed[root+4]}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
