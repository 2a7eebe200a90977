package songbook

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"go-sightread/music"
)

// Version is the current on-disk book version.
const Version = 3

var ErrNotFound = errors.New("song not found")

// Book is the root container of albums plus player preferences.
type Book struct {
	Version          int                `json:"bookVersion"`
	Albums           []*music.Album     `json:"albums"`
	DefaultSongTitle string             `json:"defaultSongTitle"`
	InputDevice      string             `json:"inputDevice"`
	OutputDevice     string             `json:"outputDevice"`
	SongScores       map[string]float64 `json:"songScores"` // best score by song id
}

func New() *Book {
	return &Book{
		Version:    Version,
		SongScores: make(map[string]float64),
	}
}

// AddAlbum appends a new album. Duplicate names are allowed.
func (b *Book) AddAlbum(name string) *music.Album {
	a := music.NewAlbum(name)
	b.Albums = append(b.Albums, a)
	return a
}

// Album returns the first album with the name, or nil.
func (b *Book) Album(name string) *music.Album {
	for _, a := range b.Albums {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AddUpdateSong stores a song in the named album, creating the album if
// needed. Songs without an id are given one.
func (b *Book) AddUpdateSong(album string, song *music.Song) {
	if album == "" {
		album = music.DefaultAlbumName
	}
	a := b.Album(album)
	if a == nil {
		a = b.AddAlbum(album)
	}
	a.AddUpdateSong(song)
	if song.ID == "" {
		song.ID = uuid.New().String()
	}
	song.Dirty = false
}

// Find returns the first song with the title and the album holding it.
func (b *Book) Find(title string) (*music.Song, *music.Album, error) {
	for _, a := range b.Albums {
		if s := a.Find(title); s != nil {
			return s, a, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, title)
}

// Delete removes the first song with the title and its high score.
func (b *Book) Delete(title string) error {
	for _, a := range b.Albums {
		if s := a.Find(title); s != nil {
			delete(b.SongScores, s.ID)
			a.Delete(title)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, title)
}

// DefaultSong finds the song titled DefaultSongTitle, else the first song
// of the first album.
func (b *Book) DefaultSong() (*music.Song, bool) {
	if b.DefaultSongTitle != "" {
		if s, _, err := b.Find(b.DefaultSongTitle); err == nil {
			return s, true
		}
	}
	for _, a := range b.Albums {
		if len(a.Songs) > 0 {
			return a.Songs[0], true
		}
		break
	}
	return nil, false
}

// Validate fills fields a decoded book may lack.
func (b *Book) Validate() {
	if b.Version == 0 {
		b.Version = Version
	}
	if b.SongScores == nil {
		b.SongScores = make(map[string]float64)
	}
	for _, a := range b.Albums {
		if a.Name == "" {
			a.Name = music.DefaultAlbumName
		}
		kept := a.Songs[:0]
		for _, s := range a.Songs {
			if s == nil {
				continue
			}
			validateSong(s)
			kept = append(kept, s)
		}
		a.Songs = kept
	}
}

func validateSong(s *music.Song) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Tempo <= 0 {
		s.Tempo = music.DefaultTempo
	}
	if s.TimeSignature.Numerator == 0 || s.TimeSignature.Denominator == 0 {
		s.TimeSignature = music.TimeSignature{Numerator: 4, Denominator: 4}
	}
	if s.KeySignature == "" {
		s.KeySignature = music.DefaultKeySignature
	}
	if s.TicksPerBeat <= 0 {
		s.TicksPerBeat = music.SDQNotesPerBeat
	}
	if s.TrackNames == nil {
		s.TrackNames = make(map[int]string)
	}
	if s.Backing == nil {
		s.Backing = make(map[int][]music.BackingEvent)
	}
}

// Sort orders albums by their total max score, smallest first.
func (b *Book) Sort() {
	sort.SliceStable(b.Albums, func(i, j int) bool {
		return b.Albums[i].MaxScore() < b.Albums[j].MaxScore()
	})
}

// RecordScore keeps the best score per song and reports a new best.
func (b *Book) RecordScore(song *music.Song, score float64) bool {
	if song.ID == "" {
		return false
	}
	if prev, ok := b.SongScores[song.ID]; ok && prev >= score {
		return false
	}
	b.SongScores[song.ID] = score
	return true
}

// BestScore is the recorded best for a song, 0 when never played.
func (b *Book) BestScore(song *music.Song) float64 {
	return b.SongScores[song.ID]
}

// Len counts every song in the book.
func (b *Book) Len() int {
	n := 0
	for _, a := range b.Albums {
		n += len(a.Songs)
	}
	return n
}
