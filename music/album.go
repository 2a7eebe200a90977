package music

// DefaultAlbumName holds songs imported without an album.
const DefaultAlbumName = "My Songs"

// Album is a named, ordered collection of songs.
type Album struct {
	Name  string  `json:"name"`
	Songs []*Song `json:"songs"`
}

func NewAlbum(name string) *Album {
	if name == "" {
		name = DefaultAlbumName
	}
	return &Album{Name: name}
}

// AddUpdateSong replaces a song with the same title, or appends it.
func (a *Album) AddUpdateSong(song *Song) {
	for i, s := range a.Songs {
		if s.Title == song.Title {
			if song.ID == "" {
				song.ID = s.ID
			}
			a.Songs[i] = song
			return
		}
	}
	a.Songs = append(a.Songs, song)
}

// Find returns the first song with the title, or nil.
func (a *Album) Find(title string) *Song {
	for _, s := range a.Songs {
		if s.Title == title {
			return s
		}
	}
	return nil
}

// Delete removes the first song with the title.
func (a *Album) Delete(title string) bool {
	for i, s := range a.Songs {
		if s.Title == title {
			a.Songs = append(a.Songs[:i], a.Songs[i+1:]...)
			return true
		}
	}
	return false
}

// MaxScore sums the max score of every song.
func (a *Album) MaxScore() int {
	total := 0
	for _, s := range a.Songs {
		total += s.MaxScore()
	}
	return total
}
