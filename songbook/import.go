package songbook

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go-sightread/debug"
	"go-sightread/music"
)

// IsMIDIFile reports a .mid or .midi extension.
func IsMIDIFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return true
	}
	return false
}

// Import loads a MIDI file, or every MIDI file under a directory, into the
// named album. Files that fail to load are logged and skipped. It returns
// the number of songs added or updated.
func Import(b *Book, path string, track int, album string, log debug.Logger) (int, error) {
	if log == nil {
		log = debug.Nop
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", music.ErrNoSuchFile, path)
	}

	var files []string
	if info.IsDir() {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Log("songbook", "walk %s: %v", p, err)
				return nil
			}
			if !d.IsDir() && IsMIDIFile(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	} else {
		files = []string{path}
	}

	added := 0
	for _, f := range files {
		song := music.NewSong()
		if err := song.FromMIDIFile(f, track); err != nil {
			log.Log("songbook", "skip %s: %v", f, err)
			continue
		}
		b.AddUpdateSong(album, song)
		added++
		log.Log("songbook", "imported %q by %q (%d notes)", song.Title, song.Artist, len(song.Notes))
	}
	return added, nil
}
