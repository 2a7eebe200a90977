package songbook

import (
	"encoding/json"
	"fmt"

	"go-sightread/debug"
	"go-sightread/music"
)

type rawBook map[string]json.RawMessage

// migrations[v] upgrades a version v book to v+1.
var migrations = map[int]func(rawBook) error{
	1: migrateLegacySongs,
	2: migrateDevicesAndScores,
}

// v1 kept a flat song list; move it into the default album.
func migrateLegacySongs(raw rawBook) error {
	var albums []*music.Album
	if data, ok := raw["albums"]; ok {
		if err := json.Unmarshal(data, &albums); err != nil {
			return fmt.Errorf("albums: %w", err)
		}
	}
	if data, ok := raw["songs"]; ok {
		var songs []*music.Song
		if err := json.Unmarshal(data, &songs); err != nil {
			return fmt.Errorf("legacy songs: %w", err)
		}
		if len(songs) > 0 {
			var target *music.Album
			for _, a := range albums {
				if a.Name == music.DefaultAlbumName {
					target = a
					break
				}
			}
			if target == nil {
				target = music.NewAlbum(music.DefaultAlbumName)
				albums = append(albums, target)
			}
			for _, s := range songs {
				target.AddUpdateSong(s)
			}
		}
		delete(raw, "songs")
	}
	data, err := json.Marshal(albums)
	if err != nil {
		return err
	}
	raw["albums"] = data
	return nil
}

// v3 added device names and per-song scores.
func migrateDevicesAndScores(raw rawBook) error {
	for key, def := range map[string]string{
		"inputDevice":  `""`,
		"outputDevice": `""`,
		"songScores":   `{}`,
	} {
		if _, ok := raw[key]; !ok {
			raw[key] = json.RawMessage(def)
		}
	}
	return nil
}

// Decode parses a saved book of any known version, migrating it forward.
func Decode(data []byte, log debug.Logger) (*Book, error) {
	if log == nil {
		log = debug.Nop
	}
	var raw rawBook
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse song book: %w", err)
	}
	version := 1
	if v, ok := raw["bookVersion"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return nil, fmt.Errorf("book version: %w", err)
		}
	}
	if version > Version {
		log.Log("songbook", "book version %d is newer than %d, loading what we can", version, Version)
	}
	for v := version; v < Version; v++ {
		m, ok := migrations[v]
		if !ok {
			continue
		}
		log.Log("songbook", "migrating book v%d -> v%d", v, v+1)
		if err := m(raw); err != nil {
			return nil, fmt.Errorf("migrate v%d: %w", v, err)
		}
	}
	raw["bookVersion"] = json.RawMessage(fmt.Sprint(Version))

	merged, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	b := New()
	if err := json.Unmarshal(merged, b); err != nil {
		return nil, fmt.Errorf("decode song book: %w", err)
	}
	b.Validate()
	return b, nil
}

// Encode serialises the book at the current version.
func (b *Book) Encode() ([]byte, error) {
	b.Version = Version
	return json.MarshalIndent(b, "", "  ")
}
