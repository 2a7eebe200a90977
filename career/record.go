package career

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go-sightread/music"
)

// Record is the persisted shape of a Career.
type Record struct {
	Fans              int           `json:"fans"`
	CurrentVenue      int           `json:"currentVenue"`
	CurrentSet        int           `json:"currentSet"`
	VenuesUnlocked    int           `json:"venuesUnlocked"`
	Active            bool          `json:"active"`
	CanSkipNext       bool          `json:"canSkipNext"`
	WorldTourComplete bool          `json:"worldTourComplete,omitempty"`
	SetsCompleted     map[int][]int `json:"setsCompleted"`
}

// Record snapshots the career.
func (c *Career) Record() Record {
	r := Record{
		Fans:              c.fans,
		CurrentVenue:      c.currentVenue,
		CurrentSet:        c.currentSet,
		VenuesUnlocked:    c.venuesUnlocked,
		Active:            c.active,
		CanSkipNext:       c.canSkipNext,
		WorldTourComplete: c.worldTour,
		SetsCompleted:     make(map[int][]int),
	}
	for venue := range c.setsCompleted {
		if sets := c.SetsCompleted(venue); len(sets) > 0 {
			r.SetsCompleted[venue] = sets
		}
	}
	return r
}

// Restore replaces the career's state with a record, repairing anything
// that breaks the venue and fan invariants.
func (c *Career) Restore(r Record) {
	c.fans = max(r.Fans, 0)
	c.venuesUnlocked = music.Clamp(r.VenuesUnlocked, FirstVenue, LastVenue)
	c.currentVenue = music.Clamp(r.CurrentVenue, FirstVenue, c.venuesUnlocked)
	c.currentSet = max(r.CurrentSet, 0)
	c.active = r.Active && c.fans > 0 && !r.WorldTourComplete
	c.canSkipNext = r.CanSkipNext
	c.worldTour = r.WorldTourComplete
	c.setsCompleted = make(map[int]map[int]bool)
	for venue, sets := range r.SetsCompleted {
		if venue < FirstVenue || venue > LastVenue {
			continue
		}
		for _, s := range sets {
			c.markComplete(venue, s)
		}
	}
}

// Save writes the career record as JSON, creating the directory.
func (c *Career) Save(path string) error {
	data, err := json.MarshalIndent(c.Record(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a saved career. A missing file leaves a never-started career.
func Load(path string, c *Career) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("parse career %s: %w", path, err)
	}
	c.Restore(r)
	c.log.Log("career", "loaded %s: %d fans, venue %d set %d", path, c.fans, c.currentVenue, c.currentSet)
	return nil
}
