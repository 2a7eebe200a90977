package engine

import (
	"go-sightread/music"
	"go-sightread/score"
)

// EventKind tags an Event.
type EventKind int

const (
	EventSongLoaded EventKind = iota
	EventNoteOn               // playback note started, Note set
	EventNoteOff              // playback note ended, Note set
	EventPlayerNoteOn         // Pitch set
	EventPlayerNoteOff        // Pitch set
	EventTrophy               // Trophy set
	EventSongComplete         // Result set
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventSongLoaded:
		return "song-loaded"
	case EventNoteOn:
		return "note-on"
	case EventNoteOff:
		return "note-off"
	case EventPlayerNoteOn:
		return "player-note-on"
	case EventPlayerNoteOff:
		return "player-note-off"
	case EventTrophy:
		return "trophy"
	case EventSongComplete:
		return "song-complete"
	case EventReset:
		return "reset"
	}
	return "unknown"
}

// Event is published to Options.OnEvent. Only the fields named for the kind are set.
type Event struct {
	Kind   EventKind
	Time   float64 // music time when it happened
	Note   music.Note
	Pitch  int
	Trophy score.Trophy
	Result score.Result
}
