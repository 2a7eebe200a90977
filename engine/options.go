package engine

import (
	"fmt"

	"go-sightread/debug"
	"go-sightread/midi"
)

// Mode selects how the play head treats unplayed notes.
type Mode int

const (
	// Normal runs the play head at tempo regardless of input.
	Normal Mode = iota
	// PauseAndLearn holds the play head until scorable notes are played.
	PauseAndLearn
)

func (m Mode) String() string {
	if m == PauseAndLearn {
		return "pause-and-learn"
	}
	return "normal"
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "normal":
		return Normal, nil
	case "pause-and-learn", "learn":
		return PauseAndLearn, nil
	}
	return Normal, fmt.Errorf("unknown play mode %q", s)
}

// Defaults for Options.
const (
	DefaultNoteWidth = 8
	PlaybackVelocity = 100
	// CompletionTail is how far past the last note end the song finishes.
	CompletionTail = 16
)

// Options is the configuration record handed to New.
type Options struct {
	Mode      Mode
	NoteWidth int   // SDQN per rendered column, read by renderers
	Channel   uint8 // output channel for player-track playback
	Logger    debug.Logger
	OnEvent   func(Event)
}

func (o Options) withDefaults() Options {
	if o.NoteWidth <= 0 {
		o.NoteWidth = DefaultNoteWidth
	}
	if o.Logger == nil {
		o.Logger = debug.Nop
	}
	return o
}

// Sink receives playback events. Send must not block.
type Sink interface {
	Send(ev midi.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(midi.Event)

func (f SinkFunc) Send(ev midi.Event) { f(ev) }

type nopSink struct{}

func (nopSink) Send(midi.Event) {}
