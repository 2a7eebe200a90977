package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KeyboardController handles a standard MIDI keyboard
type KeyboardController struct {
	id       string
	inPort   drivers.In
	channel  int // AnyChannel or 0-15
	stopFunc func()

	events chan Event
}

// NewKeyboardController creates a keyboard controller (input only).
// A nil port yields a controller fed only through handle, for tests.
func NewKeyboardController(id string, inPort drivers.In, channel int) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:      id,
		inPort:  inPort,
		channel: channel,
		events:  make(chan Event, 64),
	}

	// Open input
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			kb.handle(msg)
		})
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", id, err)
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

// handle forwards note-ons and note-offs; velocity-0 note-ons become note-offs.
func (kb *KeyboardController) handle(msg gomidi.Message) {
	ev, ok := FromMessage(msg)
	if !ok || ev.Type == CC {
		return
	}
	if kb.channel != AnyChannel && int(ev.Channel) != kb.channel {
		return
	}
	if ev.IsNoteOff() {
		ev = NoteOffEvent(ev.Channel, ev.Note)
	}
	select {
	case kb.events <- ev:
	default:
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Events() <-chan Event {
	return kb.events
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.events)
	return nil
}
