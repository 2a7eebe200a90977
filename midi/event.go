package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Controller numbers used on output
const (
	CCAllNotesOff uint8 = 123
)

// Event is a note or controller event flowing between the trainer and devices
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8
	Note     uint8 // note number, or controller number for CC
	Velocity uint8 // velocity, or controller value for CC
}

func NoteOnEvent(channel, note, velocity uint8) Event {
	return Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}
}

func NoteOffEvent(channel, note uint8) Event {
	return Event{Type: NoteOff, Channel: channel, Note: note}
}

// IsNoteOn reports a sounding note-on. Velocity 0 reads as a note-off.
func (e Event) IsNoteOn() bool {
	return e.Type == NoteOn && e.Velocity > 0
}

func (e Event) IsNoteOff() bool {
	return e.Type == NoteOff || (e.Type == NoteOn && e.Velocity == 0)
}

// Message converts the event to a wire message.
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
	return nil
}

// FromMessage decodes note and controller messages. Other messages return false.
func FromMessage(msg gomidi.Message) (Event, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return NoteOnEvent(ch, key, vel), true
	case msg.GetNoteEnd(&ch, &key):
		return NoteOffEvent(ch, key), true
	case msg.GetControlChange(&ch, &key, &vel):
		return Event{Type: CC, Channel: ch, Note: key, Velocity: vel}, true
	}
	return Event{}, false
}
