package input

import (
	"go-sightread/debug"
	"go-sightread/midi"
	"go-sightread/music"
)

// KeyVelocity is the velocity given to key and mouse presses.
const KeyVelocity = 100

// Options configures a Router.
type Options struct {
	Mapping  Mapping
	Channel  uint8
	Bindings map[string]Action // nil uses DefaultBindings
	// PitchAt resolves a cursor position to a pitch, false when off the staff.
	PitchAt func(x, y int) (int, bool)
	Logger  debug.Logger
}

// Router turns keyboard, mouse and MIDI input into note events and actions.
type Router struct {
	opts   Options
	octave int
	held   map[string]int // key -> sounding pitch
	mouse  int            // pitch held by the mouse, -1 for none
}

func New(opts Options) *Router {
	if opts.Bindings == nil {
		opts.Bindings = DefaultBindings()
	}
	if opts.Logger == nil {
		opts.Logger = debug.Nop
	}
	return &Router{opts: opts, held: make(map[string]int), mouse: -1}
}

func (r *Router) Mapping() Mapping { return r.opts.Mapping }
func (r *Router) Octave() int      { return r.octave }

// SetMapping switches layouts, releasing anything held under the old one.
func (r *Router) SetMapping(m Mapping) []midi.Event {
	out := r.ReleaseAll()
	r.opts.Mapping = m
	return out
}

// ShiftOctave moves the mapped range by delta octaves within 0..MaxOctave.
func (r *Router) ShiftOctave(delta int) {
	r.octave = music.Clamp(r.octave+delta, 0, MaxOctave)
}

// Key routes a key transition. A bound key yields its action on down and
// repeat; other keys yield note-on on down and note-off on up.
func (r *Router) Key(ev KeyEvent) ([]midi.Event, Action) {
	if act, ok := r.opts.Bindings[ev.Key]; ok {
		if ev.Kind == Up {
			return nil, ActionNone
		}
		switch act {
		case ActionOctaveUp:
			r.ShiftOctave(1)
		case ActionOctaveDown:
			r.ShiftOctave(-1)
		}
		r.opts.Logger.Log("input", "action %s (%s)", act, ev.Key)
		return nil, act
	}

	switch ev.Kind {
	case Down:
		if _, down := r.held[ev.Key]; down {
			return nil, ActionNone
		}
		pitch, ok := r.pitchFor(ev)
		if !ok {
			return nil, ActionNone
		}
		r.held[ev.Key] = pitch
		return []midi.Event{midi.NoteOnEvent(r.opts.Channel, uint8(pitch), KeyVelocity)}, ActionNone
	case Up:
		pitch, ok := r.held[ev.Key]
		if !ok {
			return nil, ActionNone
		}
		delete(r.held, ev.Key)
		return []midi.Event{midi.NoteOffEvent(r.opts.Channel, uint8(pitch))}, ActionNone
	}
	return nil, ActionNone
}

// Pitch resolves a key press under the current mapping without routing it.
func (r *Router) Pitch(ev KeyEvent) (int, bool) {
	return r.pitchFor(ev)
}

func (r *Router) pitchFor(ev KeyEvent) (int, bool) {
	base := BasePitch + 12*r.octave
	var pitch int
	switch r.opts.Mapping {
	case PianoRow:
		off, ok := pianoRowKeys[ev.Key]
		if !ok {
			return 0, false
		}
		pitch = base + off
	default:
		off, ok := noteNameKeys[ev.Key]
		if !ok {
			return 0, false
		}
		pitch = base + off
		switch {
		case ev.Mods.Shift():
			pitch++
		case ev.Mods.Ctrl():
			pitch--
		}
	}
	if pitch < 0 || pitch > music.MaxPitch {
		return 0, false
	}
	return pitch, true
}

// Mouse routes a button transition through PitchAt.
func (r *Router) Mouse(ev MouseEvent) []midi.Event {
	if !ev.Down {
		if r.mouse < 0 {
			return nil
		}
		p := r.mouse
		r.mouse = -1
		return []midi.Event{midi.NoteOffEvent(r.opts.Channel, uint8(p))}
	}
	if r.opts.PitchAt == nil {
		return nil
	}
	pitch, ok := r.opts.PitchAt(ev.X, ev.Y)
	if !ok || pitch < 0 || pitch > music.MaxPitch {
		return nil
	}
	var out []midi.Event
	if r.mouse >= 0 {
		out = append(out, midi.NoteOffEvent(r.opts.Channel, uint8(r.mouse)))
	}
	r.mouse = pitch
	return append(out, midi.NoteOnEvent(r.opts.Channel, uint8(pitch), KeyVelocity))
}

// MIDI normalises a device event. Velocity-0 note-ons become note-offs;
// anything but notes is dropped.
func (r *Router) MIDI(ev midi.Event) (midi.Event, bool) {
	switch {
	case ev.IsNoteOn():
		return ev, true
	case ev.IsNoteOff():
		return midi.NoteOffEvent(ev.Channel, ev.Note), true
	}
	return midi.Event{}, false
}

// ReleaseAll returns note-offs for every pitch held by keys or the mouse.
func (r *Router) ReleaseAll() []midi.Event {
	var out []midi.Event
	for key, pitch := range r.held {
		out = append(out, midi.NoteOffEvent(r.opts.Channel, uint8(pitch)))
		delete(r.held, key)
	}
	if r.mouse >= 0 {
		out = append(out, midi.NoteOffEvent(r.opts.Channel, uint8(r.mouse)))
		r.mouse = -1
	}
	return out
}

// Held reports the keys currently sounding a note.
func (r *Router) Held() map[string]int {
	out := make(map[string]int, len(r.held))
	for k, v := range r.held {
		out[k] = v
	}
	return out
}
