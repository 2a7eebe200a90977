package engine

import (
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"go-sightread/midi"
	"go-sightread/music"
	"go-sightread/score"
)

type backingKey struct {
	channel, pitch uint8
}

// Engine advances the play head through a song, drives playback and
// feeds the scorer. All methods are called from the host's frame loop.
type Engine struct {
	opts Options
	sink Sink

	song      *music.Song
	scorer    *score.Scorer
	musicTime float64
	running   bool
	tempo     float64
	complete  bool

	next       int                 // first player note not yet activated
	midiNotes  map[int]music.Note  // sounding playback notes by pitch
	playerDown map[int]bool        // held pitches
	queue      []midi.Event        // pending input
	cursors    map[int]int         // backing track -> next event
	backingOn  map[backingKey]bool // sounding backing notes
	progress   score.Progress
}

// New returns an engine with an empty song. A nil sink discards output.
func New(sink Sink, opts Options) *Engine {
	opts = opts.withDefaults()
	if sink == nil {
		sink = nopSink{}
	}
	e := &Engine{
		opts:   opts,
		sink:   sink,
		scorer: score.New(music.PointsPerNote, opts.Logger),
	}
	e.Load(music.NewSong())
	return e
}

// Load replaces the current song and resets playback. The engine is left stopped.
func (e *Engine) Load(song *music.Song) {
	e.silence()
	e.song = song
	e.tempo = song.Tempo
	if e.tempo <= 0 {
		e.tempo = music.DefaultTempo
	}
	e.scorer.SetMaxScore(song.MaxScore())
	e.rewind()
	e.running = false
	e.opts.Logger.Log("engine", "loaded %q: %d notes, %d backing tracks, %.0f bpm",
		song.Title, len(song.Notes), len(song.Backing), e.tempo)
	e.emit(Event{Kind: EventSongLoaded})
}

// Start sets the play head running.
func (e *Engine) Start() {
	if e.complete {
		return
	}
	e.running = true
}

// Stop halts the play head without moving it.
func (e *Engine) Stop() {
	e.running = false
}

// TogglePause flips between running and stopped.
func (e *Engine) TogglePause() {
	if e.running {
		e.Stop()
	} else {
		e.Start()
	}
}

// Reset stops playback, releases every sounding note and clears score state.
func (e *Engine) Reset() {
	e.running = false
	e.silence()
	e.rewind()
	e.queue = nil
	e.opts.Logger.Log("engine", "reset")
	e.emit(Event{Kind: EventReset})
}

// Panic sends note-off for all 128 pitches on every channel the song uses.
func (e *Engine) Panic() {
	channels := map[uint8]bool{e.opts.Channel: true}
	for k := range e.backingOn {
		channels[k.channel] = true
	}
	for _, events := range e.song.Backing {
		for _, ev := range events {
			channels[ev.Channel] = true
		}
	}
	for pitch := range e.midiNotes {
		e.scorer.OnPlayableNoteOff(pitch)
	}
	e.midiNotes = make(map[int]music.Note)
	e.backingOn = make(map[backingKey]bool)

	chans := maps.Keys(channels)
	slices.Sort(chans)
	for _, ch := range chans {
		for p := 0; p <= music.MaxPitch; p++ {
			e.sink.Send(midi.NoteOffEvent(ch, uint8(p)))
		}
	}
	e.opts.Logger.Log("engine", "panic on %d channels", len(chans))
}

// Queue buffers a player input event for the next Update.
func (e *Engine) Queue(ev midi.Event) {
	e.queue = append(e.queue, ev)
}

// Update runs one frame: drain input, advance, note-ons, note-offs,
// backing, completion, then score accrual while running.
func (e *Engine) Update(dt float64) {
	e.drainInput()

	if e.running {
		step := dt * music.SDQNotesPerBeat * e.tempo / 60
		e.musicTime += step
		if e.opts.Mode == PauseAndLearn && e.scorer.Unfulfilled() {
			e.musicTime -= step
		}
	}

	e.activateNotes()
	e.releaseNotes(false)
	e.dispatchBacking()

	if e.running && e.musicTime >= float64(e.song.Length()+CompletionTail) {
		e.finish()
	}

	if e.running {
		e.scorer.Accrue(dt, e.tempo, e.isDown)
	}
	e.progress = e.scorer.Progress()
	for _, t := range e.progress.NewlyFilled {
		e.opts.Logger.Log("engine", "trophy %s at %.1f", t, e.musicTime)
		e.emit(Event{Kind: EventTrophy, Trophy: t})
	}
}

func (e *Engine) drainInput() {
	for _, ev := range e.queue {
		pitch := int(ev.Note)
		switch {
		case ev.IsNoteOn():
			e.playerDown[pitch] = true
			e.scorer.OnPlayerNoteOn(pitch, e.musicTime)
			e.emit(Event{Kind: EventPlayerNoteOn, Pitch: pitch})
		case ev.IsNoteOff():
			delete(e.playerDown, pitch)
			e.emit(Event{Kind: EventPlayerNoteOff, Pitch: pitch})
		}
	}
	e.queue = e.queue[:0]
}

func (e *Engine) activateNotes() {
	notes := e.song.Notes
	for e.next < len(notes) && float64(notes[e.next].Start) <= e.musicTime {
		n := notes[e.next]
		e.next++
		if _, sounding := e.midiNotes[n.Pitch]; sounding {
			e.release(n.Pitch)
		}
		e.midiNotes[n.Pitch] = n
		e.sink.Send(midi.NoteOnEvent(e.opts.Channel, uint8(n.Pitch), PlaybackVelocity))
		_, held := e.playerDown[n.Pitch]
		e.scorer.OnPlayableNoteOn(n, e.musicTime, held)
		e.emit(Event{Kind: EventNoteOn, Note: n})
	}
}

// releaseNotes ends sounding notes whose end has passed, or all of them.
func (e *Engine) releaseNotes(all bool) {
	pitches := maps.Keys(e.midiNotes)
	slices.Sort(pitches)
	for _, p := range pitches {
		if all || float64(e.midiNotes[p].End()) <= e.musicTime {
			e.release(p)
		}
	}
}

func (e *Engine) release(pitch int) {
	n := e.midiNotes[pitch]
	delete(e.midiNotes, pitch)
	e.sink.Send(midi.NoteOffEvent(e.opts.Channel, uint8(pitch)))
	e.scorer.OnPlayableNoteOff(pitch)
	e.emit(Event{Kind: EventNoteOff, Note: n})
}

func (e *Engine) dispatchBacking() {
	tpb := e.song.TicksPerBeat
	if tpb <= 0 {
		tpb = music.SDQNotesPerBeat
	}
	limit := e.musicTime * float64(tpb) / music.SDQNotesPerBeat
	for _, track := range e.backingTracks() {
		events := e.song.Backing[track]
		i := e.cursors[track]
		for ; i < len(events) && float64(events[i].Tick) <= limit; i++ {
			e.sendBacking(events[i])
		}
		e.cursors[track] = i
	}
}

func (e *Engine) sendBacking(ev music.BackingEvent) {
	k := backingKey{ev.Channel, ev.Pitch}
	if ev.On && ev.Velocity > 0 {
		e.backingOn[k] = true
		e.sink.Send(midi.NoteOnEvent(ev.Channel, ev.Pitch, ev.Velocity))
		return
	}
	delete(e.backingOn, k)
	e.sink.Send(midi.NoteOffEvent(ev.Channel, ev.Pitch))
}

func (e *Engine) backingTracks() []int {
	tracks := maps.Keys(e.song.Backing)
	slices.Sort(tracks)
	return tracks
}

func (e *Engine) finish() {
	e.running = false
	e.complete = true
	e.releaseNotes(true)
	e.releaseBacking()
	res := e.scorer.Result()
	e.opts.Logger.Log("engine", "song complete: %.1f/%.0f %s", e.scorer.Score(), e.scorer.MaxScore(), res)
	e.emit(Event{Kind: EventSongComplete, Result: res})
}

func (e *Engine) releaseBacking() {
	keys := maps.Keys(e.backingOn)
	slices.SortFunc(keys, func(a, b backingKey) bool {
		if a.channel != b.channel {
			return a.channel < b.channel
		}
		return a.pitch < b.pitch
	})
	for _, k := range keys {
		e.sink.Send(midi.NoteOffEvent(k.channel, k.pitch))
	}
	e.backingOn = make(map[backingKey]bool)
}

// silence releases every sounding note, playback and backing.
func (e *Engine) silence() {
	if e.midiNotes != nil {
		e.releaseNotes(true)
	}
	if e.backingOn != nil {
		e.releaseBacking()
	}
}

// rewind zeroes the play head, cursors, held keys and score.
func (e *Engine) rewind() {
	e.musicTime = 0
	e.complete = false
	e.next = 0
	e.midiNotes = make(map[int]music.Note)
	e.playerDown = make(map[int]bool)
	e.cursors = make(map[int]int)
	e.backingOn = make(map[backingKey]bool)
	e.scorer.Reset()
	e.progress = score.Progress{}
}

// Seek moves the play head by delta SDQN, clamped at zero. Sounding notes
// are released and notes already under the new position are skipped.
func (e *Engine) Seek(delta float64) {
	e.silence()
	e.musicTime = max(e.musicTime+delta, 0)
	e.next = sort.Search(len(e.song.Notes), func(i int) bool {
		return float64(e.song.Notes[i].Start) >= e.musicTime
	})
	tpb := e.song.TicksPerBeat
	if tpb <= 0 {
		tpb = music.SDQNotesPerBeat
	}
	limit := e.musicTime * float64(tpb) / music.SDQNotesPerBeat
	for track, events := range e.song.Backing {
		e.cursors[track] = sort.Search(len(events), func(i int) bool {
			return float64(events[i].Tick) > limit
		})
	}
	if e.musicTime < float64(e.song.Length()+CompletionTail) {
		e.complete = false
	}
	e.opts.Logger.Log("engine", "seek %+.1f -> %.1f", delta, e.musicTime)
}

// Upcoming returns notes overlapping [music time, music time + window), in start order.
func (e *Engine) Upcoming(window int) []music.Note {
	var out []music.Note
	hi := e.musicTime + float64(window)
	for _, n := range e.song.Notes {
		if float64(n.Start) >= hi {
			break
		}
		if float64(n.End()) > e.musicTime {
			out = append(out, n)
		}
	}
	return out
}

func (e *Engine) emit(ev Event) {
	if e.opts.OnEvent == nil {
		return
	}
	ev.Time = e.musicTime
	e.opts.OnEvent(ev)
}

func (e *Engine) isDown(pitch int) bool {
	_, ok := e.playerDown[pitch]
	return ok
}

func (e *Engine) MusicTime() float64       { return e.musicTime }
func (e *Engine) Running() bool            { return e.running }
func (e *Engine) Complete() bool           { return e.complete }
func (e *Engine) Tempo() float64           { return e.tempo }
func (e *Engine) Song() *music.Song        { return e.song }
func (e *Engine) Scorer() *score.Scorer    { return e.scorer }
func (e *Engine) Progress() score.Progress { return e.progress }
func (e *Engine) NoteWidth() int           { return e.opts.NoteWidth }
func (e *Engine) Mode() Mode               { return e.opts.Mode }

// SetMode switches between normal and pause-and-learn play.
func (e *Engine) SetMode(m Mode) { e.opts.Mode = m }

// SetTempo overrides the song tempo for the rest of playback.
func (e *Engine) SetTempo(bpm float64) {
	if bpm > 0 {
		e.tempo = bpm
	}
}

// PlayerDown returns the held pitches in ascending order.
func (e *Engine) PlayerDown() []int {
	keys := maps.Keys(e.playerDown)
	slices.Sort(keys)
	return keys
}

// Sounding returns the pitches of playback notes currently on.
func (e *Engine) Sounding() []int {
	keys := maps.Keys(e.midiNotes)
	slices.Sort(keys)
	return keys
}
