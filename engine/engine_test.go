package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sightread/midi"
	"go-sightread/music"
	"go-sightread/score"
)

const frame = 1.0 / 60

type recorder struct {
	events []midi.Event
}

func (r *recorder) Send(ev midi.Event) { r.events = append(r.events, ev) }

func (r *recorder) count(typ uint8, pitch int) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ && int(ev.Note) == pitch {
			n++
		}
	}
	return n
}

func oneNoteSong() *music.Song {
	s := music.NewSong()
	s.Title = "one"
	s.AppendNote(60, 0, 32)
	return s
}

// play runs frames until the song completes, pressing press at the start
// and releasing it once the play head reaches releaseAt.
func play(t *testing.T, e *Engine, press int, releaseAt float64) {
	t.Helper()
	e.Queue(midi.NoteOnEvent(0, uint8(press), 100))
	e.Start()
	released := false
	for i := 0; i < 10000 && !e.Complete(); i++ {
		e.Update(frame)
		assert.LessOrEqual(t, e.Scorer().Score(), e.Scorer().MaxScore())
		for _, en := range e.Scorer().Entries() {
			assert.LessOrEqual(t, en.Earned, en.MaxPossible+1e-9)
		}
		if !released && e.MusicTime() >= releaseAt {
			e.Queue(midi.NoteOffEvent(0, uint8(press)))
			released = true
		}
	}
	require.True(t, e.Complete(), "song never completed")
}

func TestPerfectOneNoteSong(t *testing.T) {
	rec := &recorder{}
	var kinds []EventKind
	e := New(rec, Options{OnEvent: func(ev Event) { kinds = append(kinds, ev.Kind) }})
	e.Load(oneNoteSong())

	e.Queue(midi.NoteOnEvent(0, 60, 100))
	e.Start()
	e.Update(frame)
	require.Len(t, rec.events, 1)
	assert.Equal(t, midi.NoteOnEvent(0, 60, PlaybackVelocity), rec.events[0])
	assert.Equal(t, []int{60}, e.Sounding())

	play(t, e, 60, 32)

	assert.Equal(t, 1, rec.count(midi.NoteOn, 60))
	assert.Equal(t, 1, rec.count(midi.NoteOff, 60))
	assert.False(t, e.Running())
	assert.GreaterOrEqual(t, e.Scorer().Percent(), 0.95)
	assert.Equal(t, score.Legendary, e.Scorer().Result())
	assert.Contains(t, kinds, EventSongComplete)
	assert.Contains(t, kinds, EventTrophy)
}

func TestMissedNote(t *testing.T) {
	rec := &recorder{}
	var result score.Result = -1
	e := New(rec, Options{OnEvent: func(ev Event) {
		if ev.Kind == EventSongComplete {
			result = ev.Result
		}
	}})
	e.Load(oneNoteSong())
	play(t, e, 62, 32)

	assert.Equal(t, 1, rec.count(midi.NoteOn, 60))
	assert.Equal(t, 1, rec.count(midi.NoteOff, 60))
	assert.Zero(t, e.Scorer().Score())
	assert.Equal(t, score.Bombed, result)
}

func TestEveryNoteOnHasOneLaterNoteOff(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := music.NewSong()
	s.FromRandom(rng, music.Range{Min: 2, Max: 16}, music.Range{Min: 2, Max: 12}, 40, []int{60, 62, 64, 65, 67})

	type span struct{ on, off float64 }
	spans := make(map[music.Note]*span)
	e := New(nil, Options{OnEvent: func(ev Event) {
		switch ev.Kind {
		case EventNoteOn:
			_, dup := spans[ev.Note]
			assert.False(t, dup, "note-on repeated for %s", ev.Note)
			spans[ev.Note] = &span{on: ev.Time, off: -1}
		case EventNoteOff:
			sp := spans[ev.Note]
			require.NotNil(t, sp, "note-off without note-on for %s", ev.Note)
			assert.Equal(t, -1.0, sp.off, "note-off repeated for %s", ev.Note)
			sp.off = ev.Time
		}
	}})
	e.Load(s)
	e.Start()
	for i := 0; i < 100000 && !e.Complete(); i++ {
		e.Update(frame)
	}
	require.True(t, e.Complete())
	assert.Len(t, spans, len(s.Notes))
	for n, sp := range spans {
		assert.Greater(t, sp.off, sp.on, n.String())
	}
}

func TestRepeatedPitchReleasesBeforeRestrike(t *testing.T) {
	rec := &recorder{}
	s := music.NewSong()
	s.AppendNote(60, 0, 8)
	s.AppendNote(60, 8, 8)
	e := New(rec, Options{})
	e.Load(s)
	e.Start()
	for !e.Complete() {
		e.Update(frame)
	}
	var seq []uint8
	for _, ev := range rec.events {
		if ev.Note == 60 {
			seq = append(seq, ev.Type)
		}
	}
	assert.Equal(t, []uint8{midi.NoteOn, midi.NoteOff, midi.NoteOn, midi.NoteOff}, seq)
}

func TestResetClearsState(t *testing.T) {
	rec := &recorder{}
	e := New(rec, Options{})
	e.Load(oneNoteSong())
	e.Queue(midi.NoteOnEvent(0, 60, 100))
	e.Start()
	for i := 0; i < 60; i++ {
		e.Update(frame)
	}
	require.NotZero(t, e.Scorer().Score())
	require.NotEmpty(t, e.Sounding())

	e.Reset()
	assert.Zero(t, e.MusicTime())
	assert.Zero(t, e.Scorer().Score())
	assert.Empty(t, e.PlayerDown())
	assert.Empty(t, e.Sounding())
	assert.False(t, e.Running())
	assert.Equal(t, midi.NoteOffEvent(0, 60), rec.events[len(rec.events)-1])
}

func TestBackingDispatch(t *testing.T) {
	rec := &recorder{}
	s := music.NewSong()
	s.TicksPerBeat = 96
	s.AppendNote(72, 32, 32)
	s.Backing[0] = []music.BackingEvent{
		{Tick: 0, On: true, Channel: 1, Pitch: 36, Velocity: 90},
		{Tick: 96, On: false, Channel: 1, Pitch: 36},
	}
	e := New(rec, Options{})
	e.Load(s)
	e.Start()

	e.Update(frame)
	require.Len(t, rec.events, 1)
	assert.Equal(t, midi.NoteOnEvent(1, 36, 90), rec.events[0])

	// one beat is 8 SDQN, i.e. one second at 60 BPM
	for e.MusicTime() < 8 {
		e.Update(frame)
	}
	assert.Equal(t, 1, rec.count(midi.NoteOff, 36))
}

func TestCompletionReleasesBacking(t *testing.T) {
	rec := &recorder{}
	s := music.NewSong()
	s.AppendNote(60, 0, 8)
	s.Backing[1] = []music.BackingEvent{{Tick: 0, On: true, Channel: 2, Pitch: 40, Velocity: 80}}
	e := New(rec, Options{})
	e.Load(s)
	e.Start()
	for !e.Complete() {
		e.Update(frame)
	}
	assert.Equal(t, midi.NoteOffEvent(2, 40), rec.events[len(rec.events)-1])
	assert.GreaterOrEqual(t, e.MusicTime(), float64(8+CompletionTail))
}

func TestPauseAndLearnWaitsForPlayer(t *testing.T) {
	e := New(nil, Options{Mode: PauseAndLearn})
	s := music.NewSong()
	s.AppendNote(60, 8, 16)
	e.Load(s)
	e.Start()

	for i := 0; i < 600; i++ {
		e.Update(frame)
	}
	stuck := e.MusicTime()
	assert.GreaterOrEqual(t, stuck, 8.0)
	assert.Less(t, stuck, 8.5, "play head holds at the unplayed note")

	e.Queue(midi.NoteOnEvent(0, 60, 100))
	for i := 0; i < 600 && !e.Complete(); i++ {
		e.Update(frame)
	}
	assert.True(t, e.Complete())
	assert.Equal(t, score.Legendary, e.Scorer().Result())
}

func TestSeekAndUpcoming(t *testing.T) {
	rec := &recorder{}
	s := music.NewSong()
	s.AppendNote(60, 0, 8)
	s.AppendNote(62, 8, 8)
	s.AppendNote(64, 16, 8)
	s.AppendNote(65, 40, 8)
	e := New(rec, Options{})
	e.Load(s)

	up := e.Upcoming(16)
	require.Len(t, up, 2)
	assert.Equal(t, 60, up[0].Pitch)

	e.Seek(10)
	assert.Equal(t, 10.0, e.MusicTime())
	up = e.Upcoming(8)
	require.Len(t, up, 2, "the note under the play head is still visible")
	assert.Equal(t, 62, up[0].Pitch)

	e.Update(0)
	assert.Empty(t, e.Sounding(), "notes already under the head are skipped")

	e.Seek(-100)
	assert.Zero(t, e.MusicTime())
	e.Update(0)
	assert.Equal(t, []int{60}, e.Sounding())
}

func TestPanic(t *testing.T) {
	rec := &recorder{}
	s := oneNoteSong()
	s.Backing[1] = []music.BackingEvent{{Tick: 0, On: true, Channel: 3, Pitch: 40, Velocity: 80}}
	e := New(rec, Options{})
	e.Load(s)
	e.Start()
	e.Update(frame)
	rec.events = nil

	e.Panic()
	assert.Len(t, rec.events, 2*(music.MaxPitch+1))
	assert.Empty(t, e.Sounding())
	assert.Empty(t, e.Scorer().Entries())
}

func TestVelocityZeroIsRelease(t *testing.T) {
	e := New(nil, Options{})
	e.Queue(midi.NoteOnEvent(0, 60, 100))
	e.Update(frame)
	assert.Equal(t, []int{60}, e.PlayerDown())
	e.Queue(midi.NoteOnEvent(0, 60, 0))
	e.Update(frame)
	assert.Empty(t, e.PlayerDown())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("pause-and-learn")
	require.NoError(t, err)
	assert.Equal(t, PauseAndLearn, m)
	_, err = ParseMode("fast")
	assert.Error(t, err)
	assert.Equal(t, "normal", Normal.String())
}

func TestStoppedEngineDoesNotAccrue(t *testing.T) {
	e := New(nil, Options{})
	e.Load(oneNoteSong())
	e.Queue(midi.NoteOnEvent(0, 60, 100))
	e.Start()
	for i := 0; i < 16; i++ {
		e.Update(frame)
	}
	e.Stop()
	assert.Equal(t, []int{60}, e.PlayerDown())
	at, scored := e.MusicTime(), e.Scorer().Score()
	require.Greater(t, scored, 0.0)

	for i := 0; i < 600; i++ {
		e.Update(frame)
	}
	assert.Equal(t, at, e.MusicTime())
	assert.Equal(t, scored, e.Scorer().Score())

	e.TogglePause()
	e.Update(frame)
	assert.Greater(t, e.Scorer().Score(), scored)
}

func TestCompletionReleasesBackingInOrder(t *testing.T) {
	rec := &recorder{}
	s := music.NewSong()
	s.AppendNote(60, 0, 8)
	s.Backing[1] = []music.BackingEvent{
		{Tick: 0, On: true, Channel: 3, Pitch: 40, Velocity: 80},
		{Tick: 0, On: true, Channel: 1, Pitch: 52, Velocity: 80},
		{Tick: 0, On: true, Channel: 1, Pitch: 45, Velocity: 80},
	}
	e := New(rec, Options{})
	e.Load(s)
	e.Start()
	for !e.Complete() {
		e.Update(frame)
	}
	tail := rec.events[len(rec.events)-3:]
	assert.Equal(t, []midi.Event{
		midi.NoteOffEvent(1, 45),
		midi.NoteOffEvent(1, 52),
		midi.NoteOffEvent(3, 40),
	}, tail)
}
