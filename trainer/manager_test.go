package trainer

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sightread/career"
	"go-sightread/engine"
	"go-sightread/generator"
	"go-sightread/history"
	"go-sightread/input"
	"go-sightread/midi"
	"go-sightread/music"
	"go-sightread/score"
	"go-sightread/songbook"
)

const frame = 1.0 / 60

type fakeOut struct {
	sent    []midi.Event
	flushes int
	panics  int
}

func (f *fakeOut) Send(ev midi.Event) { f.sent = append(f.sent, ev) }
func (f *fakeOut) Flush() error       { f.flushes++; return nil }
func (f *fakeOut) Panic()             { f.panics++ }

type rig struct {
	m     *Manager
	out   *fakeOut
	notes chan midi.Event
	dir   string
}

func newRig(t *testing.T, opts Options) *rig {
	t.Helper()
	r := &rig{out: &fakeOut{}, notes: make(chan midi.Event, 256), dir: t.TempDir()}
	opts.Output = r.out
	opts.Notes = r.notes
	if opts.Generator == nil {
		opts.Generator = generator.New(rand.New(rand.NewSource(7)), nil)
	}
	r.m = NewManager(opts)
	return r
}

// play starts the song and holds exactly the notes under the play head
// until a new summary appears.
func (r *rig) play(t *testing.T, press bool) *Summary {
	t.Helper()
	prev := r.m.Snapshot(0).Last
	r.m.Apply(input.ActionTogglePause)
	held := map[int]bool{}
	for i := 0; i < 200000; i++ {
		snap := r.m.Snapshot(0)
		if snap.Last != prev {
			for p := range held {
				r.notes <- midi.NoteOffEvent(0, uint8(p))
			}
			r.m.Update(frame)
			return snap.Last
		}
		want := map[int]bool{}
		if press {
			for _, n := range snap.Song.Notes {
				if float64(n.Start) <= snap.MusicTime && snap.MusicTime < float64(n.End()) {
					want[n.Pitch] = true
				}
			}
		}
		for p := range held {
			if !want[p] {
				r.notes <- midi.NoteOffEvent(0, uint8(p))
				delete(held, p)
			}
		}
		for p := range want {
			if !held[p] {
				r.notes <- midi.NoteOnEvent(0, uint8(p), 100)
				held[p] = true
			}
		}
		r.m.Update(frame)
	}
	t.Fatal("song never completed")
	return nil
}

func bookSong() *music.Song {
	s := music.NewSong()
	s.Title = "one"
	s.Artist = "tester"
	s.AppendNote(60, 32, 32)
	return s
}

func TestBookSongRecordsScoreAndHistory(t *testing.T) {
	dir := t.TempDir()
	store := songbook.Open(filepath.Join(dir, "songbook.json"), nil)
	store.Update(func(b *songbook.Book) { b.AddUpdateSong("", bookSong()) })
	hist, err := history.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer hist.Close()

	r := newRig(t, Options{Book: store, History: hist})
	require.NoError(t, r.m.LoadTitle("one"))
	assert.Equal(t, SourceBook, r.m.Snapshot(0).Source)

	sum := r.play(t, true)
	assert.Equal(t, score.Legendary, sum.Result)
	assert.InDelta(t, 1.0, sum.Percent, 1e-9)
	assert.True(t, sum.NewBest)
	assert.False(t, sum.InTour)
	assert.True(t, r.m.Snapshot(0).Complete)

	store.View(func(b *songbook.Book) {
		s, _, err := b.Find("one")
		require.NoError(t, err)
		assert.InDelta(t, 10.0, b.BestScore(s), 1e-9)
	})

	best, ok, err := hist.Best("one")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "LEGENDARY", best.Result)
	assert.Equal(t, "normal", best.Mode)
	assert.Equal(t, "tester", best.Artist)

	assert.Positive(t, r.out.flushes)
	assert.NotEmpty(t, r.out.sent)
	require.NoError(t, r.m.Close())
}

func TestLoadTitleMissing(t *testing.T) {
	r := newRig(t, Options{})
	assert.ErrorIs(t, r.m.LoadTitle("nope"), songbook.ErrNotFound)
}

func TestLoadDefaultFallsBackToPractice(t *testing.T) {
	r := newRig(t, Options{})
	require.NoError(t, r.m.LoadDefault())
	snap := r.m.Snapshot(0)
	assert.Equal(t, SourcePractice, snap.Source)
	assert.Equal(t, generator.MinTier, snap.Venue)
	assert.NotEmpty(t, snap.Song.Notes)

	assert.Error(t, r.m.Practice(99, 0))
}

func TestCareerAdvancesOnLegendary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "career.json")
	r := newRig(t, Options{CareerPath: path})

	_, err := r.m.SkipSet()
	assert.ErrorIs(t, err, career.ErrNoActiveCareer)
	assert.ErrorIs(t, r.m.ContinueCareer(), career.ErrNoActiveCareer)

	require.NoError(t, r.m.StartCareer())
	snap := r.m.Snapshot(0)
	assert.Equal(t, SourceCareer, snap.Source)
	assert.Equal(t, 1, snap.Venue)
	assert.Equal(t, 0, snap.Set)
	assert.Equal(t, "Open Mic Night", snap.Song.Artist)

	sum := r.play(t, true)
	require.True(t, sum.InTour)
	assert.Equal(t, score.Legendary, sum.Career.Result)
	assert.Equal(t, career.LegendaryBonus, sum.Career.FanDelta)
	assert.True(t, sum.Career.SkipEarned)

	snap = r.m.Snapshot(0)
	assert.Equal(t, 1, snap.Set)
	assert.False(t, snap.Complete)
	assert.Zero(t, snap.MusicTime)
	assert.Equal(t, career.StartingFans+career.LegendaryBonus, snap.Fans)
	assert.True(t, snap.CanSkip)

	restored := career.New(nil)
	require.NoError(t, career.Load(path, restored))
	assert.Equal(t, snap.Fans, restored.Fans())
	assert.Equal(t, 1, restored.CurrentSet())

	ok, err := r.m.SkipSet()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, r.m.Snapshot(0).Set)
	assert.Equal(t, []int{0, 1}, r.m.Career().SetsCompleted(1))

	ok, err = r.m.SkipSet()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCareerBombRegeneratesSet(t *testing.T) {
	r := newRig(t, Options{})
	require.NoError(t, r.m.StartCareer())
	first := r.m.Snapshot(0).Song

	sum := r.play(t, false)
	assert.Equal(t, score.Bombed, sum.Result)
	assert.Equal(t, -career.BombPenalty, sum.Career.FanDelta)

	snap := r.m.Snapshot(0)
	assert.Equal(t, 0, snap.Set)
	assert.Equal(t, career.StartingFans-career.BombPenalty, snap.Fans)
	assert.NotSame(t, first, snap.Song)
	assert.False(t, snap.Running)
}

func TestPlaySetLocked(t *testing.T) {
	r := newRig(t, Options{})
	assert.ErrorIs(t, r.m.PlaySet(1, 0), career.ErrNoActiveCareer)
	require.NoError(t, r.m.StartCareer())
	assert.ErrorIs(t, r.m.PlaySet(1, 2), ErrSetLocked)
	assert.ErrorIs(t, r.m.PlaySet(2, 0), ErrSetLocked)
	require.NoError(t, r.m.PlaySet(1, 0))
}

func TestReplayedSetLeavesCareerAlone(t *testing.T) {
	r := newRig(t, Options{})
	require.NoError(t, r.m.StartCareer())
	r.play(t, true)
	require.Equal(t, 1, r.m.Career().CurrentSet())

	require.NoError(t, r.m.PlaySet(1, 0))
	sum := r.play(t, false)
	assert.False(t, sum.InTour)
	assert.Equal(t, 1, r.m.Career().CurrentSet())
	assert.Equal(t, career.StartingFans+career.LegendaryBonus, r.m.Career().Fans())
}

func TestStepSet(t *testing.T) {
	r := newRig(t, Options{})
	assert.ErrorIs(t, r.m.StepSet(1), career.ErrNoActiveCareer)
	require.NoError(t, r.m.StartCareer())
	assert.ErrorIs(t, r.m.StepSet(1), ErrSetLocked)
	require.NoError(t, r.m.StepSet(-1))
	assert.Equal(t, 0, r.m.Snapshot(0).Set)

	r.play(t, true)
	require.Equal(t, 1, r.m.Snapshot(0).Set)
	require.NoError(t, r.m.StepSet(-1))
	snap := r.m.Snapshot(0)
	assert.Equal(t, 1, snap.Venue)
	assert.Equal(t, 0, snap.Set)
	require.NoError(t, r.m.StepSet(1))
	assert.Equal(t, 1, r.m.Snapshot(0).Set)
	assert.ErrorIs(t, r.m.StepSet(1), ErrSetLocked)
}

func TestKeyActions(t *testing.T) {
	r := newRig(t, Options{})
	r.m.LoadSong(bookSong())

	r.m.HandleKey(input.KeyEvent{Key: "space", Kind: input.Down})
	assert.True(t, r.m.Snapshot(0).Running)
	r.m.HandleKey(input.KeyEvent{Key: "space", Kind: input.Down})
	assert.False(t, r.m.Snapshot(0).Running)

	r.m.HandleKey(input.KeyEvent{Key: "right", Kind: input.Down})
	r.m.HandleKey(input.KeyEvent{Key: "right", Kind: input.Repeat})
	assert.Equal(t, 2.0, r.m.Snapshot(0).MusicTime)
	r.m.HandleKey(input.KeyEvent{Key: "left", Kind: input.Down})
	assert.Equal(t, 1.0, r.m.Snapshot(0).MusicTime)

	r.m.HandleKey(input.KeyEvent{Key: "tab", Kind: input.Down})
	assert.Equal(t, engine.PauseAndLearn, r.m.Snapshot(0).Mode)

	r.m.HandleKey(input.KeyEvent{Key: "up", Kind: input.Down})
	snap := r.m.Snapshot(0)
	assert.Equal(t, 1, snap.Octave)
	assert.Equal(t, "octave 1", snap.Status)

	r.m.HandleKey(input.KeyEvent{Key: "c", Kind: input.Down})
	r.m.Update(0)
	assert.True(t, r.m.Snapshot(0).Held[60])
	r.m.HandleKey(input.KeyEvent{Key: "c", Kind: input.Up})
	r.m.Update(0)
	assert.False(t, r.m.Snapshot(0).Held[60])

	r.m.HandleKey(input.KeyEvent{Key: "delete", Kind: input.Down})
	assert.Equal(t, 1, r.out.panics)

	r.m.HandleKey(input.KeyEvent{Key: "home", Kind: input.Down})
	assert.Zero(t, r.m.Snapshot(0).MusicTime)
}

func TestMouseAndMapping(t *testing.T) {
	r := newRig(t, Options{Router: input.Options{
		PitchAt: func(x, y int) (int, bool) { return 72 - y, y >= 0 },
	}})
	r.m.LoadSong(bookSong())

	r.m.HandleMouse(input.MouseEvent{X: 5, Y: 2, Down: true})
	r.m.Update(0)
	assert.True(t, r.m.Snapshot(0).Held[70])
	r.m.HandleMouse(input.MouseEvent{Down: false})
	r.m.Update(0)
	assert.Empty(t, r.m.Snapshot(0).Held)

	r.m.HandleKey(input.KeyEvent{Key: "d", Kind: input.Down})
	r.m.Update(0)
	assert.True(t, r.m.Snapshot(0).Held[50])
	r.m.SetMapping(input.PianoRow)
	r.m.Update(0)
	assert.Empty(t, r.m.Snapshot(0).Held)
	assert.Equal(t, input.PianoRow, r.m.Snapshot(0).Mapping)
}

func TestSnapshotUpcoming(t *testing.T) {
	r := newRig(t, Options{})
	s := music.NewSong()
	s.AppendNote(60, 0, 8)
	s.AppendNote(62, 8, 8)
	s.AppendNote(64, 40, 8)
	r.m.LoadSong(s)
	r.m.SetTempo(120)

	snap := r.m.Snapshot(16)
	assert.Len(t, snap.Upcoming, 2)
	assert.Equal(t, 120.0, snap.Tempo)
	assert.Equal(t, engine.DefaultNoteWidth, snap.NoteWidth)
}
