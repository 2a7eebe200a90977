package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sightread/music"
)

func holding(pitches ...int) func(int) bool {
	return func(p int) bool {
		for _, q := range pitches {
			if p == q {
				return true
			}
		}
		return false
	}
}

func TestMaxPossible(t *testing.T) {
	assert.InDelta(t, 25.0, MaxPossible(32), 1e-9)
	assert.InDelta(t, 100.0, MaxPossible(128), 1e-9)
	assert.InDelta(t, 5.0, MaxPossible(4), 1e-9)
	assert.InDelta(t, 5.0, MaxPossible(0), 1e-9)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 1.0, Accuracy(0))
	assert.Equal(t, 0.75, Accuracy(0.5))
	assert.Equal(t, 0.75, Accuracy(-0.5))
	assert.Equal(t, 0.5, Accuracy(1))
	assert.Equal(t, 0.5, Accuracy(10))
}

func TestResultFor(t *testing.T) {
	cases := []struct {
		pct  float64
		want Result
	}{
		{0, Bombed},
		{0.5499, Bombed},
		{0.55, Decent},
		{0.7999, Decent},
		{0.80, Great},
		{0.95, Legendary},
		{1.0, Legendary},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ResultFor(c.pct), "%v", c.pct)
	}
	assert.Equal(t, "LEGENDARY", Legendary.String())
}

func TestAccruePerfectTiming(t *testing.T) {
	s := New(100, nil)
	n := music.Note{Pitch: 60, Start: 0, Length: 32}
	s.OnPlayableNoteOn(n, 0, false)
	s.OnPlayerNoteOn(60, 0)

	// one second at 60 BPM is 8 SDQN, a quarter of the note
	s.Accrue(1, 60, holding(60))
	e, ok := s.Entry(60)
	require.True(t, ok)
	assert.InDelta(t, 6.25, e.Earned, 1e-9)
	assert.InDelta(t, 6.25, s.Score(), 1e-9)
	assert.True(t, s.Unfulfilled())

	for i := 0; i < 10; i++ {
		s.Accrue(1, 60, holding(60))
	}
	e, _ = s.Entry(60)
	assert.InDelta(t, e.MaxPossible, e.Earned, 1e-9, "earned never exceeds the note ceiling")
	assert.InDelta(t, 25.0, s.Score(), 1e-9)
	assert.False(t, s.Unfulfilled())
}

func TestAccrueLateStartHalvesRate(t *testing.T) {
	s := New(100, nil)
	s.OnPlayableNoteOn(music.Note{Pitch: 60, Start: 0, Length: 32}, 0, false)
	s.OnPlayerNoteOn(60, 3)
	s.Accrue(1, 60, holding(60))
	assert.InDelta(t, 3.125, s.Score(), 1e-9)
}

func TestAccrueNeedsStartAndHold(t *testing.T) {
	s := New(100, nil)
	s.OnPlayableNoteOn(music.Note{Pitch: 60, Start: 0, Length: 32}, 0, false)

	s.Accrue(1, 60, holding(60))
	assert.Zero(t, s.Score(), "held but never pressed while scorable")

	s.OnPlayerNoteOn(60, 0)
	s.Accrue(1, 60, holding(62))
	assert.Zero(t, s.Score(), "pressed then released")

	s.OnPlayerNoteOn(62, 0)
	_, ok := s.Entry(62)
	assert.False(t, ok, "presses on non-scorable pitches are ignored")
}

func TestOnPlayableNoteOnWhileHeld(t *testing.T) {
	s := New(100, nil)
	s.OnPlayableNoteOn(music.Note{Pitch: 64, Start: 8, Length: 16}, 8.5, true)
	e, ok := s.Entry(64)
	require.True(t, ok)
	assert.True(t, e.Started)
	assert.Equal(t, 8.5, e.PlayerStarted)
}

func TestOnPlayableNoteOffRetires(t *testing.T) {
	s := New(100, nil)
	s.OnPlayableNoteOn(music.Note{Pitch: 60, Start: 0, Length: 32}, 0, true)
	s.OnPlayableNoteOff(60)
	s.Accrue(1, 60, holding(60))
	assert.Zero(t, s.Score())
	assert.Empty(t, s.Entries())
}

func TestGlobalScoreCappedAtMax(t *testing.T) {
	s := New(10, nil)
	s.OnPlayableNoteOn(music.Note{Pitch: 60, Start: 0, Length: 32}, 0, true)
	s.OnPlayableNoteOn(music.Note{Pitch: 64, Start: 0, Length: 32}, 0, true)
	for i := 0; i < 8; i++ {
		s.Accrue(0.5, 60, holding(60, 64))
		assert.LessOrEqual(t, s.Score(), s.MaxScore())
		for _, e := range s.Entries() {
			assert.LessOrEqual(t, e.Earned, e.MaxPossible+1e-9)
		}
	}
	assert.InDelta(t, 10.0, s.Score(), 1e-9)
	assert.Equal(t, Legendary, s.Result())
}

func TestProgress(t *testing.T) {
	s := New(100, nil)
	s.OnPlayableNoteOn(music.Note{Pitch: 60, Start: 0, Length: 128}, 0, true)

	p := s.Progress()
	assert.Zero(t, p.Filled)
	assert.Zero(t, p.Fraction)

	// 9.6 s at 60 BPM is 76.8 SDQN of a 128-long note worth 100: 60 points
	s.Accrue(9.6, 60, holding(60))
	p = s.Progress()
	assert.Equal(t, 1, p.Filled)
	assert.InDelta(t, 0.2, p.Fraction, 1e-9)
	assert.Equal(t, []Trophy{Gold}, p.NewlyFilled)

	assert.Empty(t, s.Progress().NewlyFilled, "a trophy pulses once")

	s.Accrue(10, 60, holding(60))
	p = s.Progress()
	assert.Equal(t, 3, p.Filled)
	assert.Equal(t, 1.0, p.Fraction)
	assert.Equal(t, []Trophy{Platinum, Diamond}, p.NewlyFilled)
}

func TestReset(t *testing.T) {
	s := New(100, nil)
	s.OnPlayableNoteOn(music.Note{Pitch: 60, Start: 0, Length: 32}, 0, true)
	s.Accrue(1, 60, holding(60))
	s.Reset()
	assert.Zero(t, s.Score())
	assert.Empty(t, s.Entries())

	s.SetMaxScore(0)
	assert.Equal(t, 1.0, s.MaxScore())
}
